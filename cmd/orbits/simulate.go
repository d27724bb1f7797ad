package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orbit-viz/model"
	"github.com/signalsfoundry/orbit-viz/timectrl"
)

func newSimulateCmd() *cobra.Command {
	var (
		frames uint64
		output string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run frames back to back and print the final frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if frames == 0 {
				return fmt.Errorf("--frames must be positive")
			}
			if output != "summary" && output != "json" {
				return fmt.Errorf("unsupported --output %q (want summary or json)", output)
			}
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, log, timectrl.Accelerated, nil)
			if err != nil {
				return err
			}
			if err := a.loop.Run(ctx, frames); err != nil {
				return err
			}
			frame, err := a.store.Latest()
			if err != nil {
				return err
			}

			if output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(frame)
			}
			return writeSummary(cmd.OutOrStdout(), frame)
		},
	}
	cmd.Flags().Uint64Var(&frames, "frames", 600, "number of frames to run")
	cmd.Flags().StringVar(&output, "output", "summary", "output format: summary or json")
	return cmd
}

func writeSummary(w io.Writer, f model.Frame) error {
	fmt.Fprintf(w, "frame %d  surface rotation %.4f rad\n\n", f.Index, f.Body.SurfaceRotation)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tANGLE (rad)\tLAT\tLON\tALT (km)\tTRAIL")
	for _, s := range f.Satellites {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.2f\t%.2f\t%.0f\t%d\n",
			s.ID, s.Name, s.OrbitAngle,
			s.GroundTrack.LatitudeDeg, s.GroundTrack.LongitudeDeg, s.GroundTrack.AltitudeKm,
			len(s.Trail)/3,
		)
	}
	return tw.Flush()
}
