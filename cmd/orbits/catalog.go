package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orbit-viz/core"
)

type catalogRow struct {
	Name           string  `json:"name"`
	AltitudeKm     float64 `json:"altitude_km"`
	InclinationDeg float64 `json:"inclination_deg"`
	OrbitRadius    float64 `json:"orbit_radius"`
	OrbitSpeed     float64 `json:"orbit_speed"`
	PeriodFrames   float64 `json:"period_frames"`
}

func newCatalogCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the configured satellites with their derived orbit radius and speed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rows := make([]catalogRow, 0, len(cfg.Catalog))
			for i, e := range cfg.Catalog {
				r, err := core.OrbitRadius(e.AltitudeKm, cfg.BodyRadiusKm)
				if err != nil {
					return fmt.Errorf("catalog entry %d (%q): %w", i, e.Name, err)
				}
				speed := core.OrbitSpeed(cfg.BaseOrbitSpeed, r)
				rows = append(rows, catalogRow{
					Name:           e.Name,
					AltitudeKm:     e.AltitudeKm,
					InclinationDeg: e.InclinationDeg,
					OrbitRadius:    r,
					OrbitSpeed:     speed,
					PeriodFrames:   core.PeriodFrames(speed),
				})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tALT (km)\tINCL (deg)\tRADIUS\tSPEED (rad/frame)\tPERIOD (frames)")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%.0f\t%.1f\t%.4f\t%.6f\t%.0f\n",
					r.Name, r.AltitudeKm, r.InclinationDeg, r.OrbitRadius, r.OrbitSpeed, r.PeriodFrames)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
