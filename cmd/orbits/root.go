package main

import (
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orbit-viz/internal/config"
	"github.com/signalsfoundry/orbit-viz/internal/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "orbits",
		Short: "Animated satellite orbits around a rotating Earth",
		Long: `orbits advances a catalog of satellites on inclined circular orbits around a
spinning Earth, keeps a fading trail for each, and publishes one frame of scene
state per tick.

Settings come from defaults, an optional --config file, ORBITS_* environment
variables and flags, in increasing order of precedence.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "path to a YAML or JSON config file")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	flags.Uint64("seed", 0, "seed for satellite start phases (0 = random)")
	flags.Int("trail-length", 100, "positions kept per satellite trail")
	flags.Bool("preseed-trails", true, "fill trails with history before the first frame")

	root.AddCommand(
		newServeCmd(),
		newSimulateCmd(),
		newCatalogCmd(),
		newFrameCmd(),
	)
	return root
}

// loadConfig resolves configuration for cmd and builds its logger, which
// writes to the command's stderr.
func loadConfig(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	cfg.Log.Output = cmd.ErrOrStderr()
	return cfg, logging.New(cfg.Log), nil
}
