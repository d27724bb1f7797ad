// Package config loads service settings from defaults, an optional YAML or
// JSON file, ORBITS_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/orbit-viz/core"
	"github.com/signalsfoundry/orbit-viz/internal/logging"
	"github.com/signalsfoundry/orbit-viz/internal/observability"
	"github.com/signalsfoundry/orbit-viz/model"
)

// EnvPrefix namespaces environment overrides, e.g. ORBITS_FRAME_RATE.
const EnvPrefix = "ORBITS"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the fully resolved service configuration.
type Config struct {
	BodyRadiusKm   float64 `mapstructure:"body_radius_km"`
	AxialTiltDeg   float64 `mapstructure:"axial_tilt_deg"`
	BaseOrbitSpeed float64 `mapstructure:"base_orbit_speed"`
	TrailLength    int     `mapstructure:"trail_length"`
	PreseedTrails  bool    `mapstructure:"preseed_trails"`

	// Seed fixes satellite start phases; zero picks random phases.
	Seed      uint64       `mapstructure:"seed"`
	FrameRate float64      `mapstructure:"frame_rate"`
	Camera    model.Vector `mapstructure:"camera"`

	HTTPAddr    string `mapstructure:"http_addr"`
	GRPCAddr    string `mapstructure:"grpc_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`

	Log     logging.Config              `mapstructure:"log"`
	Tracing observability.TracingConfig `mapstructure:"tracing"`

	Catalog []model.CatalogEntry `mapstructure:"catalog"`
}

// SetDefaults installs default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("body_radius_km", core.EarthRadiusKm)
	v.SetDefault("axial_tilt_deg", core.DefaultAxialTiltDeg)
	v.SetDefault("base_orbit_speed", core.BaseOrbitSpeed)
	v.SetDefault("trail_length", core.MaxTrailLength)
	v.SetDefault("preseed_trails", true)
	v.SetDefault("seed", 0)
	v.SetDefault("frame_rate", 60.0)
	v.SetDefault("camera.x", 0.0)
	v.SetDefault("camera.y", 0.0)
	v.SetDefault("camera.z", 5.0)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("grpc_addr", ":50051")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "orbit-viz")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Load resolves configuration. path may be empty, and flags may be nil.
// Flags are bound by name with dashes mapped to underscores, so --frame-rate
// overrides frame_rate.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if bindErr != nil || f.Name == "config" {
				return
			}
			bindErr = v.BindPFlag(flagKey(f.Name), f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Catalog) == 0 {
		cfg.Catalog = model.DefaultCatalog()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// nestedFlags maps flag names onto keys inside config sections.
var nestedFlags = map[string]string{
	"log-level":        "log.level",
	"log-format":       "log.format",
	"tracing":          "tracing.enabled",
	"tracing-exporter": "tracing.exporter",
}

func flagKey(name string) string {
	if key, ok := nestedFlags[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// Validate checks the settings that cannot be repaired with a default.
// Catalog entries are validated when the scene is built.
func (c *Config) Validate() error {
	switch {
	case !(c.BodyRadiusKm > 0):
		return fmt.Errorf("%w: body_radius_km must be positive, got %v", ErrInvalidConfig, c.BodyRadiusKm)
	case math.IsNaN(c.AxialTiltDeg) || math.IsInf(c.AxialTiltDeg, 0):
		return fmt.Errorf("%w: axial_tilt_deg must be finite, got %v", ErrInvalidConfig, c.AxialTiltDeg)
	case !(c.BaseOrbitSpeed > 0):
		return fmt.Errorf("%w: base_orbit_speed must be positive, got %v", ErrInvalidConfig, c.BaseOrbitSpeed)
	case c.TrailLength <= 0:
		return fmt.Errorf("%w: trail_length must be positive, got %d", ErrInvalidConfig, c.TrailLength)
	case !(c.FrameRate > 0):
		return fmt.Errorf("%w: frame_rate must be positive, got %v", ErrInvalidConfig, c.FrameRate)
	case c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1:
		return fmt.Errorf("%w: tracing.sample_ratio must be within [0,1], got %v", ErrInvalidConfig, c.Tracing.SampleRatio)
	case c.Tracing.Exporter != observability.ExporterStdout && c.Tracing.Exporter != observability.ExporterOTLP:
		return fmt.Errorf("%w: tracing.exporter must be %q or %q, got %q", ErrInvalidConfig,
			observability.ExporterStdout, observability.ExporterOTLP, c.Tracing.Exporter)
	}
	return nil
}

// SceneOptions translates the config into scene construction options.
func (c *Config) SceneOptions() []core.SceneOption {
	opts := []core.SceneOption{
		core.WithSceneBodyRadius(c.BodyRadiusKm),
		core.WithSceneAxialTilt(c.AxialTiltDeg),
		core.WithSatelliteOptions(
			core.WithBaseSpeed(c.BaseOrbitSpeed),
			core.WithTrailLength(c.TrailLength),
			core.WithTrailPreseed(c.PreseedTrails),
		),
	}
	if c.Seed != 0 {
		opts = append(opts, core.WithSceneSeed(c.Seed))
	}
	return opts
}
