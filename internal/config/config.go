// Package config loads illo configuration from files and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ILLO_RENDERER_DYNAMIC.
const EnvPrefix = "ILLO"

// Worker modes.
const (
	WorkerModeLocal   = "local"
	WorkerModeProcess = "process"
)

// Config is the full illo configuration.
type Config struct {
	Renderer RendererConfig `mapstructure:"renderer"`
	Palette  PaletteConfig  `mapstructure:"palette"`
	Tokens   TokensConfig   `mapstructure:"tokens"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Control  ControlConfig  `mapstructure:"control"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// RendererConfig holds the renderer parameters.
type RendererConfig struct {
	// Source is the animation asset path or URL.
	Source string `mapstructure:"source"`

	Autoplay bool `mapstructure:"autoplay"`
	Loop     bool `mapstructure:"loop"`

	// Dynamic enables palette-driven recoloring. When false the animation
	// renders with the colors bundled in the asset.
	Dynamic bool `mapstructure:"dynamic"`

	// PixelRatio scales surface sizes into draw buffer sizes.
	PixelRatio float64 `mapstructure:"pixel_ratio"`
}

// PaletteConfig selects the color palette.
type PaletteConfig struct {
	// File optionally points at a palette file overriding the built-in schemes.
	File string `mapstructure:"file"`

	// Scheme is the active color scheme, "light" or "dark".
	Scheme string `mapstructure:"scheme"`

	// Watch reloads File on change and re-applies colors.
	Watch bool `mapstructure:"watch"`
}

// TokensConfig extends the known token set.
type TokensConfig struct {
	Extra []string `mapstructure:"extra"`
}

// WorkerConfig selects the rendering worker.
type WorkerConfig struct {
	Mode    string   `mapstructure:"mode"`
	Command []string `mapstructure:"command"`
}

// JournalConfig configures the SQLite event journal.
type JournalConfig struct {
	// Path of the journal database. Empty disables the journal.
	Path string `mapstructure:"path"`
}

// ControlConfig configures the remote control endpoint of `illo play`.
type ControlConfig struct {
	// Listen is "unix:///path/to.sock" or "host:port". Empty disables it.
	Listen string `mapstructure:"listen"`

	// RequestsPerSecond and Burst bound calls across all methods.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Renderer: RendererConfig{
			Autoplay:   true,
			Loop:       true,
			Dynamic:    false,
			PixelRatio: 1,
		},
		Palette: PaletteConfig{
			Scheme: "light",
		},
		Worker: WorkerConfig{
			Mode: WorkerModeLocal,
		},
		Control: ControlConfig{
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from path (if non-empty) and ILLO_* environment
// variables on top of DefaultConfig.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if dir, err := os.UserConfigDir(); err == nil {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(dir, "illo"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Worker.Mode {
	case WorkerModeLocal:
	case WorkerModeProcess:
		if len(c.Worker.Command) == 0 {
			return errors.New("worker.command is required in process mode")
		}
	default:
		return fmt.Errorf("unknown worker.mode %q", c.Worker.Mode)
	}
	if c.Control.RequestsPerSecond < 0 || c.Control.Burst < 0 {
		return errors.New("control rate limits must not be negative")
	}
	if c.Renderer.PixelRatio <= 0 {
		return fmt.Errorf("renderer.pixel_ratio must be positive, got %v", c.Renderer.PixelRatio)
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("renderer.source", cfg.Renderer.Source)
	v.SetDefault("renderer.autoplay", cfg.Renderer.Autoplay)
	v.SetDefault("renderer.loop", cfg.Renderer.Loop)
	v.SetDefault("renderer.dynamic", cfg.Renderer.Dynamic)
	v.SetDefault("renderer.pixel_ratio", cfg.Renderer.PixelRatio)
	v.SetDefault("palette.file", cfg.Palette.File)
	v.SetDefault("palette.scheme", cfg.Palette.Scheme)
	v.SetDefault("palette.watch", cfg.Palette.Watch)
	v.SetDefault("tokens.extra", []string{})
	v.SetDefault("worker.mode", cfg.Worker.Mode)
	v.SetDefault("worker.command", []string{})
	v.SetDefault("journal.path", cfg.Journal.Path)
	v.SetDefault("control.listen", cfg.Control.Listen)
	v.SetDefault("control.requests_per_second", cfg.Control.RequestsPerSecond)
	v.SetDefault("control.burst", cfg.Control.Burst)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
