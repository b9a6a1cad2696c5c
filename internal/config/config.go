// Package config holds the settings of the linecap CLI and the job files
// describing a command to run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"linecap/internal/logging"
	"linecap/internal/report"
)

// EnvPrefix prefixes environment variables overriding settings, e.g.
// LINECAP_FORMAT or LINECAP_LOG_LEVEL.
const EnvPrefix = "LINECAP"

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the settings of the CLI
type Config struct {
	Format string    `mapstructure:"format"`
	Color  string    `mapstructure:"color"`
	Log    LogConfig `mapstructure:"log"`
}

// LogConfig controls the CLI's own log output (never the captured lines)
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the default settings
func Default() *Config {
	return &Config{
		Format: string(report.FormatText),
		Color:  ColorAuto,
		Log: LogConfig{
			Level:  logging.LevelWarn,
			Format: logging.FormatText,
		},
	}
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()
	v.SetDefault("format", defaults.Format)
	v.SetDefault("color", defaults.Color)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
}

// NewViper returns a viper instance with defaults, environment overrides and
// the config file loaded. An empty configFile means ConfigFile(), which may
// be missing; an explicitly given file must exist.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := configFile != ""
	if !explicit {
		configFile = ConfigFile()
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error
	if _, err := report.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains([]string{ColorAuto, ColorAlways, ColorNever}, c.Color) {
		errs = append(errs, fmt.Errorf("invalid color mode %q (want auto, always or never)", c.Color))
	}
	if !logging.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	if c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("invalid log format %q (want text or json)", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "linecap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".linecap"
	}
	return filepath.Join(home, ".config", "linecap")
}

// ConfigFile returns the path to the default config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
