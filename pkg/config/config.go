// Package config provides configuration loading and management for viewglue.
// It handles loading configuration from YAML or TOML files and provides
// default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"viewglue/internal/models"
	"viewglue/pkg/canvas"
	"viewglue/pkg/norm"
)

const appName = "viewglue"

// Config represents the application configuration
type Config struct {
	// Display parameters
	Display struct {
		// Cmap is the colormap used for numeric images
		Cmap string `yaml:"cmap" koanf:"cmap"`

		// SubsetAlpha is the canvas opacity of subset overlays
		SubsetAlpha float64 `yaml:"subsetAlpha" koanf:"subsetAlpha"`

		// ContrastChannel is the RGB channel whose normalization is edited by default
		ContrastChannel string `yaml:"contrastChannel" koanf:"contrastChannel"`
	} `yaml:"display" koanf:"display"`

	// Normalization parameters for numeric images
	Norm struct {
		// Stretch is one of linear, sqrt, arcsinh, log, squared
		Stretch string `yaml:"stretch" koanf:"stretch"`

		// ClipLo and ClipHi are the percentiles mapped to black and white
		ClipLo float64 `yaml:"clipLo" koanf:"clipLo"`
		ClipHi float64 `yaml:"clipHi" koanf:"clipHi"`

		Bias     float64 `yaml:"bias" koanf:"bias"`
		Contrast float64 `yaml:"contrast" koanf:"contrast"`
	} `yaml:"norm" koanf:"norm"`

	// Render parameters
	Render struct {
		// Zoom is the output scale factor
		Zoom float64 `yaml:"zoom" koanf:"zoom"`

		// Quality is the JPEG quality (1-100)
		Quality int `yaml:"quality" koanf:"quality"`
	} `yaml:"render" koanf:"render"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose" koanf:"verbose"`
	} `yaml:"output" koanf:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Display.Cmap = "gray"
	cfg.Display.SubsetAlpha = 0.5
	cfg.Display.ContrastChannel = models.Green.String()

	cfg.Norm.Stretch = norm.Linear.String()
	cfg.Norm.ClipLo = 5
	cfg.Norm.ClipHi = 95
	cfg.Norm.Bias = 0.5
	cfg.Norm.Contrast = 1

	cfg.Render.Zoom = 1
	cfg.Render.Quality = canvas.DefaultQuality

	cfg.Output.Verbose = false

	return cfg
}

// DefaultConfigPath returns the per-user config file location
// ($XDG_CONFIG_HOME/viewglue/config.yaml), creating its directory.
func DefaultConfigPath() (string, error) {
	return xdg.ConfigFile(filepath.Join(appName, "config.yaml"))
}

// LoadConfig loads configuration from a YAML or, for a .toml extension, TOML
// file. If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	if isTOML(configPath) {
		k := koanf.New(".")
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if err := k.Unmarshal("", cfg); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	var errs []error
	if _, err := canvas.LookupColormap(c.Display.Cmap); err != nil {
		errs = append(errs, err)
	}
	if c.Display.SubsetAlpha < 0 || c.Display.SubsetAlpha > 1 {
		errs = append(errs, fmt.Errorf("subsetAlpha %g outside [0, 1]", c.Display.SubsetAlpha))
	}
	if _, err := models.ParseChannel(c.Display.ContrastChannel); err != nil {
		errs = append(errs, err)
	}
	if _, err := norm.ParseStretch(c.Norm.Stretch); err != nil {
		errs = append(errs, err)
	}
	if c.Norm.ClipLo < 0 || c.Norm.ClipHi > 100 || c.Norm.ClipLo > c.Norm.ClipHi {
		errs = append(errs, fmt.Errorf("clip percentiles %g/%g must satisfy 0 <= lo <= hi <= 100", c.Norm.ClipLo, c.Norm.ClipHi))
	}
	if c.Render.Zoom <= 0 {
		errs = append(errs, fmt.Errorf("zoom must be positive, got %g", c.Render.Zoom))
	}
	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality %d outside [1, 100]", c.Render.Quality))
	}
	return errors.Join(errs...)
}

// NormOptions converts the norm section into normalizer options. The
// stretch must already be valid.
func (c *Config) NormOptions() []norm.Option {
	stretch, err := norm.ParseStretch(c.Norm.Stretch)
	if err != nil {
		stretch = norm.Linear
	}
	return []norm.Option{
		norm.WithStretch(stretch),
		norm.WithClip(c.Norm.ClipLo, c.Norm.ClipHi),
		norm.WithBias(c.Norm.Bias),
		norm.WithContrast(c.Norm.Contrast),
	}
}

// Channel returns the configured contrast channel.
func (c *Config) Channel() models.Channel {
	ch, err := models.ParseChannel(c.Display.ContrastChannel)
	if err != nil {
		return models.Green
	}
	return ch
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
