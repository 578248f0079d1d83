// Package config provides configuration loading and management for polywarp.
// It handles loading configuration from YAML (or JSON with comments) files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Progress display modes
const (
	ProgressBar  = "bar"
	ProgressLog  = "log"
	ProgressNone = "none"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Fit parameters
	Fit struct {
		// Degree is the polynomial degree fitted to the control points
		Degree int `yaml:"degree" json:"degree"`
	} `yaml:"fit" json:"fit"`

	// Resample parameters
	Resample struct {
		// Interpolation selects the kernel: 0 nearest, 1 bilinear, >1 Lagrange
		Interpolation int `yaml:"interpolation" json:"interpolation"`

		// Width and Height of the output raster; 0 uses the input size
		Width  int `yaml:"width" json:"width"`
		Height int `yaml:"height" json:"height"`

		// XOffset and YOffset are added to output coordinates before evaluation
		XOffset int `yaml:"xOffset" json:"xOffset"`
		YOffset int `yaml:"yOffset" json:"yOffset"`

		// Fill is written where the warp maps outside the input
		Fill float64 `yaml:"fill" json:"fill"`
	} `yaml:"resample" json:"resample"`

	// Output parameters
	Output struct {
		// Progress selects how progress is shown: bar, log or none
		Progress string `yaml:"progress" json:"progress"`

		// LogLevel is a zerolog level name
		LogLevel string `yaml:"logLevel" json:"logLevel"`

		// PreviewMaxSize bounds the longer side of preview images
		PreviewMaxSize int `yaml:"previewMaxSize" json:"previewMaxSize"`
	} `yaml:"output" json:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Fit.Degree = 1

	cfg.Resample.Interpolation = 1

	cfg.Output.Progress = ProgressBar
	cfg.Output.LogLevel = "info"
	cfg.Output.PreviewMaxSize = 512

	return cfg
}

// LoadConfig loads configuration from a YAML file, or from a JSON file with
// comments when the extension is .json or .jsonc.
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// JSON is valid YAML once comments and trailing commas are gone
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Fit.Degree < 1 {
		return fmt.Errorf("fit.degree must be at least 1, got %d", c.Fit.Degree)
	}
	if c.Resample.Interpolation < 0 {
		return fmt.Errorf("resample.interpolation must not be negative, got %d", c.Resample.Interpolation)
	}
	if c.Resample.Width < 0 || c.Resample.Height < 0 {
		return fmt.Errorf("resample.width and resample.height must not be negative")
	}
	switch c.Output.Progress {
	case ProgressBar, ProgressLog, ProgressNone:
	default:
		return fmt.Errorf("output.progress must be %q, %q or %q, got %q",
			ProgressBar, ProgressLog, ProgressNone, c.Output.Progress)
	}
	if c.Output.PreviewMaxSize < 0 {
		return fmt.Errorf("output.previewMaxSize must not be negative")
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
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
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
