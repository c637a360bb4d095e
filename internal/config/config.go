// Package config loads viewer configuration from a YAML file and supplies
// defaults for every tunable the review session uses.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration loaded from YAML.
type Config struct {
	Display struct {
		// WindowWidth and WindowCenter are the default CT window/level
		// in Hounsfield units (soft-tissue window).
		WindowWidth  float64 `yaml:"windowWidth"`
		WindowCenter float64 `yaml:"windowCenter"`

		// DefaultZoom is the zoom factor applied at load and on reset.
		DefaultZoom float64 `yaml:"defaultZoom"`

		// ZoomStep is the multiplier applied per zoom-in step.
		ZoomStep float64 `yaml:"zoomStep"`

		MinZoom float64 `yaml:"minZoom"`
		MaxZoom float64 `yaml:"maxZoom"`
	} `yaml:"display"`

	Matching struct {
		// SliceTolerance is the maximum z-distance in mm between a
		// displayed slice and a stored contour for the contour to be
		// considered applicable to that slice.
		SliceTolerance float64 `yaml:"sliceTolerance"`
	} `yaml:"matching"`

	Review struct {
		// ServerURL is the base URL of the review server that receives
		// submitted ratings.
		ServerURL string `yaml:"serverURL"`

		// SubmitTimeout bounds a single feedback submission.
		SubmitTimeout time.Duration `yaml:"submitTimeout"`
	} `yaml:"review"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Display.WindowWidth = 400
	cfg.Display.WindowCenter = 40
	cfg.Display.DefaultZoom = 1.4
	cfg.Display.ZoomStep = 1.25
	cfg.Display.MinZoom = 0.1
	cfg.Display.MaxZoom = 5.0

	cfg.Matching.SliceTolerance = 2.5

	cfg.Review.ServerURL = "http://localhost:8000"
	cfg.Review.SubmitTimeout = 20 * time.Second

	cfg.Logging.Level = "info"

	return cfg
}

// LoadConfig loads configuration from a YAML file. If the file doesn't
// exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Display.WindowWidth <= 0 {
		return fmt.Errorf("display.windowWidth must be positive, got %v", c.Display.WindowWidth)
	}
	if c.Display.MinZoom <= 0 || c.Display.MaxZoom <= c.Display.MinZoom {
		return fmt.Errorf("invalid zoom bounds [%v, %v]", c.Display.MinZoom, c.Display.MaxZoom)
	}
	if c.Display.ZoomStep <= 1 {
		return fmt.Errorf("display.zoomStep must be > 1, got %v", c.Display.ZoomStep)
	}
	if c.Matching.SliceTolerance <= 0 {
		return fmt.Errorf("matching.sliceTolerance must be positive, got %v", c.Matching.SliceTolerance)
	}
	if c.Review.SubmitTimeout <= 0 {
		return fmt.Errorf("review.submitTimeout must be positive, got %v", c.Review.SubmitTimeout)
	}
	return nil
}
