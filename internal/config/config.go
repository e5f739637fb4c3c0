// Package config handles scenectl configuration loading and management.
package config

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Config holds all scenectl settings.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Store    StoreConfig    `yaml:"store"`
	Playback PlaybackConfig `yaml:"playback"`
	Output   OutputConfig   `yaml:"output"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// StoreConfig sizes the object stores of a new registry.
type StoreConfig struct {
	InitialCapacity int `yaml:"initial_capacity"`
}

// PlaybackConfig drives `scenectl play` and `scenectl bench`.
type PlaybackConfig struct {
	FPS      int           `yaml:"fps"`
	Duration time.Duration `yaml:"duration"` // 0 means the clip's own length
	Loop     bool          `yaml:"loop"`
	Clips    []string      `yaml:"clips"` // empty means every clip
}

// OutputConfig controls how inspection results are printed.
type OutputConfig struct {
	Precision  int  `yaml:"precision"`
	ShowJoints bool `yaml:"show_joints"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Store: StoreConfig{
			InitialCapacity: 64,
		},
		Playback: PlaybackConfig{
			FPS:  30,
			Loop: false,
		},
		Output: OutputConfig{
			Precision:  3,
			ShowJoints: false,
		},
	}
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var errs error
	if c.Store.InitialCapacity < 0 {
		errs = multierr.Append(errs, errors.Errorf("store.initial_capacity must be >= 0, got %d", c.Store.InitialCapacity))
	}
	if c.Playback.FPS <= 0 {
		errs = multierr.Append(errs, errors.Errorf("playback.fps must be > 0, got %d", c.Playback.FPS))
	}
	if c.Playback.Duration < 0 {
		errs = multierr.Append(errs, errors.Errorf("playback.duration must be >= 0, got %s", c.Playback.Duration))
	}
	if c.Output.Precision < 0 || c.Output.Precision > 9 {
		errs = multierr.Append(errs, errors.Errorf("output.precision must be in [0, 9], got %d", c.Output.Precision))
	}
	return errs
}
