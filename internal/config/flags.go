package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Overrides holds command-line values that take priority over the file.
// Zero values leave the file setting alone.
type Overrides struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	JSON       bool
	FPS        int
	Duration   time.Duration
	Loop       bool
	Capacity   int
}

// Bind registers the override flags on fs.
func (o *Overrides) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&o.LogFile, "log-file", "", "Also write logs to this rotating file")
	fs.BoolVar(&o.JSON, "log-json", false, "Emit JSON log lines")
	fs.IntVar(&o.FPS, "fps", 0, "Playback sample rate in frames per second")
	fs.DurationVar(&o.Duration, "duration", 0, "Playback duration (default: clip length)")
	fs.BoolVar(&o.Loop, "loop", false, "Wrap playback time at the clip length")
	fs.IntVar(&o.Capacity, "capacity", 0, "Initial capacity per object store")
}

// apply applies CLI flag overrides to the config.
func (o *Overrides) apply(cfg *Config) {
	if o == nil {
		return
	}
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.JSON {
		cfg.Logging.JSON = true
	}
	if o.FPS > 0 {
		cfg.Playback.FPS = o.FPS
	}
	if o.Duration > 0 {
		cfg.Playback.Duration = o.Duration
	}
	if o.Loop {
		cfg.Playback.Loop = true
	}
	if o.Capacity > 0 {
		cfg.Store.InitialCapacity = o.Capacity
	}
}
