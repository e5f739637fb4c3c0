// scenectl loads YAML scene descriptions into a scene registry and lets you
// validate, inspect, play and benchmark them from the command line.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-scene/internal/config"
	"github.com/Faultbox/midgard-scene/internal/fixture"
	"github.com/Faultbox/midgard-scene/internal/logger"
	"github.com/Faultbox/midgard-scene/pkg/scene"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	overrides config.Overrides
	cfg       *config.Config
	logOut    io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{logOut: os.Stderr}
	root := &cobra.Command{
		Use:           "scenectl",
		Short:         "Validate, inspect and play scene descriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync()
		},
	}
	a.overrides.Bind(root.PersistentFlags())

	root.AddCommand(
		a.validateCmd(),
		a.inspectCmd(),
		a.playCmd(),
		a.benchCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(&a.overrides)
	if err != nil {
		return err
	}
	a.cfg = cfg

	opts := logger.Options{
		Level:   cfg.Logging.Level,
		JSON:    cfg.Logging.JSON,
		Console: a.logOut,
	}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.Init(opts); err != nil {
		return err
	}
	logger.Log.Debug("configuration loaded",
		zap.String("level", cfg.Logging.Level),
		zap.Int("fps", cfg.Playback.FPS),
		zap.Int("capacity", cfg.Store.InitialCapacity))
	return nil
}

// load imports a scene document into a fresh registry. The caller closes the
// registry.
func (a *app) load(path string) (*scene.Registry, *fixture.Index, error) {
	r := scene.NewRegistry(scene.Config{
		Capacity: a.cfg.Store.InitialCapacity,
		Logger:   logger.Log,
	})
	idx, err := fixture.Load(r, path, logger.Log)
	if err != nil {
		r.Close()
		return nil, nil, err
	}
	return r, idx, nil
}
