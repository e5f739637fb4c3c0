package main

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-scene/internal/logger"
	"github.com/Faultbox/midgard-scene/pkg/handle"
)

func (a *app) benchCmd() *cobra.Command {
	var (
		frames     int
		mode       string
		profileDir string
	)
	cmd := &cobra.Command{
		Use:   "bench <file.yaml>",
		Short: "Apply every clip for a number of frames and report throughput",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if frames <= 0 {
				return errors.Errorf("--frames must be positive, got %d", frames)
			}

			r, idx, err := a.load(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			clips := make([]handle.Handle, 0, len(idx.Clips))
			lengths := make([]float32, 0, len(idx.Clips))
			for _, name := range slices.Sorted(maps.Keys(idx.Clips)) {
				clips = append(clips, idx.Clips[name])
				lengths = append(lengths, r.ClipLength(idx.Clips[name]))
			}

			switch mode {
			case "":
			case "cpu":
				defer profile.Start(profile.CPUProfile, profile.ProfilePath(profileDir), profile.Quiet).Stop()
			case "mem":
				defer profile.Start(profile.MemProfile, profile.ProfilePath(profileDir), profile.Quiet).Stop()
			default:
				return errors.Errorf("unknown profile mode %q (want cpu or mem)", mode)
			}

			fps := float32(a.cfg.Playback.FPS)
			start := time.Now()
			for i := 0; i < frames; i++ {
				t := float32(i) / fps
				for c, h := range clips {
					ct := t
					if lengths[c] > 0 {
						ct = math32.Mod(t, lengths[c])
					}
					if err := r.Apply(h, ct); err != nil {
						return err
					}
				}
			}
			elapsed := time.Since(start)
			r.ResetAll()

			perSecond := float64(frames) / elapsed.Seconds()
			logger.Log.Info("benchmark finished",
				zap.Int("frames", frames),
				zap.Int("clips", len(clips)),
				zap.Duration("elapsed", elapsed),
				zap.Float64("frames_per_second", perSecond))
			fmt.Fprintf(cmd.OutOrStdout(), "%d frames x %d clips in %s (%.0f frames/s)\n",
				frames, len(clips), elapsed.Round(time.Microsecond), perSecond)
			return nil
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 1000, "Number of frames to simulate")
	cmd.Flags().StringVar(&mode, "profile", "", "Write a cpu or mem profile")
	cmd.Flags().StringVar(&profileDir, "profile-dir", ".", "Directory for profile output")
	return cmd
}
