package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Faultbox/midgard-scene/internal/config"
	"github.com/Faultbox/midgard-scene/internal/fixture"
	"github.com/Faultbox/midgard-scene/pkg/handle"
	"github.com/Faultbox/midgard-scene/pkg/scene"
)

func (a *app) playCmd() *cobra.Command {
	var (
		clips []string
		at    float32
	)
	cmd := &cobra.Command{
		Use:   "play <file.yaml>",
		Short: "Sample clips over time and print what they move",
		Long: `Sample clips over time and print the world position of every node they
animate, plus the morph weights of instances they drive. Without --time the
clip is sampled at the configured frame rate for the configured duration
(default: the clip length). Each clip is reset after playback.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, idx, err := a.load(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			names, err := selectClips(idx, clips, a.cfg.Playback.Clips)
			if err != nil {
				return err
			}

			p := printer{out: cmd.OutOrStdout(), precision: a.cfg.Output.Precision}
			for _, name := range names {
				h := idx.Clips[name]
				length := r.ClipLength(h)
				fmt.Fprintf(p.out, "%s (%.*fs)\n", name, p.precision, length)

				times := timeline(length, a.cfg.Playback)
				if cmd.Flags().Changed("time") {
					times = []float32{at}
				}
				for _, t := range times {
					if err := r.Apply(h, t); err != nil {
						return errors.Wrapf(err, "clip %s at %g", name, t)
					}
					p.frame(r, h, t)
				}
				if err := r.Reset(h); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&clips, "clip", nil, "Clip to play (repeatable; default: configured clips, else all)")
	cmd.Flags().Float32Var(&at, "time", 0, "Sample a single time in seconds")
	return cmd
}

// selectClips resolves clip names: explicit flags first, then the configured
// list, then every clip in name order.
func selectClips(idx *fixture.Index, flagged, configured []string) ([]string, error) {
	names := flagged
	if len(names) == 0 {
		names = configured
	}
	if len(names) == 0 {
		return slices.Sorted(maps.Keys(idx.Clips)), nil
	}
	for _, n := range names {
		if _, ok := idx.Clips[n]; !ok {
			return nil, errors.Errorf("unknown clip %q", n)
		}
	}
	return names, nil
}

// timeline returns the sample times for a clip of the given length. With
// looping enabled, times past the clip length wrap around.
func timeline(length float32, pb config.PlaybackConfig) []float32 {
	duration := float32(pb.Duration.Seconds())
	if duration <= 0 {
		duration = max(length, 0)
	}
	fps := float32(pb.FPS)
	if fps <= 0 {
		fps = 1
	}

	n := int(math32.Floor(duration*fps+1e-4)) + 1
	times := make([]float32, n)
	for i := range times {
		t := float32(i) / fps
		if pb.Loop && length > 0 && t > length {
			t = math32.Mod(t, length)
		}
		times[i] = t
	}
	return times
}

func (p printer) frame(r *scene.Registry, clipH handle.Handle, t float32) {
	clip := r.Clips.Get(clipH)
	var parts []string
	for _, target := range clip.Targets(false) {
		n := r.Node(target)
		if n == nil {
			continue
		}
		parts = append(parts, nodeName(r, target)+"="+p.vec(n.World.Translation()))
		for _, ih := range n.Instances {
			if inst := r.Instances.Get(ih); inst != nil && len(inst.Weights) > 0 {
				parts = append(parts, fmt.Sprintf("%s.weights=%v", nodeName(r, target), inst.Weights))
			}
		}
	}
	fmt.Fprintf(p.out, "  t=%.*f %s\n", p.precision, t, strings.Join(parts, " "))
}
