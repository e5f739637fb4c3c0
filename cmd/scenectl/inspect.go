package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-scene/internal/fixture"
	"github.com/Faultbox/midgard-scene/pkg/handle"
	"github.com/Faultbox/midgard-scene/pkg/math"
	"github.com/Faultbox/midgard-scene/pkg/scene"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.yaml>",
		Short: "Import a scene document and check every cross reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, idx, err := a.load(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			if err := r.Validate(); err != nil {
				errs := multierr.Errors(err)
				for _, e := range errs {
					fmt.Fprintf(out, "  %v\n", e)
				}
				return errors.Errorf("%s: %d problems", args[0], len(errs))
			}
			fmt.Fprintf(out, "%s: ok (%d nodes, %d skins, %d clips, %d channels skipped)\n",
				args[0], r.NodeCount(), r.Skins.Len(), r.Clips.Len(), idx.SkippedChannels)
			return nil
		},
	}
}

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.yaml>",
		Short: "Print the hierarchy, world transforms, skins and clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, idx, err := a.load(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			p := printer{out: cmd.OutOrStdout(), precision: a.cfg.Output.Precision}
			p.scenes(r)
			p.skins(r, idx, a.cfg.Output.ShowJoints)
			p.clips(r, idx)
			return nil
		},
	}
}

type printer struct {
	out       io.Writer
	precision int
}

func (p printer) vec(v math.Vec3) string {
	return fmt.Sprintf("(%.*f, %.*f, %.*f)", p.precision, v.X, p.precision, v.Y, p.precision, v.Z)
}

func nodeName(r *scene.Registry, h handle.Handle) string {
	if m := r.NodeMetadata(h); m != nil && m.Name != "" {
		return m.Name
	}
	return h.String()
}

func (p printer) scenes(r *scene.Registry) {
	for sh, sc := range r.Scenes.All() {
		fmt.Fprintf(p.out, "Scene %s (%d roots)\n", r.Scenes.Metadata(sh).Name, len(sc.Roots))

		type frame struct {
			node  handle.Handle
			depth int
		}
		stack := make([]frame, 0, len(sc.Roots))
		for i := len(sc.Roots) - 1; i >= 0; i-- {
			stack = append(stack, frame{sc.Roots[i], 1})
		}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			n := r.Node(f.node)
			if n == nil {
				continue
			}

			var tags []string
			if !n.Camera.IsZero() {
				tags = append(tags, "camera")
			}
			if !n.Light.IsZero() {
				tags = append(tags, "light")
			}
			if len(n.Instances) > 0 {
				tags = append(tags, fmt.Sprintf("%d instances", len(n.Instances)))
			}
			if !n.Skin.IsZero() {
				tags = append(tags, "skinned")
			}
			suffix := ""
			if len(tags) > 0 {
				suffix = " [" + strings.Join(tags, ", ") + "]"
			}
			fmt.Fprintf(p.out, "%s%s %s%s\n",
				strings.Repeat("  ", f.depth), nodeName(r, f.node), p.vec(n.World.Translation()), suffix)

			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{n.Children[i], f.depth + 1})
			}
		}
	}
}

func (p printer) skins(r *scene.Registry, idx *fixture.Index, showJoints bool) {
	if len(idx.Skins) == 0 {
		return
	}
	fmt.Fprintln(p.out, "\nSkins:")
	for _, name := range slices.Sorted(maps.Keys(idx.Skins)) {
		h := idx.Skins[name]
		s := r.Skins.Get(h)
		fmt.Fprintf(p.out, "  %s: %d joints\n", name, len(s.Joints))
		if !showJoints {
			continue
		}
		for i, j := range s.Joints {
			fmt.Fprintf(p.out, "    %-12s %s\n", nodeName(r, j), p.vec(s.JointMatrices[i].Translation()))
		}
	}
}

func (p printer) clips(r *scene.Registry, idx *fixture.Index) {
	if len(idx.Clips) == 0 {
		return
	}
	fmt.Fprintln(p.out, "\nClips:")
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tLENGTH\tCHANNELS\tROOTS\tSKINS")
	for _, name := range slices.Sorted(maps.Keys(idx.Clips)) {
		h := idx.Clips[name]
		c := r.Clips.Get(h)
		roots := make([]string, len(c.Roots))
		for i, root := range c.Roots {
			roots[i] = nodeName(r, root)
		}
		fmt.Fprintf(w, "  %s\t%.*fs\t%d\t%s\t%d\n",
			name, p.precision, c.Length(), len(c.Channels), strings.Join(roots, ","), len(c.Skins))
	}
	_ = w.Flush()
}
