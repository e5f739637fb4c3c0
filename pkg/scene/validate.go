package scene

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-scene/pkg/handle"
	"github.com/Faultbox/midgard-scene/pkg/store"
)

func invalid(format string, args ...any) error {
	return errors.Wrapf(store.ErrInvalidParameter, format, args...)
}

// Validate checks cross-object references and reports every problem found:
// parent/child links that disagree, nodes unreachable from any scene or
// reached twice, skin joints outside the hierarchy, clip channels with dead
// targets or bad keyframes, and instances pointing at missing meshes.
func (r *Registry) Validate() error {
	var errs error

	reached := make(map[handle.Handle]int, r.nodes.Len())
	for sh, sc := range r.Scenes.All() {
		stack := append([]handle.Handle(nil), sc.Roots...)
		for len(stack) > 0 {
			h := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			n := r.nodes.Get(h)
			if n == nil {
				errs = multierr.Append(errs, invalid("scene %s: dangling node %s", sh, h))
				continue
			}
			reached[h]++
			if reached[h] > 1 {
				errs = multierr.Append(errs, invalid("node %s reached more than once", h))
				continue
			}
			for _, c := range n.Children {
				if cn := r.nodes.Get(c); cn != nil && cn.Parent != h {
					errs = multierr.Append(errs, invalid("node %s lists child %s whose parent is %s", h, c, cn.Parent))
				}
			}
			stack = append(stack, n.Children...)
		}
	}

	for h, n := range r.nodes.All() {
		if reached[h] == 0 {
			errs = multierr.Append(errs, invalid("node %s is not reachable from any scene", h))
		}
		if !n.Parent.IsZero() && !r.nodes.Has(n.Parent) {
			errs = multierr.Append(errs, invalid("node %s has dangling parent %s", h, n.Parent))
		}
	}

	for sh, s := range r.Skins.All() {
		if len(s.InverseBind) != len(s.Joints) {
			errs = multierr.Append(errs, invalid("skin %s: %d inverse binds for %d joints",
				sh, len(s.InverseBind), len(s.Joints)))
		}
		for i, j := range s.Joints {
			if reached[j] == 0 {
				errs = multierr.Append(errs, invalid("skin %s: joint %d (%s) is outside the hierarchy", sh, i, j))
			}
		}
	}

	for ch, clip := range r.Clips.All() {
		for i := range clip.Channels {
			c := &clip.Channels[i]
			if !r.nodes.Has(c.Target) {
				errs = multierr.Append(errs, invalid("clip %s: channel %d targets missing node %s", ch, i, c.Target))
			}
			if err := c.Validate(); err != nil {
				errs = multierr.Append(errs, errors.Wrapf(store.ErrInvalidParameter, "clip %s: channel %d: %v", ch, i, err))
			}
		}
	}

	for ih, inst := range r.Instances.All() {
		if !inst.Mesh.IsZero() && !r.Meshes.Has(inst.Mesh) {
			errs = multierr.Append(errs, invalid("instance %s: mesh %s does not exist", ih, inst.Mesh))
		}
	}

	return errs
}
