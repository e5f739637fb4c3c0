package scene

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-scene/pkg/anim"
	"github.com/Faultbox/midgard-scene/pkg/handle"
	"github.com/Faultbox/midgard-scene/pkg/store"
)

// AddClip registers an animation clip. Channels that are malformed or target
// something other than a live node are skipped; the number skipped is
// returned. Transform targets get an overlay, and the clip's root nodes and
// dependent skins are derived here.
func (r *Registry) AddClip(name string, channels []anim.Channel) (handle.Handle, int) {
	kept := make([]anim.Channel, 0, len(channels))
	skipped := 0
	for i := range channels {
		ch := channels[i]
		if err := ch.Validate(); err != nil {
			r.log.Debug("skipping malformed channel",
				zap.String("clip", name), zap.Int("channel", i), zap.Error(err))
			skipped++
			continue
		}
		if !r.nodes.Has(ch.Target) {
			r.log.Debug("skipping channel with unknown target",
				zap.String("clip", name), zap.Int("channel", i), zap.Stringer("target", ch.Target))
			skipped++
			continue
		}
		kept = append(kept, ch)
	}

	h := r.Clips.Create()
	_ = r.Clips.SetName(h, name)
	clip := r.Clips.Get(h)
	clip.Channels = kept

	for _, target := range clip.Targets(true) {
		if a := r.overlay(target); a != nil {
			a.refs++
			continue
		}
		a := r.overlays.Insert(target.Slot())
		a.Node = target
		a.restore(r.nodes.Get(target).Local)
		a.refs = 1
	}

	clip.Roots = r.clipRoots(clip)
	r.linkSkins(clip)

	r.log.Debug("added clip",
		zap.String("clip", name),
		zap.Int("channels", len(kept)),
		zap.Int("roots", len(clip.Roots)),
		zap.Int("skins", len(clip.Skins)))
	return h, skipped
}

// clipRoots returns the transform targets with no animated ancestor in the
// same clip.
func (r *Registry) clipRoots(clip *anim.Clip) []handle.Handle {
	targets := clip.Targets(true)
	animated := make(map[handle.Handle]struct{}, len(targets))
	for _, t := range targets {
		animated[t] = struct{}{}
	}

	var roots []handle.Handle
	for _, t := range targets {
		isRoot := true
		for p := r.nodes.Get(t).Parent; !p.IsZero(); {
			if _, ok := animated[p]; ok {
				isRoot = false
				break
			}
			pn := r.nodes.Get(p)
			if pn == nil {
				break
			}
			p = pn.Parent
		}
		if isRoot {
			roots = append(roots, t)
		}
	}
	return roots
}

// linkSkins recomputes the set of skins with a joint inside one of the
// clip's animated subtrees.
func (r *Registry) linkSkins(clip *anim.Clip) {
	affected := make(map[handle.Handle]struct{})
	for _, h := range r.postOrder(clip.Roots) {
		affected[h] = struct{}{}
	}

	clip.Skins = clip.Skins[:0]
	for sh, s := range r.Skins.All() {
		for _, j := range s.Joints {
			if _, ok := affected[j]; ok {
				clip.Skins = append(clip.Skins, sh)
				break
			}
		}
	}
}

// Apply samples every channel of a clip at time t, updates overlays and
// instance morph weights, repropagates the animated subtrees and refreshes
// dependent skins. When two clips drive the same node, the later Apply wins.
func (r *Registry) Apply(clipH handle.Handle, t float32) error {
	if clipH.IsZero() {
		return errors.Wrap(store.ErrInvalidParameter, "apply: nil clip")
	}
	clip := r.Clips.Get(clipH)
	if clip == nil {
		return errors.Wrapf(store.ErrInvalidOperation, "apply: clip %s does not exist", clipH)
	}
	if math32.IsNaN(t) {
		return errors.Wrap(store.ErrInvalidParameter, "apply: time is NaN")
	}

	for i := range clip.Channels {
		ch := &clip.Channels[i]
		switch ch.Property {
		case anim.Translation:
			if a := r.overlay(ch.Target); a != nil {
				a.Translation = ch.SampleVec3(t)
			}
		case anim.Rotation:
			if a := r.overlay(ch.Target); a != nil {
				a.Rotation = ch.SampleQuat(t)
			}
		case anim.Scale:
			if a := r.overlay(ch.Target); a != nil {
				a.Scale = ch.SampleVec3(t)
			}
		case anim.Weights:
			n := r.nodes.Get(ch.Target)
			if n == nil {
				continue
			}
			for _, ih := range n.Instances {
				if inst := r.Instances.Get(ih); inst != nil {
					inst.Weights = ch.SampleWeights(t, inst.Weights)
				}
			}
		}
	}

	for _, root := range clip.Roots {
		r.propagate([]handle.Handle{root}, r.parentWorld(root), true)
	}
	for _, sh := range clip.Skins {
		if s := r.Skins.Get(sh); s != nil {
			r.updateSkin(s)
		}
	}

	if ce := r.log.Check(zap.DebugLevel, "applied clip"); ce != nil {
		ce.Write(zap.Stringer("clip", clipH), zap.Float32("time", t))
	}
	return nil
}

// Reset restores the nodes a clip animates to their default local
// transforms, repropagates from the clip's roots ignoring overlays, and
// restores morph weights to their defaults.
func (r *Registry) Reset(clipH handle.Handle) error {
	if clipH.IsZero() {
		return errors.Wrap(store.ErrInvalidParameter, "reset: nil clip")
	}
	clip := r.Clips.Get(clipH)
	if clip == nil {
		return errors.Wrapf(store.ErrInvalidOperation, "reset: clip %s does not exist", clipH)
	}

	for i := range clip.Channels {
		ch := &clip.Channels[i]
		n := r.nodes.Get(ch.Target)
		if n == nil {
			continue
		}
		if ch.Property != anim.Weights {
			if a := r.overlay(ch.Target); a != nil {
				a.restore(n.Local)
			}
			continue
		}
		for _, ih := range n.Instances {
			inst := r.Instances.Get(ih)
			if inst == nil {
				continue
			}
			defaults := r.defaultWeights(n, inst, ch.Stride())
			inst.Weights = append(inst.Weights[:0], defaults...)
		}
	}

	for _, root := range clip.Roots {
		r.propagate([]handle.Handle{root}, r.parentWorld(root), false)
	}
	for _, sh := range clip.Skins {
		if s := r.Skins.Get(sh); s != nil {
			r.updateSkin(s)
		}
	}
	return nil
}

// ResetAll resets every registered clip.
func (r *Registry) ResetAll() {
	for _, h := range r.Clips.Handles() {
		if err := r.Reset(h); err != nil {
			r.log.DPanic("reset of live clip failed", zap.Stringer("clip", h), zap.Error(err))
		}
	}
}

// ClipLength returns the duration of a clip, or 0 if it does not exist.
func (r *Registry) ClipLength(clipH handle.Handle) float32 {
	if clip := r.Clips.Get(clipH); clip != nil {
		return clip.Length()
	}
	return 0
}
