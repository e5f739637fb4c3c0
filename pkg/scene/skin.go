package scene

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-scene/pkg/handle"
	"github.com/Faultbox/midgard-scene/pkg/math"
	"github.com/Faultbox/midgard-scene/pkg/store"
)

// AddSkin creates a skin over existing joint nodes. A nil inverseBind means
// every inverse bind matrix is identity. Clips already registered pick the
// skin up as a dependent when it shares their animated subtrees.
func (r *Registry) AddSkin(name string, joints []handle.Handle, inverseBind []math.Mat4) (handle.Handle, error) {
	if len(joints) == 0 {
		return handle.Nil, errors.Wrapf(store.ErrInvalidParameter, "skin %q: no joints", name)
	}
	if inverseBind != nil && len(inverseBind) != len(joints) {
		return handle.Nil, errors.Wrapf(store.ErrInvalidParameter,
			"skin %q: %d inverse bind matrices for %d joints", name, len(inverseBind), len(joints))
	}
	for i, j := range joints {
		if !r.nodes.Has(j) {
			return handle.Nil, errors.Wrapf(store.ErrInvalidOperation, "skin %q: joint %d (%s) is not a node", name, i, j)
		}
	}

	h := r.Skins.Create()
	_ = r.Skins.SetName(h, name)

	s := r.Skins.Get(h)
	s.Joints = append([]handle.Handle(nil), joints...)
	s.InverseBind = make([]math.Mat4, len(joints))
	for i := range s.InverseBind {
		if inverseBind != nil {
			s.InverseBind[i] = inverseBind[i]
		} else {
			s.InverseBind[i] = math.Identity()
		}
	}
	s.JointMatrices = make([]math.Mat4, len(joints))
	r.updateSkin(s)

	for _, clip := range r.Clips.All() {
		r.linkSkins(clip)
	}
	return h, nil
}

// AttachSkin records skinH as the skin of node h. Instances on the node
// that have no skin yet inherit it.
func (r *Registry) AttachSkin(h, skinH handle.Handle) error {
	n := r.nodes.Get(h)
	if n == nil {
		return errors.Wrapf(store.ErrInvalidOperation, "attach skin: node %s does not exist", h)
	}
	if !r.Skins.Has(skinH) {
		return errors.Wrapf(store.ErrInvalidOperation, "attach skin: skin %s does not exist", skinH)
	}
	n.Skin = skinH
	for _, ih := range n.Instances {
		if inst := r.Instances.Get(ih); inst != nil && inst.Skin.IsZero() {
			inst.Skin = skinH
		}
	}
	return nil
}

// UpdateSkin recomputes the joint matrices of a skin from the current world
// transforms.
func (r *Registry) UpdateSkin(h handle.Handle) error {
	s := r.Skins.Get(h)
	if s == nil {
		return errors.Wrapf(store.ErrInvalidOperation, "update skin %s: no such skin", h)
	}
	r.updateSkin(s)
	return nil
}

func (r *Registry) updateSkin(s *Skin) {
	if len(s.InverseBind) != len(s.Joints) {
		r.log.DPanic("skin inverse bind count does not match its joints",
			zap.Int("joints", len(s.Joints)),
			zap.Int("inverseBind", len(s.InverseBind)))
		s.InverseBind = fitInverseBind(s.InverseBind, len(s.Joints))
	}
	if len(s.JointMatrices) != len(s.Joints) {
		s.JointMatrices = make([]math.Mat4, len(s.Joints))
	}
	for i, j := range s.Joints {
		world := math.Identity()
		if n := r.nodes.Get(j); n != nil {
			world = n.World
		}
		s.JointMatrices[i] = world.Mul(s.InverseBind[i])
	}
}

// BindPose makes the current pose the bind pose of skin h: each inverse
// bind matrix becomes the inverse of its joint's world transform, so the
// joint matrices are identity until the joints move. A joint with a
// singular world transform keeps its previous inverse bind.
func (r *Registry) BindPose(h handle.Handle) error {
	s := r.Skins.Get(h)
	if s == nil {
		return errors.Wrapf(store.ErrInvalidOperation, "bind pose %s: no such skin", h)
	}
	if len(s.InverseBind) != len(s.Joints) {
		s.InverseBind = fitInverseBind(s.InverseBind, len(s.Joints))
	}
	var errs error
	for i, j := range s.Joints {
		n := r.nodes.Get(j)
		if n == nil {
			continue
		}
		inv, ok := n.World.InverseAffine()
		if !ok {
			errs = multierr.Append(errs, errors.Wrapf(store.ErrInvalidParameter,
				"bind pose %s: joint %d (%s) has a singular world transform", h, i, j))
			continue
		}
		s.InverseBind[i] = inv
	}
	r.updateSkin(s)
	return errs
}

// fitInverseBind resizes ib to n entries; new entries are identity.
func fitInverseBind(ib []math.Mat4, n int) []math.Mat4 {
	out := make([]math.Mat4, n)
	copied := copy(out, ib)
	for i := copied; i < n; i++ {
		out[i] = math.Identity()
	}
	return out
}

// JointMatrices returns the current joint matrices of a skin.
func (r *Registry) JointMatrices(h handle.Handle) []math.Mat4 {
	if s := r.Skins.Get(h); s != nil {
		return s.JointMatrices
	}
	return nil
}
