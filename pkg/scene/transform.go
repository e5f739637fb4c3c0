package scene

import (
	"github.com/Faultbox/midgard-scene/pkg/handle"
	"github.com/Faultbox/midgard-scene/pkg/math"
)

// Canonical view-space basis used to place cameras and lights.
var (
	viewOrigin  = math.Vec3{}
	viewForward = math.Vec3{Z: -1}
	viewUp      = math.Vec3{Y: 1}
	lightAxis   = math.Vec3{Z: 1}
)

// RecomputeWorldTransforms walks the subtrees under start in pre-order and
// writes world = parentWorld * local for every node, using a node's
// animated overlay when it has one. Attached cameras, lights and instances
// are updated from the new world transform.
func (r *Registry) RecomputeWorldTransforms(start []handle.Handle, parentWorld math.Mat4) {
	r.propagate(start, parentWorld, true)
}

// RecomputeAll recomputes every scene from its roots.
func (r *Registry) RecomputeAll() {
	for _, sc := range r.Scenes.All() {
		r.propagate(sc.Roots, math.Identity(), true)
	}
}

type propagateFrame struct {
	node   handle.Handle
	parent math.Mat4
}

func (r *Registry) propagate(start []handle.Handle, parentWorld math.Mat4, useOverlay bool) {
	stack := make([]propagateFrame, 0, len(start))
	for i := len(start) - 1; i >= 0; i-- {
		stack = append(stack, propagateFrame{node: start[i], parent: parentWorld})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := r.nodes.Get(f.node)
		if n == nil {
			continue
		}

		local := n.Local.Matrix()
		if useOverlay {
			if a := r.overlay(f.node); a != nil {
				local = a.Matrix()
			}
		}
		world := f.parent.Mul(local)
		n.World = world
		r.updateAttachments(n, world)

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, propagateFrame{node: n.Children[i], parent: world})
		}
	}
}

// parentWorld returns the current world transform of h's parent, or
// identity for a top-level node.
func (r *Registry) parentWorld(h handle.Handle) math.Mat4 {
	n := r.nodes.Get(h)
	if n == nil {
		return math.Identity()
	}
	if p := r.nodes.Get(n.Parent); p != nil {
		return p.World
	}
	return math.Identity()
}

func (r *Registry) updateAttachments(n *Node, world math.Mat4) {
	if c := r.Cameras.Get(n.Camera); c != nil {
		c.Eye = world.TransformPoint(viewOrigin)
		c.Center = world.TransformPoint(viewForward)
		c.Up = world.TransformPoint(viewUp).Sub(c.Eye).Normalize()
	}
	if l := r.Lights.Get(n.Light); l != nil {
		l.Position = world.TransformPoint(viewOrigin)
		l.Direction = world.TransformPoint(lightAxis).Sub(l.Position).Normalize()
	}
	for _, ih := range n.Instances {
		if inst := r.Instances.Get(ih); inst != nil {
			inst.Transform = world
		}
	}
}
