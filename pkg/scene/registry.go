// Package scene implements the scene object registry, the node hierarchy and
// its world-transform propagation, and skeletal/morph animation playback.
//
// A Registry is an explicit value owned by the host; independent registries
// never share state. Nothing in this package is safe for concurrent use.
package scene

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-scene/pkg/anim"
	"github.com/Faultbox/midgard-scene/pkg/handle"
	"github.com/Faultbox/midgard-scene/pkg/math"
	"github.com/Faultbox/midgard-scene/pkg/slot"
	"github.com/Faultbox/midgard-scene/pkg/store"
)

// Config configures a Registry.
type Config struct {
	Capacity int         // initial capacity per kind
	Logger   *zap.Logger // nil disables logging
}

// Registry owns one store per object kind plus the node hierarchy.
type Registry struct {
	Meshes    *store.Store[Mesh]
	Materials *store.Store[Material]
	Images    *store.Store[Image]
	Instances *store.Store[Instance]
	Cameras   *store.Store[Camera]
	Lights    *store.Store[Light]
	Skins     *store.Store[Skin]
	Clips     *store.Store[anim.Clip]
	Scenes    *store.Store[Scene]

	// Nodes are only created by BuildGraph and destroyed by TeardownGraph.
	nodes *store.Store[Node]

	// Overlays keyed by node slot.
	overlays slot.Array[AnimatedNode]

	log *zap.Logger
}

func newStore[T any](kind Kind, cfg Config, log *zap.Logger) *store.Store[T] {
	return store.New[T](store.Config{Name: kind.String(), Capacity: cfg.Capacity, Logger: log})
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) *Registry {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("scene")

	r := &Registry{
		Meshes:    newStore[Mesh](KindMesh, cfg, log),
		Materials: newStore[Material](KindMaterial, cfg, log),
		Images:    newStore[Image](KindImage, cfg, log),
		Instances: newStore[Instance](KindInstance, cfg, log),
		Cameras:   newStore[Camera](KindCamera, cfg, log),
		Lights:    newStore[Light](KindLight, cfg, log),
		Skins:     newStore[Skin](KindSkin, cfg, log),
		Clips:     newStore[anim.Clip](KindClip, cfg, log),
		Scenes:    newStore[Scene](KindScene, cfg, log),
		nodes:     newStore[Node](KindNode, cfg, log),
		log:       log,
	}

	r.Clips.OnDestroy(r.releaseClip)
	r.Skins.OnDestroy(r.releaseSkin)
	r.nodes.OnDestroy(r.releaseNode)
	return r
}

// Node returns the node for h, or nil. The returned node must be treated as
// read-only.
func (r *Registry) Node(h handle.Handle) *Node {
	return r.nodes.Get(h)
}

// HasNode reports whether h is a live node.
func (r *Registry) HasNode(h handle.Handle) bool {
	return r.nodes.Has(h)
}

// NodeCount returns the number of live nodes.
func (r *Registry) NodeCount() int {
	return r.nodes.Len()
}

// NodeAt returns the node handle at dense position i.
func (r *Registry) NodeAt(i int) handle.Handle {
	return r.nodes.HandleAt(i)
}

// NodeMetadata returns the node's metadata, or nil.
func (r *Registry) NodeMetadata(h handle.Handle) *store.Metadata {
	return r.nodes.Metadata(h)
}

// FindNode returns the first node with the given display name.
func (r *Registry) FindNode(name string) handle.Handle {
	return r.nodes.FindByName(name)
}

// WorldTransform returns the current world transform of a node.
func (r *Registry) WorldTransform(h handle.Handle) (math.Mat4, bool) {
	n := r.nodes.Get(h)
	if n == nil {
		return math.Identity(), false
	}
	return n.World, true
}

// Overlay returns the animated transform of a node, if it has one.
func (r *Registry) Overlay(h handle.Handle) (AnimatedNode, bool) {
	if a := r.overlay(h); a != nil {
		return *a, true
	}
	return AnimatedNode{}, false
}

func (r *Registry) overlay(h handle.Handle) *AnimatedNode {
	a, ok := r.overlays.At(h.Slot())
	if !ok || a.Node != h {
		return nil
	}
	return a
}

// releaseClip drops the overlays only this clip kept alive.
func (r *Registry) releaseClip(_ handle.Handle, clip *anim.Clip) {
	for _, target := range clip.Targets(true) {
		a := r.overlay(target)
		if a == nil {
			continue
		}
		a.refs--
		if a.refs <= 0 {
			r.overlays.Erase(target.Slot())
		}
	}
}

// releaseSkin removes the skin from every clip's dependent set.
func (r *Registry) releaseSkin(h handle.Handle, _ *Skin) {
	for _, clip := range r.Clips.All() {
		clip.Skins = removeHandle(clip.Skins, h)
	}
}

// releaseNode drops the node's overlay and detaches its instances.
func (r *Registry) releaseNode(h handle.Handle, n *Node) {
	if r.overlay(h) != nil {
		r.overlays.Erase(h.Slot())
	}
	if n == nil {
		return
	}
	for _, ih := range n.Instances {
		if inst := r.Instances.Get(ih); inst != nil && inst.Node == h {
			inst.Node = handle.Nil
		}
	}
}

// TeardownGraph destroys every node, children before parents, and then the
// scenes that held them.
func (r *Registry) TeardownGraph() {
	for _, sh := range r.Scenes.Handles() {
		sc := r.Scenes.Get(sh)
		for _, h := range r.postOrder(sc.Roots) {
			if err := r.nodes.Destroy(h); err != nil {
				r.log.Warn("teardown: node already gone", zap.Stringer("node", h), zap.Error(err))
			}
		}
		sc.Roots = nil
	}

	if n := r.nodes.Len(); n > 0 {
		r.log.Warn("teardown: destroying nodes unreachable from any scene", zap.Int("count", n))
		r.nodes.Clear()
	}
	r.Scenes.Clear()
}

// Close tears down the graph, destroys every object and reports leaks.
func (r *Registry) Close() {
	r.TeardownGraph()

	r.Clips.Clear()
	r.Skins.Clear()
	r.Instances.Clear()
	r.Cameras.Clear()
	r.Lights.Clear()
	r.Meshes.Clear()
	r.Materials.Clear()
	r.Images.Clear()

	r.Clips.Release()
	r.Skins.Release()
	r.Instances.Release()
	r.Cameras.Release()
	r.Lights.Release()
	r.Meshes.Release()
	r.Materials.Release()
	r.Images.Release()
	r.Scenes.Release()
	r.nodes.Release()
	r.overlays.Release(r.log, "overlays")
}

// postOrder lists the subtrees under roots with every child before its
// parent.
func (r *Registry) postOrder(roots []handle.Handle) []handle.Handle {
	var pre []handle.Handle
	stack := append([]handle.Handle(nil), roots...)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := r.nodes.Get(h)
		if n == nil {
			continue
		}
		pre = append(pre, h)
		stack = append(stack, n.Children...)
	}

	// Reversing a parent-first order yields a child-first one.
	for i, j := 0, len(pre)-1; i < j; i, j = i+1, j-1 {
		pre[i], pre[j] = pre[j], pre[i]
	}
	return pre
}

func removeHandle(list []handle.Handle, h handle.Handle) []handle.Handle {
	out := list[:0]
	for _, x := range list {
		if x != h {
			out = append(out, x)
		}
	}
	return out
}
