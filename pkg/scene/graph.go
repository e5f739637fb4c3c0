package scene

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-scene/pkg/handle"
	"github.com/Faultbox/midgard-scene/pkg/math"
	"github.com/Faultbox/midgard-scene/pkg/store"
)

// NodeSpec describes one node handed over by an importer. Children index
// into the same spec slice.
type NodeSpec struct {
	Name      string
	AssetPath string
	Local     Transform
	Children  []int
	Camera    handle.Handle
	Light     handle.Handle
	Instances []handle.Handle
	Skin      handle.Handle
	Weights   []float32
}

// GraphError describes one problem found in imported hierarchy data.
type GraphError struct {
	Node   int // spec index, or -1
	Name   string
	Reason string
}

func (e *GraphError) Error() string {
	if e.Node < 0 {
		return "scene graph: " + e.Reason
	}
	if e.Name != "" {
		return fmt.Sprintf("scene graph: node %d (%s): %s", e.Node, e.Name, e.Reason)
	}
	return fmt.Sprintf("scene graph: node %d: %s", e.Node, e.Reason)
}

// Unwrap classifies graph errors as invalid parameters.
func (e *GraphError) Unwrap() error {
	return store.ErrInvalidParameter
}

func graphErr(specs []NodeSpec, i int, format string, args ...any) error {
	e := &GraphError{Node: i, Reason: fmt.Sprintf(format, args...)}
	if i >= 0 && i < len(specs) {
		e.Name = specs[i].Name
	}
	return e
}

// checkSpecs validates imported hierarchy data before anything is created:
// indices in range, at most one parent per node, roots without parents,
// every node reachable from a root (which rules out cycles), and live
// attachments.
func (r *Registry) checkSpecs(specs []NodeSpec, roots []int) error {
	var errs error
	n := len(specs)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}
	owner := make(map[handle.Handle]int)

	for i := range specs {
		for _, c := range specs[i].Children {
			switch {
			case c < 0 || c >= n:
				errs = multierr.Append(errs, graphErr(specs, i, "child index %d out of range", c))
			case c == i:
				errs = multierr.Append(errs, graphErr(specs, i, "node is its own child"))
			case parent[c] >= 0:
				errs = multierr.Append(errs, graphErr(specs, c, "multiple parents (%d and %d)", parent[c], i))
			default:
				parent[c] = i
			}
		}
		errs = multierr.Append(errs, r.checkAttachments(specs, i, owner))
	}

	seen := make([]bool, n)
	isRoot := make([]bool, n)
	var stack []int
	for _, root := range roots {
		if root < 0 || root >= n {
			errs = multierr.Append(errs, graphErr(specs, -1, "root index %d out of range", root))
			continue
		}
		if isRoot[root] {
			errs = multierr.Append(errs, graphErr(specs, root, "listed as root twice"))
			continue
		}
		isRoot[root] = true
		if parent[root] >= 0 {
			errs = multierr.Append(errs, graphErr(specs, root, "root has parent %d", parent[root]))
			continue
		}
		stack = append(stack, root)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[i] {
			continue
		}
		seen[i] = true
		for _, c := range specs[i].Children {
			if c >= 0 && c < n && parent[c] == i {
				stack = append(stack, c)
			}
		}
	}
	for i := range specs {
		if seen[i] {
			continue
		}
		if parent[i] < 0 {
			errs = multierr.Append(errs, graphErr(specs, i, "not reachable from any root"))
		} else {
			errs = multierr.Append(errs, graphErr(specs, i, "part of a parent cycle"))
		}
	}
	return errs
}

// checkAttachments checks that node i's attachments exist and that each of
// its instances belongs to no other node, in specs or already in the graph.
func (r *Registry) checkAttachments(specs []NodeSpec, i int, owner map[handle.Handle]int) error {
	var errs error
	s := &specs[i]
	if !s.Camera.IsZero() && !r.Cameras.Has(s.Camera) {
		errs = multierr.Append(errs, graphErr(specs, i, "camera %s does not exist", s.Camera))
	}
	if !s.Light.IsZero() && !r.Lights.Has(s.Light) {
		errs = multierr.Append(errs, graphErr(specs, i, "light %s does not exist", s.Light))
	}
	if !s.Skin.IsZero() && !r.Skins.Has(s.Skin) {
		errs = multierr.Append(errs, graphErr(specs, i, "skin %s does not exist", s.Skin))
	}
	for _, ih := range s.Instances {
		inst := r.Instances.Get(ih)
		switch {
		case inst == nil:
			errs = multierr.Append(errs, graphErr(specs, i, "instance %s does not exist", ih))
		case r.nodes.Has(inst.Node):
			errs = multierr.Append(errs, graphErr(specs, i, "instance %s already attached to node %s", ih, inst.Node))
		default:
			if prev, dup := owner[ih]; dup {
				errs = multierr.Append(errs, graphErr(specs, i, "instance %s also listed on node %d", ih, prev))
				continue
			}
			owner[ih] = i
		}
	}
	return errs
}

// BuildGraph creates the node hierarchy described by specs under the given
// scene, with roots naming its top-level nodes. Input is validated first; on
// error nothing is created. The returned handles are indexed like specs.
// Nodes are created children first, and world transforms are computed
// before returning.
func (r *Registry) BuildGraph(sceneH handle.Handle, specs []NodeSpec, roots []int) ([]handle.Handle, error) {
	sc := r.Scenes.Get(sceneH)
	if sc == nil {
		return nil, errors.Wrapf(store.ErrInvalidOperation, "build graph: scene %s does not exist", sceneH)
	}
	if err := r.checkSpecs(specs, roots); err != nil {
		return nil, err
	}

	handles := make([]handle.Handle, len(specs))
	for _, i := range postOrderSpecs(specs, roots) {
		h := r.nodes.Create()
		handles[i] = h
		_ = r.nodes.SetName(h, specs[i].Name)
		_ = r.nodes.SetAssetPath(h, specs[i].AssetPath)
	}

	// All nodes exist; pointers into the store stay valid from here on.
	for i := range specs {
		s := &specs[i]
		n := r.nodes.Get(handles[i])
		n.Local = s.Local
		n.Camera = s.Camera
		n.Light = s.Light
		n.Skin = s.Skin
		n.Weights = append([]float32(nil), s.Weights...)
		n.Instances = append([]handle.Handle(nil), s.Instances...)
		n.World = math.Identity()

		for _, c := range s.Children {
			n.Children = append(n.Children, handles[c])
			r.nodes.Get(handles[c]).Parent = handles[i]
		}
		for _, ih := range s.Instances {
			inst := r.Instances.Get(ih)
			inst.Node = handles[i]
			if inst.Skin.IsZero() {
				inst.Skin = s.Skin
			}
			if inst.Weights == nil {
				inst.Weights = r.defaultWeights(n, inst, 0)
			}
		}
	}

	rootHandles := make([]handle.Handle, len(roots))
	for i, root := range roots {
		rootHandles[i] = handles[root]
	}
	sc.Roots = append(sc.Roots, rootHandles...)

	r.RecomputeWorldTransforms(rootHandles, math.Identity())
	r.log.Debug("built scene graph",
		zap.Stringer("scene", sceneH),
		zap.Int("nodes", len(specs)),
		zap.Int("roots", len(roots)))
	return handles, nil
}

// postOrderSpecs orders validated spec indices children first.
func postOrderSpecs(specs []NodeSpec, roots []int) []int {
	var pre []int
	stack := append([]int(nil), roots...)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		pre = append(pre, i)
		stack = append(stack, specs[i].Children...)
	}
	for i, j := 0, len(pre)-1; i < j; i, j = i+1, j-1 {
		pre[i], pre[j] = pre[j], pre[i]
	}
	return pre
}

// defaultWeights returns a fresh copy of the weights an instance falls back
// to: the node's, then the mesh's, then n zeros.
func (r *Registry) defaultWeights(n *Node, inst *Instance, count int) []float32 {
	src := n.Weights
	if len(src) == 0 {
		if m := r.Meshes.Get(inst.Mesh); m != nil {
			src = m.Weights
		}
	}
	if len(src) == 0 {
		if count == 0 {
			return nil
		}
		return make([]float32, count)
	}
	return append([]float32(nil), src...)
}
