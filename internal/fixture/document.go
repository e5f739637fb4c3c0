// Package fixture loads YAML scene descriptions and imports them into a
// scene.Registry. It stands in for a real asset importer in tests and in
// scenectl: objects refer to each other by name, and animation channels in
// unsupported interpolation modes are skipped rather than rejected.
package fixture

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-scene/pkg/anim"
	"github.com/Faultbox/midgard-scene/pkg/scene"
)

// ErrInvalidDocument marks a document that is well-formed YAML but does not
// describe a consistent scene.
var ErrInvalidDocument = errors.New("invalid scene document")

// Document is a parsed scene description.
type Document struct {
	Source string `yaml:"-"` // file the document was read from, if any

	Images    []ImageDoc    `yaml:"images"`
	Materials []MaterialDoc `yaml:"materials"`
	Meshes    []MeshDoc     `yaml:"meshes"`
	Cameras   []CameraDoc   `yaml:"cameras"`
	Lights    []LightDoc    `yaml:"lights"`
	Nodes     []NodeDoc     `yaml:"nodes"`
	Skins     []SkinDoc     `yaml:"skins"`
	Clips     []ClipDoc     `yaml:"clips"`
	Scenes    []SceneDoc    `yaml:"scenes"`
}

type ImageDoc struct {
	Name   string `yaml:"name"`
	Asset  string `yaml:"asset"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Format string `yaml:"format"`
}

type MaterialDoc struct {
	Name      string     `yaml:"name"`
	BaseColor [4]float32 `yaml:"base_color"`
	Metallic  float32    `yaml:"metallic"`
	Roughness float32    `yaml:"roughness"`
	Texture   string     `yaml:"texture"`
}

type MeshDoc struct {
	Name      string    `yaml:"name"`
	Asset     string    `yaml:"asset"`
	Materials []string  `yaml:"materials"`
	Weights   []float32 `yaml:"weights"`
}

type CameraDoc struct {
	Name   string  `yaml:"name"`
	YFov   float32 `yaml:"yfov"` // radians
	Aspect float32 `yaml:"aspect"`
	Near   float32 `yaml:"near"`
	Far    float32 `yaml:"far"`
}

type LightDoc struct {
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type"`
	Color     [3]float32 `yaml:"color"`
	Intensity float32    `yaml:"intensity"`
	Range     float32    `yaml:"range"`
}

// NodeDoc describes one node. Omitted transform components default to
// identity.
type NodeDoc struct {
	Name        string    `yaml:"name"`
	Translation []float32 `yaml:"translation"`
	Rotation    []float32 `yaml:"rotation"` // x, y, z, w
	Scale       []float32 `yaml:"scale"`
	Children    []string  `yaml:"children"`
	Camera      string    `yaml:"camera"`
	Light       string    `yaml:"light"`
	Meshes      []string  `yaml:"meshes"` // one instance per entry
	Skin        string    `yaml:"skin"`
	Weights     []float32 `yaml:"weights"`
}

type SkinDoc struct {
	Name        string      `yaml:"name"`
	Joints      []string    `yaml:"joints"`
	InverseBind [][]float32 `yaml:"inverse_bind"` // column-major 4x4 per joint
	// BindPose derives the inverse bind matrices from the imported pose.
	BindPose bool `yaml:"bind_pose"`
}

type ClipDoc struct {
	Name     string       `yaml:"name"`
	Channels []ChannelDoc `yaml:"channels"`
}

type ChannelDoc struct {
	Node          string    `yaml:"node"`
	Path          string    `yaml:"path"`
	Interpolation string    `yaml:"interpolation"`
	Times         []float32 `yaml:"times"`
	Values        []float32 `yaml:"values"`
}

// SceneDoc lists the top-level nodes of a scene. A document without scenes
// gets one scene holding every parentless node.
type SceneDoc struct {
	Name  string   `yaml:"name"`
	Roots []string `yaml:"roots"`
}

// Parse decodes a scene document and checks its cross references.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decoding scene document")
	}
	if err := doc.Check(); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseFile reads and parses a scene document from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading scene document")
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	doc.Source = path
	return doc, nil
}

func problem(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidDocument, format, args...)
}

// names indexes one kind by name and reports empty or duplicate names.
func names[T any](kind string, items []T, name func(*T) string, errs *error) map[string]int {
	idx := make(map[string]int, len(items))
	for i := range items {
		n := name(&items[i])
		switch {
		case n == "":
			*errs = multierr.Append(*errs, problem("%s %d has no name", kind, i))
		case hasKey(idx, n):
			*errs = multierr.Append(*errs, problem("duplicate %s name %q", kind, n))
		default:
			idx[n] = i
		}
	}
	return idx
}

func hasKey[V any](m map[string]V, k string) bool {
	_, ok := m[k]
	return ok
}

func ref(errs *error, idx map[string]int, owner, kind, name string) {
	if name != "" && !hasKey(idx, name) {
		*errs = multierr.Append(*errs, problem("%s: unknown %s %q", owner, kind, name))
	}
}

// Check reports every unresolved name, malformed transform and node that no
// scene reaches. Animation channels are not checked here: channels that
// cannot be imported are skipped at build time.
func (d *Document) Check() error {
	var errs error

	images := names("image", d.Images, func(x *ImageDoc) string { return x.Name }, &errs)
	materials := names("material", d.Materials, func(x *MaterialDoc) string { return x.Name }, &errs)
	meshes := names("mesh", d.Meshes, func(x *MeshDoc) string { return x.Name }, &errs)
	cameras := names("camera", d.Cameras, func(x *CameraDoc) string { return x.Name }, &errs)
	lights := names("light", d.Lights, func(x *LightDoc) string { return x.Name }, &errs)
	nodes := names("node", d.Nodes, func(x *NodeDoc) string { return x.Name }, &errs)
	skins := names("skin", d.Skins, func(x *SkinDoc) string { return x.Name }, &errs)
	names("clip", d.Clips, func(x *ClipDoc) string { return x.Name }, &errs)
	names("scene", d.Scenes, func(x *SceneDoc) string { return x.Name }, &errs)

	for _, m := range d.Materials {
		ref(&errs, images, "material "+m.Name, "image", m.Texture)
	}
	for _, m := range d.Meshes {
		for _, mat := range m.Materials {
			ref(&errs, materials, "mesh "+m.Name, "material", mat)
		}
	}
	for _, l := range d.Lights {
		if _, ok := scene.ParseLightType(l.Type); !ok {
			errs = multierr.Append(errs, problem("light %s: unknown type %q", l.Name, l.Type))
		}
	}

	for _, n := range d.Nodes {
		owner := "node " + n.Name
		for _, c := range n.Children {
			ref(&errs, nodes, owner, "child", c)
		}
		ref(&errs, cameras, owner, "camera", n.Camera)
		ref(&errs, lights, owner, "light", n.Light)
		ref(&errs, skins, owner, "skin", n.Skin)
		for _, m := range n.Meshes {
			ref(&errs, meshes, owner, "mesh", m)
		}
		if _, err := n.transform(); err != nil {
			errs = multierr.Append(errs, problem("%s: %v", owner, err))
		}
	}

	for _, s := range d.Skins {
		owner := "skin " + s.Name
		if len(s.Joints) == 0 {
			errs = multierr.Append(errs, problem("%s: no joints", owner))
		}
		for _, j := range s.Joints {
			ref(&errs, nodes, owner, "joint", j)
		}
		if len(s.InverseBind) != 0 && len(s.InverseBind) != len(s.Joints) {
			errs = multierr.Append(errs, problem("%s: %d inverse bind matrices for %d joints",
				owner, len(s.InverseBind), len(s.Joints)))
		}
		if s.BindPose && len(s.InverseBind) != 0 {
			errs = multierr.Append(errs, problem("%s: bind_pose and inverse_bind are exclusive", owner))
		}
		for i, m := range s.InverseBind {
			if len(m) != 16 {
				errs = multierr.Append(errs, problem("%s: inverse bind %d has %d values", owner, i, len(m)))
			}
		}
	}

	reached := make(map[string]string, len(d.Nodes))
	for _, sc := range d.scenes() {
		for _, r := range sc.Roots {
			ref(&errs, nodes, "scene "+sc.Name, "root", r)
		}
		for _, n := range d.subtree(nodes, sc.Roots) {
			name := d.Nodes[n].Name
			if other, ok := reached[name]; ok && other != sc.Name {
				errs = multierr.Append(errs, problem("node %s is in scenes %s and %s", name, other, sc.Name))
			}
			reached[name] = sc.Name
		}
	}
	for _, n := range d.Nodes {
		if n.Name != "" && !hasKey(reached, n.Name) {
			errs = multierr.Append(errs, problem("node %s is not part of any scene", n.Name))
		}
	}

	return errs
}

// scenes returns the declared scenes, or a single default scene rooted at
// every node that is nobody's child.
func (d *Document) scenes() []SceneDoc {
	if len(d.Scenes) > 0 {
		return d.Scenes
	}
	isChild := make(map[string]bool)
	for _, n := range d.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	def := SceneDoc{Name: "default"}
	for _, n := range d.Nodes {
		if !isChild[n.Name] {
			def.Roots = append(def.Roots, n.Name)
		}
	}
	return []SceneDoc{def}
}

// subtree lists the node indices reachable from roots, each once, parents
// before children.
func (d *Document) subtree(nodes map[string]int, roots []string) []int {
	seen := make(map[int]bool)
	var out []int
	stack := append([]string(nil), roots...)
	for len(stack) > 0 {
		name := stack[0]
		stack = stack[1:]
		i, ok := nodes[name]
		if !ok || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
		stack = append(stack, d.Nodes[i].Children...)
	}
	return out
}

func (n *NodeDoc) transform() (scene.Transform, error) {
	t := scene.IdentityTransform()
	if n.Translation != nil {
		if len(n.Translation) != 3 {
			return t, errors.Errorf("translation needs 3 values, got %d", len(n.Translation))
		}
		t.Translation.X, t.Translation.Y, t.Translation.Z = n.Translation[0], n.Translation[1], n.Translation[2]
	}
	if n.Rotation != nil {
		if len(n.Rotation) != 4 {
			return t, errors.Errorf("rotation needs 4 values, got %d", len(n.Rotation))
		}
		t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W = n.Rotation[0], n.Rotation[1], n.Rotation[2], n.Rotation[3]
		t.Rotation = t.Rotation.Normalize()
	}
	if n.Scale != nil {
		if len(n.Scale) != 3 {
			return t, errors.Errorf("scale needs 3 values, got %d", len(n.Scale))
		}
		t.Scale.X, t.Scale.Y, t.Scale.Z = n.Scale[0], n.Scale[1], n.Scale[2]
	}
	return t, nil
}

// channel converts a channel description. ok is false when the channel
// uses an unsupported interpolation or property.
func (c *ChannelDoc) channel() (anim.Channel, bool) {
	mode, ok := anim.ParseInterpolation(c.Interpolation)
	if !ok {
		return anim.Channel{}, false
	}
	prop, ok := anim.ParseProperty(c.Path)
	if !ok {
		return anim.Channel{}, false
	}
	return anim.Channel{
		Property:      prop,
		Interpolation: mode,
		Times:         c.Times,
		Values:        c.Values,
	}, true
}
