package fixture

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-scene/pkg/anim"
	"github.com/Faultbox/midgard-scene/pkg/handle"
	"github.com/Faultbox/midgard-scene/pkg/math"
	"github.com/Faultbox/midgard-scene/pkg/scene"
)

// Index maps document names to the handles created for them.
type Index struct {
	Images    map[string]handle.Handle
	Materials map[string]handle.Handle
	Meshes    map[string]handle.Handle
	Cameras   map[string]handle.Handle
	Lights    map[string]handle.Handle
	Nodes     map[string]handle.Handle
	Instances map[string][]handle.Handle // by node name
	Skins     map[string]handle.Handle
	Clips     map[string]handle.Handle
	Scenes    map[string]handle.Handle

	// SkippedChannels counts animation channels that could not be imported.
	SkippedChannels int
}

func newIndex() *Index {
	return &Index{
		Images:    map[string]handle.Handle{},
		Materials: map[string]handle.Handle{},
		Meshes:    map[string]handle.Handle{},
		Cameras:   map[string]handle.Handle{},
		Lights:    map[string]handle.Handle{},
		Nodes:     map[string]handle.Handle{},
		Instances: map[string][]handle.Handle{},
		Skins:     map[string]handle.Handle{},
		Clips:     map[string]handle.Handle{},
		Scenes:    map[string]handle.Handle{},
	}
}

// Build imports a document into r. On error r may hold the objects created
// so far; the caller owns r and should Close it.
func Build(r *scene.Registry, doc *Document, log *zap.Logger) (*Index, error) {
	if err := doc.Check(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("fixture")

	b := &builder{r: r, doc: doc, idx: newIndex(), log: log}
	steps := []struct {
		name string
		fn   func() error
	}{
		{"resources", b.resources},
		{"graph", b.graph},
		{"skins", b.skins},
		{"clips", b.clips},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return b.idx, errors.Wrapf(err, "building %s", s.name)
		}
	}

	log.Info("imported scene document",
		zap.String("source", doc.Source),
		zap.Int("nodes", len(b.idx.Nodes)),
		zap.Int("skins", len(b.idx.Skins)),
		zap.Int("clips", len(b.idx.Clips)),
		zap.Int("skipped_channels", b.idx.SkippedChannels))
	return b.idx, nil
}

// Load parses the document at path and imports it into r.
func Load(r *scene.Registry, path string, log *zap.Logger) (*Index, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Build(r, doc, log)
}

type builder struct {
	r   *scene.Registry
	doc *Document
	idx *Index
	log *zap.Logger
}

func (b *builder) assetPath(kind, name string) string {
	if b.doc.Source == "" {
		return ""
	}
	return fmt.Sprintf("%s#%s/%s", b.doc.Source, kind, name)
}

func (b *builder) resources() error {
	r := b.r
	for _, d := range b.doc.Images {
		h := r.Images.Create()
		*r.Images.Get(h) = scene.Image{Width: d.Width, Height: d.Height, Format: d.Format}
		b.describe(r.Images.SetName, r.Images.SetAssetPath, h, d.Name, d.Asset, "images")
		b.idx.Images[d.Name] = h
	}
	for _, d := range b.doc.Materials {
		h := r.Materials.Create()
		*r.Materials.Get(h) = scene.Material{
			BaseColor:        d.BaseColor,
			Metallic:         d.Metallic,
			Roughness:        d.Roughness,
			BaseColorTexture: b.idx.Images[d.Texture],
		}
		b.describe(r.Materials.SetName, r.Materials.SetAssetPath, h, d.Name, "", "materials")
		b.idx.Materials[d.Name] = h
	}
	for _, d := range b.doc.Meshes {
		h := r.Meshes.Create()
		m := r.Meshes.Get(h)
		for _, name := range d.Materials {
			m.Materials = append(m.Materials, b.idx.Materials[name])
		}
		m.Weights = append([]float32(nil), d.Weights...)
		b.describe(r.Meshes.SetName, r.Meshes.SetAssetPath, h, d.Name, d.Asset, "meshes")
		b.idx.Meshes[d.Name] = h
	}
	for _, d := range b.doc.Cameras {
		h := r.Cameras.Create()
		*r.Cameras.Get(h) = scene.Camera{FovY: d.YFov, Aspect: d.Aspect, Near: d.Near, Far: d.Far}
		b.describe(r.Cameras.SetName, r.Cameras.SetAssetPath, h, d.Name, "", "cameras")
		b.idx.Cameras[d.Name] = h
	}
	for _, d := range b.doc.Lights {
		lt, ok := scene.ParseLightType(d.Type)
		if !ok {
			return problem("light %s: unknown type %q", d.Name, d.Type)
		}
		h := r.Lights.Create()
		*r.Lights.Get(h) = scene.Light{
			Type:      lt,
			Color:     math.Vec3FromArray(d.Color),
			Intensity: d.Intensity,
			Range:     d.Range,
		}
		b.describe(r.Lights.SetName, r.Lights.SetAssetPath, h, d.Name, "", "lights")
		b.idx.Lights[d.Name] = h
	}
	return nil
}

func (b *builder) describe(setName, setPath func(handle.Handle, string) error, h handle.Handle, name, asset, kind string) {
	_ = setName(h, name)
	if asset == "" {
		asset = b.assetPath(kind, name)
	}
	_ = setPath(h, asset)
}

// graph builds one node hierarchy per scene. Skins are attached later, once
// the joints they reference exist.
func (b *builder) graph() error {
	nodes := make(map[string]int, len(b.doc.Nodes))
	for i, n := range b.doc.Nodes {
		nodes[n.Name] = i
	}

	for _, sc := range b.doc.scenes() {
		order := b.doc.subtree(nodes, sc.Roots)
		local := make(map[string]int, len(order))
		for li, di := range order {
			local[b.doc.Nodes[di].Name] = li
		}

		specs := make([]scene.NodeSpec, len(order))
		for li, di := range order {
			d := &b.doc.Nodes[di]
			t, err := d.transform()
			if err != nil {
				return problem("node %s: %v", d.Name, err)
			}
			spec := scene.NodeSpec{
				Name:      d.Name,
				AssetPath: b.assetPath("nodes", d.Name),
				Local:     t,
				Camera:    b.idx.Cameras[d.Camera],
				Light:     b.idx.Lights[d.Light],
				Weights:   d.Weights,
			}
			for _, c := range d.Children {
				spec.Children = append(spec.Children, local[c])
			}
			for _, m := range d.Meshes {
				ih := b.r.Instances.Create()
				b.r.Instances.Get(ih).Mesh = b.idx.Meshes[m]
				_ = b.r.Instances.SetName(ih, d.Name+"/"+m)
				spec.Instances = append(spec.Instances, ih)
				b.idx.Instances[d.Name] = append(b.idx.Instances[d.Name], ih)
			}
			specs[li] = spec
		}

		roots := make([]int, 0, len(sc.Roots))
		for _, name := range sc.Roots {
			roots = append(roots, local[name])
		}

		sh := b.r.Scenes.Create()
		_ = b.r.Scenes.SetName(sh, sc.Name)
		b.idx.Scenes[sc.Name] = sh

		created, err := b.r.BuildGraph(sh, specs, roots)
		if err != nil {
			return errors.Wrapf(err, "scene %s", sc.Name)
		}
		for li, h := range created {
			b.idx.Nodes[specs[li].Name] = h
		}
	}
	return nil
}

func (b *builder) skins() error {
	for _, d := range b.doc.Skins {
		joints := make([]handle.Handle, len(d.Joints))
		for i, j := range d.Joints {
			joints[i] = b.idx.Nodes[j]
		}
		var inverse []math.Mat4
		if len(d.InverseBind) > 0 {
			inverse = make([]math.Mat4, len(d.InverseBind))
			for i, m := range d.InverseBind {
				copy(inverse[i][:], m)
			}
		}
		h, err := b.r.AddSkin(d.Name, joints, inverse)
		if err != nil {
			return err
		}
		if d.BindPose {
			if err := b.r.BindPose(h); err != nil {
				return err
			}
		}
		_ = b.r.Skins.SetAssetPath(h, b.assetPath("skins", d.Name))
		b.idx.Skins[d.Name] = h
	}

	for _, d := range b.doc.Nodes {
		if d.Skin == "" {
			continue
		}
		if err := b.r.AttachSkin(b.idx.Nodes[d.Name], b.idx.Skins[d.Skin]); err != nil {
			return errors.Wrapf(err, "node %s", d.Name)
		}
	}
	return nil
}

func (b *builder) clips() error {
	for _, d := range b.doc.Clips {
		channels := make([]anim.Channel, 0, len(d.Channels))
		for i := range d.Channels {
			cd := &d.Channels[i]
			ch, ok := cd.channel()
			if !ok {
				b.log.Debug("skipping unsupported channel",
					zap.String("clip", d.Name),
					zap.Int("channel", i),
					zap.String("path", cd.Path),
					zap.String("interpolation", cd.Interpolation))
				b.idx.SkippedChannels++
				continue
			}
			ch.Target = b.idx.Nodes[cd.Node] // Nil for unknown nodes; AddClip skips it
			channels = append(channels, ch)
		}

		h, skipped := b.r.AddClip(d.Name, channels)
		b.idx.SkippedChannels += skipped
		_ = b.r.Clips.SetAssetPath(h, b.assetPath("clips", d.Name))
		b.idx.Clips[d.Name] = h
	}
	return nil
}
