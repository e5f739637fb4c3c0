package scene

import (
	"fmt"
	"strings"

	"github.com/Faultbox/midgard-scene/pkg/handle"
	"github.com/Faultbox/midgard-scene/pkg/math"
)

// Transform is a decomposed local transform.
type Transform struct {
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
}

// IdentityTransform returns a transform with no effect.
func IdentityTransform() Transform {
	return Transform{Rotation: math.QuatIdentity(), Scale: math.One()}
}

// Matrix composes translation * rotation * scale.
func (t Transform) Matrix() math.Mat4 {
	return math.Compose(t.Translation, t.Rotation, t.Scale)
}

// Node is a transform in the scene hierarchy. A node owns its children;
// Parent and every attachment are weak references resolved through the
// registry.
type Node struct {
	Local     Transform // default local transform from import
	World     math.Mat4 // cached world transform
	Parent    handle.Handle
	Children  []handle.Handle
	Camera    handle.Handle
	Light     handle.Handle
	Instances []handle.Handle
	Skin      handle.Handle
	Weights   []float32 // default morph weights
}

// AnimatedNode is the live transform of a node targeted by at least one clip.
type AnimatedNode struct {
	Node        handle.Handle
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3
	refs        int // clips targeting the node
}

// Matrix composes the animated translation * rotation * scale.
func (a *AnimatedNode) Matrix() math.Mat4 {
	return math.Compose(a.Translation, a.Rotation, a.Scale)
}

func (a *AnimatedNode) restore(t Transform) {
	a.Translation = t.Translation
	a.Rotation = t.Rotation
	a.Scale = t.Scale
}

// Mesh is the renderer-independent part of a mesh.
type Mesh struct {
	Materials []handle.Handle
	Weights   []float32 // default morph weights
}

// Material holds scalar PBR parameters and texture references.
type Material struct {
	BaseColor        [4]float32
	Metallic         float32
	Roughness        float32
	BaseColorTexture handle.Handle // image
}

// Image describes texture data owned by the rendering collaborator.
type Image struct {
	Width, Height int
	Format        string
}

// Instance places a mesh in the world through a node.
type Instance struct {
	Mesh      handle.Handle
	Node      handle.Handle
	Skin      handle.Handle
	Transform math.Mat4
	Weights   []float32
}

// Camera is driven by the node it is attached to.
type Camera struct {
	Eye, Center, Up math.Vec3
	FovY            float32 // radians
	Aspect          float32
	Near, Far       float32
}

// ViewMatrix returns the view matrix for the current eye/center/up.
func (c *Camera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Eye, c.Center, c.Up)
}

// Projection returns the perspective projection matrix.
func (c *Camera) Projection() math.Mat4 {
	return math.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

// LightType selects the light model.
type LightType uint8

const (
	LightDirectional LightType = iota
	LightPoint
	LightSpot
)

func (t LightType) String() string {
	switch t {
	case LightDirectional:
		return "directional"
	case LightPoint:
		return "point"
	case LightSpot:
		return "spot"
	default:
		return fmt.Sprintf("light(%d)", uint8(t))
	}
}

// ParseLightType maps a light type name to its value.
func ParseLightType(s string) (LightType, bool) {
	switch strings.ToLower(s) {
	case "directional", "sun":
		return LightDirectional, true
	case "point":
		return LightPoint, true
	case "spot":
		return LightSpot, true
	default:
		return LightDirectional, false
	}
}

// Light is driven by the node it is attached to.
type Light struct {
	Type      LightType
	Color     math.Vec3
	Intensity float32
	Range     float32
	Position  math.Vec3
	Direction math.Vec3
}

// Skin binds a mesh to a joint hierarchy.
type Skin struct {
	Joints        []handle.Handle
	InverseBind   []math.Mat4
	JointMatrices []math.Mat4 // world(joint) * inverse bind, per joint
}

// Scene is a top-level node list.
type Scene struct {
	Roots []handle.Handle
}
