package scene

import "fmt"

// Kind identifies an object kind held by a Registry.
type Kind uint8

const (
	KindMesh Kind = iota
	KindMaterial
	KindImage
	KindInstance
	KindCamera
	KindLight
	KindSkin
	KindClip
	KindNode
	KindScene
)

func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindMaterial:
		return "material"
	case KindImage:
		return "image"
	case KindInstance:
		return "instance"
	case KindCamera:
		return "camera"
	case KindLight:
		return "light"
	case KindSkin:
		return "skin"
	case KindClip:
		return "clip"
	case KindNode:
		return "node"
	case KindScene:
		return "scene"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}
