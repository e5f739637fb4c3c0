// Package anim holds keyframe channels and clips and the sampling math used
// to evaluate them.
package anim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/Faultbox/midgard-scene/pkg/handle"
	"github.com/Faultbox/midgard-scene/pkg/math"
)

// Interpolation selects how values between keyframes are computed.
type Interpolation uint8

const (
	Linear Interpolation = iota
	Step
)

// String returns the interpolation name.
func (i Interpolation) String() string {
	switch i {
	case Linear:
		return "linear"
	case Step:
		return "step"
	default:
		return fmt.Sprintf("interpolation(%d)", uint8(i))
	}
}

// ParseInterpolation maps an interpolation name to its mode. Unsupported
// modes (cubic spline, unknown strings) report false so importers can skip
// the channel.
func ParseInterpolation(s string) (Interpolation, bool) {
	switch strings.ToLower(s) {
	case "", "linear":
		return Linear, true
	case "step":
		return Step, true
	default:
		return Linear, false
	}
}

// Property is the node property a channel drives.
type Property uint8

const (
	Translation Property = iota
	Rotation
	Scale
	Weights
)

// String returns the property name.
func (p Property) String() string {
	switch p {
	case Translation:
		return "translation"
	case Rotation:
		return "rotation"
	case Scale:
		return "scale"
	case Weights:
		return "weights"
	default:
		return fmt.Sprintf("property(%d)", uint8(p))
	}
}

// ParseProperty maps a property name to its value.
func ParseProperty(s string) (Property, bool) {
	switch strings.ToLower(s) {
	case "translation", "translate":
		return Translation, true
	case "rotation", "rotate":
		return Rotation, true
	case "scale":
		return Scale, true
	case "weights":
		return Weights, true
	default:
		return Translation, false
	}
}

// Stride returns the number of floats per keyframe for fixed-size
// properties, or 0 for weights (which depend on the morph target count).
func (p Property) Stride() int {
	switch p {
	case Translation, Scale:
		return 3
	case Rotation:
		return 4
	default:
		return 0
	}
}

// Channel is one property timeline targeting one node.
type Channel struct {
	Target        handle.Handle
	Property      Property
	Interpolation Interpolation
	Times         []float32 // strictly increasing
	Values        []float32 // len(Times) * Stride()
}

// Stride returns the number of floats per keyframe.
func (c *Channel) Stride() int {
	if s := c.Property.Stride(); s != 0 {
		return s
	}
	if len(c.Times) == 0 {
		return 0
	}
	return len(c.Values) / len(c.Times)
}

// Validate checks the keyframe layout.
func (c *Channel) Validate() error {
	if len(c.Times) == 0 {
		return errors.New("channel has no keyframes")
	}
	for i := 1; i < len(c.Times); i++ {
		if !(c.Times[i] > c.Times[i-1]) {
			return errors.Errorf("keyframe times not strictly increasing at %d (%g after %g)",
				i, c.Times[i], c.Times[i-1])
		}
	}
	stride := c.Stride()
	if stride == 0 || len(c.Values) != len(c.Times)*stride {
		return errors.Errorf("%s channel has %d values for %d keyframes",
			c.Property, len(c.Values), len(c.Times))
	}
	return nil
}

// End returns the time of the last keyframe.
func (c *Channel) End() float32 {
	if len(c.Times) == 0 {
		return 0
	}
	return c.Times[len(c.Times)-1]
}

// Keys locates t on the timeline and returns the bracketing keyframes and
// the blend factor between them. The factor is 0 for step interpolation and
// for t at or before the first key, and is clamped to [0, 1]; past the last
// key both indices point at it so the value saturates.
func (c *Channel) Keys(t float32) (prev, next int, f float32) {
	n := len(c.Times)
	if n == 0 {
		return 0, 0, 0
	}
	if t <= c.Times[0] {
		return 0, 0, 0
	}
	if t >= c.Times[n-1] {
		return n - 1, n - 1, 0
	}

	// First key strictly after t; t lies in [Times[next-1], Times[next]).
	next = sort.Search(n, func(i int) bool { return c.Times[i] > t })
	prev = next - 1

	if c.Interpolation == Step {
		return prev, next, 0
	}

	f = (t - c.Times[prev]) / (c.Times[next] - c.Times[prev])
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	return prev, next, f
}

func (c *Channel) vec3(i int) math.Vec3 {
	return math.Vec3{X: c.Values[i*3], Y: c.Values[i*3+1], Z: c.Values[i*3+2]}
}

func (c *Channel) quat(i int) math.Quat {
	return math.Quat{X: c.Values[i*4], Y: c.Values[i*4+1], Z: c.Values[i*4+2], W: c.Values[i*4+3]}
}

// SampleVec3 evaluates a translation or scale channel at t.
func (c *Channel) SampleVec3(t float32) math.Vec3 {
	prev, next, f := c.Keys(t)
	return c.vec3(prev).Lerp(c.vec3(next), f)
}

// SampleQuat evaluates a rotation channel at t.
func (c *Channel) SampleQuat(t float32) math.Quat {
	prev, next, f := c.Keys(t)
	a := c.quat(prev)
	if prev == next || f == 0 {
		return a.Normalize()
	}
	return a.Slerp(c.quat(next), f)
}

// SampleWeights evaluates a morph weight channel at t into dst, which is
// resized to the channel stride and returned.
func (c *Channel) SampleWeights(t float32, dst []float32) []float32 {
	stride := c.Stride()
	if cap(dst) < stride {
		dst = make([]float32, stride)
	}
	dst = dst[:stride]

	prev, next, f := c.Keys(t)
	a := c.Values[prev*stride : (prev+1)*stride]
	b := c.Values[next*stride : (next+1)*stride]
	for i := range dst {
		dst[i] = a[i] + f*(b[i]-a[i])
	}
	return dst
}
