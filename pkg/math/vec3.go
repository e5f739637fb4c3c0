// Package math provides the float32 vector, quaternion and matrix types used
// by the scene graph and animation code.
package math

import "github.com/chewxy/math32"

// Epsilon is the default tolerance for approximate comparisons.
const Epsilon = 1e-5

// Vec3 is a point, direction or per-axis scale.
type Vec3 struct {
	X, Y, Z float32
}

// Vec3FromArray builds a Vec3 from [x, y, z].
func Vec3FromArray(a [3]float32) Vec3 { return Vec3{a[0], a[1], a[2]} }

// One is the neutral scale.
func One() Vec3 { return Vec3{1, 1, 1} }

// Array returns v as [x, y, z].
func (v Vec3) Array() [3]float32 { return [3]float32{v.X, v.Y, v.Z} }

func (v Vec3) zip(o Vec3, f func(a, b float32) float32) Vec3 {
	return Vec3{f(v.X, o.X), f(v.Y, o.Y), f(v.Z, o.Z)}
}

func (v Vec3) Add(o Vec3) Vec3 { return v.zip(o, func(a, b float32) float32 { return a + b }) }
func (v Vec3) Sub(o Vec3) Vec3 { return v.zip(o, func(a, b float32) float32 { return a - b }) }

// Scale multiplies every component by s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{s * v.X, s * v.Y, s * v.Z} }

func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns v × o in a right-handed basis.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float32 { return math32.Sqrt(v.Dot(v)) }

// Normalize returns v at unit length. The zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	if l := v.Length(); l > 0 {
		return v.Scale(1 / l)
	}
	return Vec3{}
}

// Lerp moves from v towards o by fraction t.
func (v Vec3) Lerp(o Vec3, t float32) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}

// ApproxEqual reports whether no component differs by more than eps.
func (v Vec3) ApproxEqual(o Vec3, eps float32) bool {
	d := v.Sub(o)
	return math32.Abs(d.X) <= eps && math32.Abs(d.Y) <= eps && math32.Abs(d.Z) <= eps
}
