package math

import "github.com/chewxy/math32"

// Quat is a rotation quaternion with vector part (X, Y, Z) and scalar W.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the rotation that does nothing.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromArray builds a quaternion from [x, y, z, w].
func QuatFromArray(a [4]float32) Quat {
	return Quat{a[0], a[1], a[2], a[3]}
}

// QuatFromAxisAngle returns a rotation of angle radians about a unit axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	s, c := math32.Sincos(angle / 2)
	v := axis.Scale(s)
	return Quat{v.X, v.Y, v.Z, c}
}

// Array returns q as [x, y, z, w].
func (q Quat) Array() [4]float32 {
	return [4]float32{q.X, q.Y, q.Z, q.W}
}

func (q Quat) vec() Vec3 { return Vec3{q.X, q.Y, q.Z} }

func (q Quat) scale(s float32) Quat {
	return Quat{q.X * s, q.Y * s, q.Z * s, q.W * s}
}

func (q Quat) add(o Quat) Quat {
	return Quat{q.X + o.X, q.Y + o.Y, q.Z + o.Z, q.W + o.W}
}

// Dot returns the 4D dot product.
func (q Quat) Dot(o Quat) float32 {
	return q.vec().Dot(o.vec()) + q.W*o.W
}

// Normalize returns q scaled to unit length. A degenerate quaternion
// becomes identity.
func (q Quat) Normalize() Quat {
	n := math32.Sqrt(q.Dot(q))
	if n < 1e-6 {
		return QuatIdentity()
	}
	return q.scale(1 / n)
}

// Mul returns the rotation q after o (q * o).
func (q Quat) Mul(o Quat) Quat {
	u, v := q.vec(), o.vec()
	w := q.W*o.W - u.Dot(v)
	xyz := v.Scale(q.W).Add(u.Scale(o.W)).Add(u.Cross(v))
	return Quat{xyz.X, xyz.Y, xyz.Z, w}
}

// Rotate applies the rotation to v. q must be unit length.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v' = v + 2w(u×v) + 2u×(u×v)
	u := q.vec()
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Lerp blends component-wise and renormalizes.
func (q Quat) Lerp(o Quat, t float32) Quat {
	return q.scale(1 - t).add(o.scale(t)).Normalize()
}

// Slerp interpolates along the shorter great arc from q to o.
func (q Quat) Slerp(o Quat, t float32) Quat {
	cos := q.Dot(o)
	if cos < 0 {
		o, cos = o.scale(-1), -cos
	}
	// Nearly identical rotations: sin(theta) is too small to divide by.
	if cos > 0.9995 {
		return q.Lerp(o, t)
	}
	theta := math32.Acos(cos)
	sin := math32.Sin(theta)
	a := math32.Sin((1-t)*theta) / sin
	b := math32.Sin(t*theta) / sin
	return q.scale(a).add(o.scale(b))
}

// ToMat4 returns the rotation matrix of q.
func (q Quat) ToMat4() Mat4 {
	return Compose(Vec3{}, q, One())
}
