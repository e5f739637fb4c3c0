package math

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix stored column by column, so element (row r, col c)
// lives at index c*4+r and the translation occupies indices 12..14.
type Mat4 [16]float32

// Vec4 is a homogeneous 4-component vector.
type Vec4 [4]float32

func cols(c0, c1, c2, c3 Vec4) Mat4 {
	var m Mat4
	copy(m[0:4], c0[:])
	copy(m[4:8], c1[:])
	copy(m[8:12], c2[:])
	copy(m[12:16], c3[:])
	return m
}

func (m Mat4) col(c int) Vec4 {
	return Vec4{m[c*4], m[c*4+1], m[c*4+2], m[c*4+3]}
}

func point(v Vec3) Vec4 { return Vec4{v.X, v.Y, v.Z, 1} }
func dir(v Vec3) Vec4   { return Vec4{v.X, v.Y, v.Z, 0} }

// Identity returns the identity matrix.
func Identity() Mat4 {
	return cols(Vec4{1, 0, 0, 0}, Vec4{0, 1, 0, 0}, Vec4{0, 0, 1, 0}, Vec4{0, 0, 0, 1})
}

// Translate returns a pure translation.
func Translate(x, y, z float32) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// Scale returns a pure scale.
func Scale(x, y, z float32) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = x, y, z
	return m
}

// Compose returns the matrix that scales by s, rotates by r and then
// translates by t (T * R * S).
func Compose(t Vec3, r Quat, s Vec3) Mat4 {
	r = r.Normalize()
	return cols(
		dir(r.Rotate(Vec3{X: s.X})),
		dir(r.Rotate(Vec3{Y: s.Y})),
		dir(r.Rotate(Vec3{Z: s.Z})),
		point(t),
	)
}

// Perspective returns an OpenGL-style projection with a vertical field of
// view in radians, mapping depth into [-1, 1].
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	depth := near - far
	return cols(
		Vec4{f / aspect, 0, 0, 0},
		Vec4{0, f, 0, 0},
		Vec4{0, 0, (far + near) / depth, -1},
		Vec4{0, 0, 2 * far * near / depth, 0},
	)
}

// LookAt returns the view matrix of an observer at eye facing center.
func LookAt(eye, center, up Vec3) Mat4 {
	fwd := center.Sub(eye).Normalize()
	side := fwd.Cross(up).Normalize()
	upv := side.Cross(fwd)

	// Rows of the rotation are the camera basis; translation moves eye to 0.
	return cols(
		Vec4{side.X, upv.X, -fwd.X, 0},
		Vec4{side.Y, upv.Y, -fwd.Y, 0},
		Vec4{side.Z, upv.Z, -fwd.Z, 0},
		Vec4{-side.Dot(eye), -upv.Dot(eye), fwd.Dot(eye), 1},
	)
}

// Mul returns m * other: other is applied first.
func (m Mat4) Mul(other Mat4) Mat4 {
	return cols(
		m.MulVec4(other.col(0)),
		m.MulVec4(other.col(1)),
		m.MulVec4(other.col(2)),
		m.MulVec4(other.col(3)),
	)
}

// MulVec4 returns m * v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	var out Vec4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[r] += m[c*4+r] * v[c]
		}
	}
	return out
}

// TransformPoint applies m to p with w=1 and projects back by w.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	h := m.MulVec4(point(p))
	if w := h[3]; w != 0 && w != 1 {
		return Vec3{h[0] / w, h[1] / w, h[2] / w}
	}
	return Vec3{h[0], h[1], h[2]}
}

// TransformDirection applies the linear part of m to d.
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	h := m.MulVec4(dir(d))
	return Vec3{h[0], h[1], h[2]}
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// ApproxEqual reports whether every element differs by at most eps.
func (m Mat4) ApproxEqual(other Mat4, eps float32) bool {
	for i := range m {
		if math32.Abs(m[i]-other[i]) > eps {
			return false
		}
	}
	return true
}

// InverseAffine inverts a matrix whose bottom row is (0, 0, 0, 1), such as
// any composition of translations, rotations and scales. It reports false
// and returns identity when the linear part is singular.
func (m Mat4) InverseAffine() (Mat4, bool) {
	a := Vec3{m[0], m[1], m[2]}
	b := Vec3{m[4], m[5], m[6]}
	c := Vec3{m[8], m[9], m[10]}

	// The inverse of [a b c] has rows (b×c, c×a, a×b) / det.
	bc, ca, ab := b.Cross(c), c.Cross(a), a.Cross(b)
	det := a.Dot(bc)
	if math32.Abs(det) < 1e-12 {
		return Identity(), false
	}
	inv := 1 / det
	r0, r1, r2 := bc.Scale(inv), ca.Scale(inv), ab.Scale(inv)

	t := m.Translation()
	return cols(
		Vec4{r0.X, r1.X, r2.X, 0},
		Vec4{r0.Y, r1.Y, r2.Y, 0},
		Vec4{r0.Z, r1.Z, r2.Z, 0},
		Vec4{-r0.Dot(t), -r1.Dot(t), -r2.Dot(t), 1},
	), true
}
