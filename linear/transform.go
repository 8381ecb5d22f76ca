// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import "math"

// TRS composes a translation, rotation and non-uniform scale
// into the world matrix m = T ⋅ R ⋅ S.
func (m *M4) TRS(t *V3, r *Q, s *V3) {
	var rm M3
	r.Mat(&rm)
	m[0] = V4{rm[0][0] * s[0], rm[0][1] * s[0], rm[0][2] * s[0], 0}
	m[1] = V4{rm[1][0] * s[1], rm[1][1] * s[1], rm[1][2] * s[1], 0}
	m[2] = V4{rm[2][0] * s[2], rm[2][1] * s[2], rm[2][2] * s[2], 0}
	m[3] = V4{t[0], t[1], t[2], 1}
}

// TransformPoint returns m ⋅ p, treating p as a point (w = 1).
func (m *M4) TransformPoint(p *V3) V3 {
	return V3{
		m[0][0]*p[0] + m[1][0]*p[1] + m[2][0]*p[2] + m[3][0],
		m[0][1]*p[0] + m[1][1]*p[1] + m[2][1]*p[2] + m[3][1],
		m[0][2]*p[0] + m[1][2]*p[1] + m[2][2]*p[2] + m[3][2],
	}
}

// LookAt sets m to a view matrix for an eye positioned at eye,
// looking at center, with the given up vector.
func (m *M4) LookAt(eye, center, up *V3) {
	var f, s, u V3
	f.Sub(center, eye)
	f.Norm(&f)
	s.Cross(&f, up)
	s.Norm(&s)
	u.Cross(&s, &f)
	m[0] = V4{s[0], u[0], -f[0], 0}
	m[1] = V4{s[1], u[1], -f[1], 0}
	m[2] = V4{s[2], u[2], -f[2], 0}
	m[3] = V4{-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1}
}

// Perspective sets m to a perspective projection matrix with the
// given vertical field of view (radians), aspect ratio and
// near/far clip planes.
func (m *M4) Perspective(fovy, aspect, near, far float32) {
	t := float32(1 / math.Tan(float64(fovy)/2))
	*m = M4{}
	m[0][0] = t / aspect
	m[1][1] = t
	m[2][2] = far / (near - far)
	m[2][3] = -1
	m[3][2] = (near * far) / (near - far)
}

// Ortho sets m to an orthographic projection matrix.
func (m *M4) Ortho(left, right, bottom, top, near, far float32) {
	*m = M4{}
	m[0][0] = 2 / (right - left)
	m[1][1] = 2 / (top - bottom)
	m[2][2] = -1 / (far - near)
	m[3][0] = -(right + left) / (right - left)
	m[3][1] = -(top + bottom) / (top - bottom)
	m[3][2] = -near / (far - near)
	m[3][3] = 1
}

// Plane is a plane in Hessian normal form: dot(N, p) + D = 0.
type Plane struct {
	N V3
	D float32
}

// Normalize scales p so that N has unit length.
func (p *Plane) Normalize() {
	l := p.N.Len()
	if l == 0 {
		return
	}
	p.N.Scale(1/l, &p.N)
	p.D /= l
}

// DistTo returns the signed distance from p to point v.
func (p *Plane) DistTo(v *V3) float32 { return p.N.Dot(v) + p.D }

// Frustum is the six bounding planes of a view volume, extracted
// from a combined view-projection matrix. Planes point inward:
// a point is inside the frustum iff DistTo is >= 0 for all six.
type Frustum [6]Plane

// Indices into Frustum.
const (
	FrustLeft = iota
	FrustRight
	FrustBottom
	FrustTop
	FrustNear
	FrustFar
)

// FromVP extracts f from a combined view-projection matrix vp
// (column-major, as produced by M4.Mul(proj, view)).
func (f *Frustum) FromVP(vp *M4) {
	row := func(i int) V4 { return V4{vp[0][i], vp[1][i], vp[2][i], vp[3][i]} }
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	set := func(p *Plane, v V4) {
		p.N = V3{v[0], v[1], v[2]}
		p.D = v[3]
		p.Normalize()
	}
	add := func(a, b V4) (v V4) {
		for i := range v {
			v[i] = a[i] + b[i]
		}
		return
	}
	sub := func(a, b V4) (v V4) {
		for i := range v {
			v[i] = a[i] - b[i]
		}
		return
	}
	set(&f[FrustLeft], add(r3, r0))
	set(&f[FrustRight], sub(r3, r0))
	set(&f[FrustBottom], add(r3, r1))
	set(&f[FrustTop], sub(r3, r1))
	set(&f[FrustNear], add(r3, r2))
	set(&f[FrustFar], sub(r3, r2))
}

// TestResult is the outcome of testing a volume against a Frustum.
type TestResult int

// Test results.
const (
	Outside TestResult = iota
	Inside
	Intersects
)

// TestSphere tests a bounding sphere against f.
func (f *Frustum) TestSphere(center *V3, radius float32) TestResult {
	res := Inside
	for i := range f {
		d := f[i].DistTo(center)
		if d < -radius {
			return Outside
		}
		if d < radius {
			res = Intersects
		}
	}
	return res
}

// TestAABB tests an axis-aligned box (given by min/max corners)
// against f.
func (f *Frustum) TestAABB(min, max *V3) TestResult {
	res := Inside
	for i := range f {
		var pv, nv V3
		for j := 0; j < 3; j++ {
			if f[i].N[j] >= 0 {
				pv[j], nv[j] = max[j], min[j]
			} else {
				pv[j], nv[j] = min[j], max[j]
			}
		}
		if f[i].DistTo(&pv) < 0 {
			return Outside
		}
		if f[i].DistTo(&nv) < 0 {
			res = Intersects
		}
	}
	return res
}
