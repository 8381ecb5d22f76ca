// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import "math"

// Q is a quaternion of float32.
type Q struct {
	V V3
	R float32
}

// Mul sets q to contain l ⋅ r.
func (q *Q) Mul(l, r *Q) {
	var v, w V3
	v.Scale(r.R, &l.V)
	w.Scale(l.R, &r.V)
	v.Add(&v, &w)
	w.Cross(&l.V, &r.V)
	d := l.V.Dot(&r.V)
	q.V.Add(&v, &w)
	q.R = l.R*r.R - d
}

// Norm sets q to contain r normalized.
func (q *Q) Norm(r *Q) {
	l := float32(math.Sqrt(float64(r.V.Dot(&r.V) + r.R*r.R)))
	q.V.Scale(1/l, &r.V)
	q.R = r.R / l
}

// I makes q an identity quaternion.
func (q *Q) I() { *q = Q{R: 1} }

// FromAxisAngle sets q to the rotation of angle radians
// around axis (which must be normalized).
func (q *Q) FromAxisAngle(axis *V3, angle float32) {
	s, c := math.Sincos(float64(angle) * 0.5)
	q.V.Scale(float32(s), axis)
	q.R = float32(c)
}

// Mat sets m to the rotation matrix equivalent to q.
// q is assumed to be normalized.
func (q *Q) Mat(m *M3) {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.R
	x2, y2, z2 := x+x, y+y, z+z
	xx, yy, zz := x*x2, y*y2, z*z2
	xy, xz, yz := x*y2, x*z2, y*z2
	wx, wy, wz := w*x2, w*y2, w*z2
	m[0] = V3{1 - (yy + zz), xy + wz, xz - wy}
	m[1] = V3{xy - wz, 1 - (xx + zz), yz + wx}
	m[2] = V3{xz + wy, yz - wx, 1 - (xx + yy)}
}
