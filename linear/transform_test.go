// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package linear

import (
	"math"
	"testing"
)

func TestTRSIdentity(t *testing.T) {
	var m M4
	tr := V3{}
	var rot Q
	rot.I()
	sc := V3{1, 1, 1}
	m.TRS(&tr, &rot, &sc)
	var i M4
	i.I()
	if m != i {
		t.Fatalf("M4.TRS: identity\nhave %v\nwant %v", m, i)
	}
}

func TestFrustumSphere(t *testing.T) {
	var proj, view, vp M4
	proj.Perspective(float32(math.Pi)/2, 1, 0.1, 100)
	eye := V3{0, 0, 5}
	center := V3{0, 0, 0}
	up := V3{0, 1, 0}
	view.LookAt(&eye, &center, &up)
	vp.Mul(&proj, &view)
	var f Frustum
	f.FromVP(&vp)

	in := V3{0, 0, 0}
	if r := f.TestSphere(&in, 0.1); r == Outside {
		t.Fatalf("Frustum.TestSphere: origin unexpectedly outside")
	}
	far := V3{0, 0, -1000}
	if r := f.TestSphere(&far, 0.1); r != Outside {
		t.Fatalf("Frustum.TestSphere: far point unexpectedly not outside")
	}
}
