// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package lightpool

import (
	"math"

	"github.com/divide-framework/divide/linear"
)

// ShadowCamera is a view/projection pair suitable for rendering one
// shadow map layer.
type ShadowCamera struct {
	View linear.M4
	Proj linear.M4
}

func vec(x, y, z float32) linear.V3 { return linear.V3{x, y, z} }

func normalize(v linear.V3) linear.V3 {
	var n linear.V3
	n.Norm(&v)
	return n
}

func cross(a, b linear.V3) linear.V3 {
	var c linear.V3
	c.Cross(&a, &b)
	return c
}

func dot(a, b linear.V3) float32 { return a.Dot(&b) }

// lookAt builds a right-handed view matrix.
func lookAt(eye, center, up linear.V3) linear.M4 {
	var fwd linear.V3
	fwd.Sub(&center, &eye)
	f := normalize(fwd)
	s := normalize(cross(f, up))
	u := cross(s, f)

	return linear.M4{
		{s[0], u[0], -f[0], 0},
		{s[1], u[1], -f[1], 0},
		{s[2], u[2], -f[2], 0},
		{-dot(s, eye), -dot(u, eye), dot(f, eye), 1},
	}
}

// perspective builds a right-handed, [0,1]-depth-range perspective
// projection matrix (matching the GPU backend's clip-space depth
// convention, as used elsewhere in the engine's wgpu driver).
func perspective(fovY, aspect, near, far float32) linear.M4 {
	t := float32(1 / math.Tan(float64(fovY)/2))
	var m linear.M4
	m[0][0] = t / aspect
	m[1][1] = t
	m[2][2] = far / (near - far)
	m[2][3] = -1
	m[3][2] = -(far * near) / (far - near)
	return m
}

// ortho builds a right-handed, [0,1]-depth-range orthographic
// projection matrix.
func ortho(l, r, b, t, near, far float32) linear.M4 {
	var m linear.M4
	m[0][0] = 2 / (r - l)
	m[1][1] = 2 / (t - b)
	m[2][2] = -1 / (far - near)
	m[3][0] = -(r + l) / (r - l)
	m[3][1] = -(t + b) / (t - b)
	m[3][2] = -near / (far - near)
	m[3][3] = 1
	return m
}

// CascadeSplit is one directional-light shadow cascade.
type CascadeSplit struct {
	ShadowCamera
	Distance float32 // far split distance, in view space
}

// texelSnap rounds a light-space translation to texel-sized
// increments, to stop cascade shimmering as the camera moves.
func texelSnap(v linear.V3, texelSize float32) linear.V3 {
	if texelSize <= 0 {
		return v
	}
	for i := range v {
		v[i] = float32(math.Round(float64(v[i]/texelSize))) * texelSize
	}
	return v
}

// splitDistances computes splitCount cascade boundaries between
// near and far, blending uniform and logarithmic distributions by
// splitLambda (0 = uniform, 1 = logarithmic), as spec'd.
func splitDistances(near, far float32, splitCount int, splitLambda float32) []float32 {
	out := make([]float32, splitCount)
	for i := 1; i <= splitCount; i++ {
		fi := float32(i) / float32(splitCount)
		uniform := near + (far-near)*fi
		logar := near * float32(math.Pow(float64(far/near), float64(fi)))
		out[i-1] = uniform*(1-splitLambda) + logar*splitLambda
	}
	return out
}

// CascadedGenerator builds the shadow cameras for a directional
// light, one per cascade split, fitting an orthographic frustum to
// each split's view-frustum corners transformed into light space.
type CascadedGenerator struct {
	// TexelSize, if > 0, stabilises the cascade by snapping its
	// light-space translation to this increment.
	TexelSize float32
}

// Generate computes splitCount cascades for a directional light
// pointing in dir, covering [near, far] in view space, given the
// current camera's world-space frustum corners (8, near then far
// plane, matching the order culler.Camera derives its planes from).
func (g CascadedGenerator) Generate(dir linear.V3, corners [8]linear.V3, near, far float32, splitCount int, splitLambda float32) []CascadeSplit {
	if splitCount < 1 {
		splitCount = 1
	}
	if splitCount > 6 {
		splitCount = 6
	}
	dists := splitDistances(near, far, splitCount, splitLambda)

	up := vec(0, 1, 0)
	if math.Abs(float64(dot(dir, up))) > 0.999 {
		up = vec(1, 0, 0)
	}

	out := make([]CascadeSplit, splitCount)
	splitNear := near
	for i, d := range dists {
		// Interpolate the 8 full-frustum corners down to this
		// split's near/far sub-range.
		var center linear.V3
		var subCorners [8]linear.V3
		for c := 0; c < 4; c++ {
			nearC := corners[c]
			farC := corners[c+4]
			var edge linear.V3
			edge.Sub(&farC, &nearC)
			t0 := (splitNear - near) / (far - near)
			t1 := (d - near) / (far - near)
			var p0, p1, s0, s1 linear.V3
			s0.Scale(t0, &edge)
			p0.Add(&nearC, &s0)
			s1.Scale(t1, &edge)
			p1.Add(&nearC, &s1)
			subCorners[c] = p0
			subCorners[c+4] = p1
		}
		for _, c := range subCorners {
			center[0] += c[0]
			center[1] += c[1]
			center[2] += c[2]
		}
		for k := range center {
			center[k] /= 8
		}

		var eye linear.V3
		eye.Sub(&center, &linear.V3{dir[0] * 1000, dir[1] * 1000, dir[2] * 1000})
		view := lookAt(eye, center, up)

		var minB, maxB linear.V3
		for ci, c := range subCorners {
			var t linear.V4
			t.Mul(&view, &linear.V4{c[0], c[1], c[2], 1})
			p := linear.V3{t[0], t[1], t[2]}
			if ci == 0 {
				minB, maxB = p, p
				continue
			}
			for k := 0; k < 3; k++ {
				if p[k] < minB[k] {
					minB[k] = p[k]
				}
				if p[k] > maxB[k] {
					maxB[k] = p[k]
				}
			}
		}
		if g.TexelSize > 0 {
			minB = texelSnap(minB, g.TexelSize)
			maxB = texelSnap(maxB, g.TexelSize)
		}

		proj := ortho(minB[0], maxB[0], minB[1], maxB[1], -maxB[2], -minB[2])
		out[i] = CascadeSplit{ShadowCamera: ShadowCamera{View: view, Proj: proj}, Distance: d}
		splitNear = d
	}
	return out
}

// CubeGenerator builds the six face cameras for a point light's
// shadow cube map.
type CubeGenerator struct{}

// cubeFace is one of the six axis-aligned cube map directions, in
// the order +X, -X, +Y, -Y, +Z, -Z.
type cubeFace struct {
	dir, up linear.V3
}

var cubeFaces = [6]cubeFace{
	{vec(1, 0, 0), vec(0, -1, 0)},
	{vec(-1, 0, 0), vec(0, -1, 0)},
	{vec(0, 1, 0), vec(0, 0, 1)},
	{vec(0, -1, 0), vec(0, 0, -1)},
	{vec(0, 0, 1), vec(0, -1, 0)},
	{vec(0, 0, -1), vec(0, -1, 0)},
}

// Generate returns the six face ShadowCameras for a point light at
// position, covering [near, far].
func (CubeGenerator) Generate(position linear.V3, near, far float32) [6]ShadowCamera {
	var out [6]ShadowCamera
	proj := perspective(float32(math.Pi/2), 1, near, far)
	for i, f := range cubeFaces {
		var center linear.V3
		center.Add(&position, &f.dir)
		out[i] = ShadowCamera{View: lookAt(position, center, f.up), Proj: proj}
	}
	return out
}

// SingleGenerator builds the one-off perspective camera for a spot
// light's shadow map, whose field of view matches the cone's outer
// angle.
type SingleGenerator struct{}

// Generate returns the ShadowCamera for a spot light at position,
// aimed along dir, with the given outer cone angle (radians) and
// depth range.
func (SingleGenerator) Generate(position, dir linear.V3, outerAngle, near, far float32) ShadowCamera {
	up := vec(0, 1, 0)
	if math.Abs(float64(dot(dir, up))) > 0.999 {
		up = vec(1, 0, 0)
	}
	var center linear.V3
	center.Add(&position, &dir)
	view := lookAt(position, center, up)
	proj := perspective(outerAngle*2, 1, near, far)
	return ShadowCamera{View: view, Proj: proj}
}
