// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package culler computes, per render stage and pass, the list of
// scene graph nodes visible to a camera: distance, frustum, per-node
// cull-flag, and level-of-detail rejection applied in one pass over
// the Rendering/Bounds components.
package culler

import (
	"context"
	"math"
	"sort"

	"github.com/divide-framework/divide/ecs"
	"github.com/divide-framework/divide/linear"
	"github.com/divide-framework/divide/scene"
	"github.com/divide-framework/divide/taskpool"
)

// Stage identifies the render stage a cull pass is generating a
// visible set for. Rendering.CullMask is a bitmask over these
// values: a bit set for a stage excludes the node from that stage.
type Stage uint32

const (
	StagePrePass Stage = 1 << iota
	StageMain
	StageShadow
	StageReflection
	StageRefraction
	StageOIT
	StageDebug
)

// Plane is a frustum plane in Ax+By+Cz+D=0 form, with Normal=(A,B,C)
// pointing toward the frustum's interior.
type Plane struct {
	Normal linear.V3
	D      float32
}

// side classifies an AABB against a plane.
func (p *Plane) side(min, max linear.V3) int {
	// Positive vertex: the corner furthest along the plane normal.
	var pos linear.V3
	for i := 0; i < 3; i++ {
		if p.Normal[i] >= 0 {
			pos[i] = max[i]
		} else {
			pos[i] = min[i]
		}
	}
	d := p.Normal.Dot(&pos) + p.D
	if d < 0 {
		return -1 // fully outside this plane
	}
	return 1
}

// Camera supplies the eye position and frustum used to cull against.
type Camera struct {
	Eye    linear.V3
	Planes [6]Plane
}

// inFrustum reports whether the AABB [min,max] is not trivially
// rejected by any frustum plane.
func (c *Camera) inFrustum(min, max linear.V3) bool {
	for i := range c.Planes {
		if c.Planes[i].side(min, max) < 0 {
			return false
		}
	}
	return true
}

// Input carries the per-call culling parameters.
type Input struct {
	Stage                Stage
	Camera               Camera
	LoDThresholdsSq      [4]float32
	MinLoD               int
	MinExtents           float32
	CullMaxDistanceSq    float32
	VisibilityDistanceSq float32
}

// Visible is one node that survived culling, paired with its squared
// distance to the camera eye (used to keep results front-to-back).
type Visible struct {
	Node       scene.Node
	DistanceSq float32
}

func lodFor(distSq float32, thresholds *[4]float32) int {
	lod := 0
	for _, t := range thresholds {
		if distSq < t {
			break
		}
		lod++
	}
	return lod
}

// reject runs the per-node test battery. It returns the squared
// distance alongside the keep/reject verdict so callers do not
// recompute it.
func reject(in *Input, b *scene.Bounds, r *scene.Rendering) (distSq float32, ok bool) {
	center := linear.V3{
		(b.WorldMin[0] + b.WorldMax[0]) / 2,
		(b.WorldMin[1] + b.WorldMax[1]) / 2,
		(b.WorldMin[2] + b.WorldMax[2]) / 2,
	}
	var delta linear.V3
	delta.Sub(&center, &in.Camera.Eye)
	distSq = delta.Dot(&delta)

	if in.VisibilityDistanceSq > 0 && distSq > in.VisibilityDistanceSq {
		return distSq, false
	}
	if in.CullMaxDistanceSq > 0 && distSq > in.CullMaxDistanceSq {
		return distSq, false
	}
	if !in.Camera.inFrustum(b.WorldMin, b.WorldMax) {
		return distSq, false
	}
	if uint32(r.CullMask)&uint32(in.Stage) != 0 {
		return distSq, false
	}
	if in.Stage == StageReflection && r.ReflProbe < 0 {
		return distSq, false
	}
	if in.Stage == StageRefraction && r.RefrProbe < 0 {
		return distSq, false
	}

	lod := lodFor(distSq, &in.LoDThresholdsSq)
	if in.MinLoD > 0 && lod > in.MinLoD {
		return distSq, false
	}
	if in.MinExtents > 0 {
		var extent linear.V3
		extent.Sub(&b.WorldMax, &b.WorldMin)
		size := extent.Len()
		if distSq > 1 {
			// Apparent size falls off with distance; approximate
			// screen-space extent by dividing by the range.
			size /= float32(math.Sqrt(float64(distSq)))
		}
		if size < in.MinExtents {
			return distSq, false
		}
	}
	return distSq, true
}

// Cull walks every node carrying a Rendering component and returns
// the ones that survive the stage's rejection tests, ordered
// front-to-back by distance.
func Cull(g *scene.Graph, in *Input) []Visible {
	var out []Visible
	g.ForEach(ecs.Rendering, func(e ecs.Entity, c ecs.Component) {
		n := scene.Node(e)
		b := g.Component(e, ecs.Bounds)
		if b == nil {
			return
		}
		bounds := b.(*scene.Bounds)
		rend := c.(*scene.Rendering)
		if distSq, ok := reject(in, bounds, rend); ok {
			out = append(out, Visible{Node: n, DistanceSq: distSq})
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceSq < out[j].DistanceSq })
	return out
}

// entry is one (entity, Rendering, Bounds) triple; collect gathers
// every such triple once,
// under a single read of the graph, so CullParallel can partition
// them without re-touching the graph's lock per goroutine.
type entry struct {
	node   scene.Node
	bounds *scene.Bounds
	rend   *scene.Rendering
}

func collect(g *scene.Graph) []entry {
	var out []entry
	g.ForEach(ecs.Rendering, func(e ecs.Entity, c ecs.Component) {
		b := g.Component(e, ecs.Bounds)
		if b == nil {
			return
		}
		out = append(out, entry{node: scene.Node(e), bounds: b.(*scene.Bounds), rend: c.(*scene.Rendering)})
	})
	return out
}

// CullParallel partitions the scene's renderable nodes across
// partitions tasks run on pool, each task writing into a
// pre-reserved slice of the output; the results are then merged and
// sorted, preserving a stable front-to-back order as if Cull had run
// single-threaded.
func CullParallel(pool *taskpool.Pool, g *scene.Graph, in *Input, partitions int) []Visible {
	entries := collect(g)
	if partitions < 1 {
		partitions = 1
	}
	if partitions > len(entries) && len(entries) > 0 {
		partitions = len(entries)
	}
	if partitions <= 1 || len(entries) == 0 {
		out := make([]Visible, 0, len(entries))
		for _, e := range entries {
			if distSq, ok := reject(in, e.bounds, e.rend); ok {
				out = append(out, Visible{Node: e.node, DistanceSq: distSq})
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceSq < out[j].DistanceSq })
		return out
	}

	chunks := make([][]Visible, partitions)
	chunkSize := (len(entries) + partitions - 1) / partitions

	done := make(chan struct{}, partitions)
	for p := 0; p < partitions; p++ {
		start := p * chunkSize
		end := min(start+chunkSize, len(entries))
		if start >= end {
			done <- struct{}{}
			continue
		}
		idx := p
		slice := entries[start:end]
		task := pool.CreateTask(nil, func(_ context.Context, _ *taskpool.Task) {
			var local []Visible
			for _, e := range slice {
				if distSq, ok := reject(in, e.bounds, e.rend); ok {
					local = append(local, Visible{Node: e.node, DistanceSq: distSq})
				}
			}
			chunks[idx] = local
			done <- struct{}{}
		}, 0)
		pool.Start(task, taskpool.HighPriority)
	}
	for p := 0; p < partitions; p++ {
		<-done
	}

	var out []Visible
	for _, c := range chunks {
		out = append(out, c...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceSq < out[j].DistanceSq })
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
