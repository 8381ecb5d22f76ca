// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"math"
	"sort"

	"github.com/divide-framework/divide/ecs"
	"github.com/divide-framework/divide/linear"
)

// Ray is a half-line used for picking and visibility queries.
type Ray struct {
	Origin linear.V3
	Dir    linear.V3 // must be normalized.
}

// Hit describes one ray/node intersection.
type Hit struct {
	Node Node
	T    float32 // distance along the ray, in [tMin, tMax].
}

// Intersect tests r against every node carrying a Bounds component
// and returns the ones hit within [tMin, tMax], nearest first.
//
// This walks the flat Bounds index rather than recursing through
// the hierarchy with opaque-subtree short-circuiting: the scene
// graph does not expose child enumeration publicly (node.Graph keeps
// it internal to Update's traversal), so a node flagged as fully
// opaque cannot prune its descendants from this query. Large scenes
// should keep a spatial index (an octree, a BVH over rescache mesh
// bounds) in front of this call; Intersect is the reference
// brute-force fallback.
func (g *Graph) Intersect(r Ray, tMin, tMax float32) []Hit {
	var hits []Hit
	g.ForEach(ecs.Bounds, func(e ecs.Entity, c ecs.Component) {
		b := c.(*Bounds)
		if t, ok := intersectAABB(r, b.WorldMin, b.WorldMax, tMin, tMax); ok {
			hits = append(hits, Hit{Node: Node(e), T: t})
		}
	})
	sort.Slice(hits, func(i, j int) bool { return hits[i].T < hits[j].T })
	return hits
}

// intersectAABB implements the slab method.
func intersectAABB(r Ray, min, max linear.V3, tMin, tMax float32) (float32, bool) {
	for i := 0; i < 3; i++ {
		if r.Dir[i] == 0 {
			if r.Origin[i] < min[i] || r.Origin[i] > max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / r.Dir[i]
		t0 := (min[i] - r.Origin[i]) * inv
		t1 := (max[i] - r.Origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = float32(math.Max(float64(tMin), float64(t0)))
		tMax = float32(math.Min(float64(tMax), float64(t1)))
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}
