// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package ai runs the dedicated AI thread: a tick loop that drives
// path queries and agent state at its own rate, decoupled from the
// kernel's fixed-timestep frame loop, plus a small message bus other
// systems use to publish/observe agent events across that thread
// boundary.
//
// The pathfinding algorithm itself is a black box behind PathFinder:
// this package owns only the scheduling and messaging around it, not
// navmesh generation or graph search (Finder is a generic reference
// implementation for simple point graphs, not a navmesh).
package ai

import "github.com/divide-framework/divide/linear"

// Point is one location in a PathFinder's search graph. ID must be
// stable and unique per location; it is used as a map key during the
// search.
type Point interface {
	ID() int64
	Pos() linear.V3
}

// Graph exposes the connectivity a PathFinder searches over.
type Graph interface {
	// Neighbours lists the points reachable directly from at.
	Neighbours(at Point) []Point
	// Cost is the exact edge cost from a to b (a and b adjacent).
	Cost(a, b Point) float64
	// Estimate is an admissible heuristic distance from a to b.
	Estimate(a, b Point) float64
}

// PathFinder resolves a path between two points on a Graph. Concrete
// navmesh/grid implementations are out of scope here; Manager only
// depends on this interface, so any third-party pathing library can
// back it.
type PathFinder interface {
	// FindPath appends the path from start to goal to path, resetting
	// it to zero length first. An empty result means no path exists.
	FindPath(graph Graph, start, goal Point, path *[]Point) error
}
