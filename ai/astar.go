// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package ai

import "container/heap"

// Finder is a generic A* PathFinder over a point graph. It is a
// reference implementation suitable for simple grid/waypoint graphs,
// not a navmesh solver; applications with navmesh requirements supply
// their own PathFinder.
type Finder struct{}

// FindPath implements PathFinder.
func (Finder) FindPath(graph Graph, start, goal Point, path *[]Point) error {
	cameFrom := map[int64]Point{start.ID(): start}
	costSoFar := map[int64]float64{start.ID(): 0}

	frontier := &priorityQueue{{point: start, priority: 0}}
	heap.Init(frontier)

	for frontier.Len() > 0 {
		current := heap.Pop(frontier).(weighted).point
		if current.ID() == goal.ID() {
			break
		}
		for _, next := range graph.Neighbours(current) {
			newCost := costSoFar[current.ID()] + graph.Cost(current, next)
			if c, ok := costSoFar[next.ID()]; !ok || newCost < c {
				costSoFar[next.ID()] = newCost
				priority := newCost + graph.Estimate(next, goal)
				heap.Push(frontier, weighted{point: next, priority: priority})
				cameFrom[next.ID()] = current
			}
		}
	}

	*path = (*path)[:0]
	if _, ok := cameFrom[goal.ID()]; !ok {
		return nil
	}
	rev := []Point{goal}
	cur := goal
	for cur.ID() != start.ID() {
		prev := cameFrom[cur.ID()]
		rev = append(rev, prev)
		cur = prev
	}
	for i := len(rev) - 1; i >= 0; i-- {
		*path = append(*path, rev[i])
	}
	return nil
}

type weighted struct {
	point    Point
	priority float64
}

type priorityQueue []weighted

func (q priorityQueue) Len() int            { return len(q) }
func (q priorityQueue) Less(i, j int) bool  { return q[i].priority < q[j].priority }
func (q priorityQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x interface{}) { *q = append(*q, x.(weighted)) }
func (q *priorityQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
