// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package ecs

import (
	"fmt"
	"time"
)

// System updates every entity carrying the component types it
// declares an interest in, once per logic tick.
type System interface {
	// Name identifies the system for diagnostics.
	Name() string

	// Update advances every relevant entity in w by dt.
	Update(w World, dt time.Duration)
}

// Node wraps a System with its scheduling dependencies, following
// the engine's declared system order:
//
//	Transform -> Animation, Bounds
//	Bounds -> Rendering
//	Bounds -> DirectionalLight -> PointLight -> SpotLight
//	Transform -> Unit -> Navigation
//	Animation -> IK, Ragdoll -> RigidBody -> Networking
//	Unit -> Script, Selection, EnvironmentProbe
type Node struct {
	Sys  System
	deps []*Node
}

// NewNode wraps sys in a scheduling Node.
func NewNode(sys System) *Node { return &Node{Sys: sys} }

// AddDependencies records that n must run only after each of deps
// has completed in the same tick.
func (n *Node) AddDependencies(deps ...*Node) {
	n.deps = append(n.deps, deps...)
}

// Scheduler runs a set of system Nodes in dependency order.
type Scheduler struct {
	nodes []*Node
	order []*Node // topologically sorted, computed by Build.
}

// NewScheduler creates a Scheduler over the given nodes.
// Call Build once after all AddDependencies calls are done.
func NewScheduler(nodes ...*Node) *Scheduler {
	return &Scheduler{nodes: nodes}
}

// Build computes a valid execution order. It returns an error if
// the dependency graph contains a cycle.
func (s *Scheduler) Build() error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[*Node]int, len(s.nodes))
	order := make([]*Node, 0, len(s.nodes))
	var visit func(n *Node) error
	visit = func(n *Node) error {
		switch color[n] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("ecs: dependency cycle at system %q", n.Sys.Name())
		}
		color[n] = gray
		for _, d := range n.deps {
			if err := visit(d); err != nil {
				return err
			}
		}
		color[n] = black
		order = append(order, n)
		return nil
	}
	for _, n := range s.nodes {
		if err := visit(n); err != nil {
			return err
		}
	}
	s.order = order
	return nil
}

// Run executes every system in dependency order against w, once.
// Systems with no dependency relation between them still run
// sequentially here; callers that want to parallelise independent
// systems can inspect Order and dispatch through their own worker
// pool (see taskpool.Pool) instead of calling Run.
func (s *Scheduler) Run(w World, dt time.Duration) {
	for _, n := range s.order {
		n.Sys.Update(w, dt)
	}
}

// Order returns the systems in the order Run would execute them.
func (s *Scheduler) Order() []*Node {
	return s.order
}
