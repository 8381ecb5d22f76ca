// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"sync"

	"github.com/divide-framework/divide/ecs"
	"github.com/divide-framework/divide/guid"
	"github.com/divide-framework/divide/linear"
	"github.com/divide-framework/divide/node"
)

// Graph is the engine's scene graph. It owns every node's identity,
// component set and world transform.
//
// Structural mutation (New*, Remove, SetParent) takes the write
// lock; read-only queries (ForEach, Component, ByGUID, ByName,
// ByType) take the read lock, so systems running concurrently off a
// taskpool.Pool may query the graph while another goroutine prepares
// (but has not yet committed) the next frame's changes.
type Graph struct {
	mu      sync.RWMutex
	g       node.Graph
	recs    map[Node]*rec
	byGUID  map[guid.GUID]Node
	byName  map[string]Node
	byType  [numTypes][]Node
	pending []Node // nodes queued for deletion, drained at FrameStarted.
	touched []Node // scratch: nodes whose local transform changed this Update.
	bus     EventBus
}

// New creates an empty scene graph.
func New() *Graph {
	return &Graph{
		recs:   make(map[Node]*rec),
		byGUID: make(map[guid.GUID]Node),
		byName: make(map[string]Node),
	}
}

// NewNode creates a node of the given type with the given name,
// attached as a child of parent (or as a root, if parent is Nil).
func (g *Graph) NewNode(name string, typ Type, parent Node) Node {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := newRec(name, typ)
	n := g.g.Insert(r.transform, parent)
	r.transform.owner = n
	g.recs[n] = r
	g.byGUID[r.guid] = n
	if name != "" {
		g.byName[name] = n
	}
	g.byType[typ] = append(g.byType[typ], n)
	return n
}

// Remove queues n and its whole subtree for deletion. The nodes
// remain valid (and visible to queries) until the next FrameStarted
// call, matching the engine's frame-delayed teardown: anything that
// captured n's Node value earlier in the frame can still use it
// safely for the rest of that frame.
func (g *Graph) Remove(n Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = append(g.pending, n)
}

// FrameStarted drains the pending deletion queue, actually removing
// every node queued by Remove (and its descendants) since the last
// call. Callers invoke this once at the start of each frame, before
// running any systems.
func (g *Graph) FrameStarted() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.pending) == 0 {
		return
	}
	for _, n := range g.pending {
		if _, ok := g.recs[n]; !ok {
			// Already removed as part of an ancestor's subtree
			// earlier in this same batch.
			continue
		}
		for _, local := range g.g.Remove(n) {
			t, ok := local.(*Transform)
			if !ok {
				continue
			}
			g.dropRec(t.owner)
		}
	}
	g.pending = g.pending[:0]
}

// dropRec removes every trace of n from the graph's indices.
// Callers must hold g.mu.
func (g *Graph) dropRec(n Node) {
	r, ok := g.recs[n]
	if !ok {
		return
	}
	delete(g.recs, n)
	delete(g.byGUID, r.guid)
	if r.name != "" {
		delete(g.byName, r.name)
	}
	lst := g.byType[r.typ]
	for i, x := range lst {
		if x == n {
			g.byType[r.typ] = append(lst[:i], lst[i+1:]...)
			break
		}
	}
}

// Update recomputes world transforms for every node whose local
// transform changed since the last call, then publishes a
// TransformUpdated event and refreshes Bounds for each of them.
//
// World matrices of unchanged descendants of a moved node are still
// corrected by the underlying node.Graph, but this pass only emits
// events for nodes whose own Transform was touched directly.
func (g *Graph) Update() {
	g.mu.Lock()
	defer g.mu.Unlock()
	var masks []DirtyMask
	for n, r := range g.recs {
		if r.transform.dirtyPeek() {
			g.touched = append(g.touched, n)
			masks = append(masks, r.transform.dirty)
		}
	}
	g.g.Update()
	for i, n := range g.touched {
		r := g.recs[n]
		if b, ok := r.components[ecs.Bounds].(*Bounds); ok {
			recomputeWorldBounds(b, g.g.World(n))
		}
		g.bus.publish(n, masks[i])
	}
	g.touched = g.touched[:0]
}

// World returns n's cached world transform matrix.
func (g *Graph) World(n Node) *linear.M4 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.g.World(n)
}

// GUID returns n's process-wide unique identifier.
func (g *Graph) GUID(n Node) guid.GUID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if r, ok := g.recs[n]; ok {
		return r.guid
	}
	return guid.Invalid
}

// Name returns n's name, or "" if it has none.
func (g *Graph) Name(n Node) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if r, ok := g.recs[n]; ok {
		return r.name
	}
	return ""
}

// ByGUID looks up a node by its GUID.
func (g *Graph) ByGUID(id guid.GUID) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.byGUID[id]
	return n, ok
}

// ByName looks up a node by name. Names are not required to be
// unique; this returns whichever node most recently registered it.
func (g *Graph) ByName(name string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.byName[name]
	return n, ok
}

// ByType returns every live node of the given Type.
// The returned slice must not be modified.
func (g *Graph) ByType(t Type) []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.byType[t]
}

// Transform returns n's Transform component. Every live node has
// exactly one; this never returns nil for a valid Node.
func (g *Graph) Transform(n Node) *Transform {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if r, ok := g.recs[n]; ok {
		return r.transform
	}
	return nil
}

// SetComponent attaches c to n, replacing any existing component of
// the same type.
func (g *Graph) SetComponent(n Node, c ecs.Component) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.recs[n]; ok {
		r.components[c.Type()] = c
	}
}

// Events returns the graph's transform-update event bus, for systems
// that need to react to moves rather than polling Bounds.dirty.
func (g *Graph) Events() *EventBus { return &g.bus }

// Component implements ecs.World.
func (g *Graph) Component(e ecs.Entity, t ecs.ComponentType) ecs.Component {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.recs[Node(e)]
	if !ok {
		return nil
	}
	return r.components[t]
}

// ForEach implements ecs.World.
func (g *Graph) ForEach(t ecs.ComponentType, fn func(ecs.Entity, ecs.Component)) {
	g.mu.RLock()
	type pair struct {
		e ecs.Entity
		c ecs.Component
	}
	pairs := make([]pair, 0, len(g.recs))
	for n, r := range g.recs {
		if c := r.components[t]; c != nil {
			pairs = append(pairs, pair{ecs.Entity(n), c})
		}
	}
	g.mu.RUnlock()
	for _, p := range pairs {
		fn(p.e, p.c)
	}
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.recs)
}

// recomputeWorldBounds transforms b's local AABB corners by world
// and recomputes the enclosing world-space AABB. It is not exact for
// rotated boxes (it re-encloses the eight transformed corners rather
// than computing the minimal rotated box), which matches how the
// teacher's culler historically traded precision for a branch-free
// inner loop.
func recomputeWorldBounds(b *Bounds, world *linear.M4) {
	var corners [8]linear.V3
	i := 0
	for _, x := range [2]float32{b.LocalMin[0], b.LocalMax[0]} {
		for _, y := range [2]float32{b.LocalMin[1], b.LocalMax[1]} {
			for _, z := range [2]float32{b.LocalMin[2], b.LocalMax[2]} {
				corners[i] = linear.V3{x, y, z}
				i++
			}
		}
	}
	first := world.TransformPoint(&corners[0])
	b.WorldMin, b.WorldMax = first, first
	for _, c := range corners[1:] {
		w := world.TransformPoint(&c)
		for k := 0; k < 3; k++ {
			if w[k] < b.WorldMin[k] {
				b.WorldMin[k] = w[k]
			}
			if w[k] > b.WorldMax[k] {
				b.WorldMax[k] = w[k]
			}
		}
	}
	b.dirty = false
}
