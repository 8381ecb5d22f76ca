// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package renderpass

import (
	"github.com/divide-framework/divide/cmdbuf"
	"github.com/divide-framework/divide/culler"
	"github.com/divide-framework/divide/ecs"
	"github.com/divide-framework/divide/scene"
)

// DrawResolver turns one culled node into draw commands. Implementations
// own the mesh/material/pipeline lookup (backed by rescache and the
// shader compile queue); Resolve records whatever SetPipeline,
// SetDescTableGraph and Draw/DrawIndexed calls the node needs into buf
// and returns the triangle count it contributed.
//
// ok is false when the node cannot be drawn this frame (its material
// is still compiling, its mesh hasn't finished loading): the node is
// dropped from the pass without emitting any command and without
// stalling the rest of the batch.
type DrawResolver interface {
	Resolve(buf *cmdbuf.Buffer, node scene.Node, data *NodeData) (triangles int, ok bool)
}

// countDraws counts the Draw/DrawIndexed commands in buf, used to
// measure how many individual draws Batch folded together.
func countDraws(buf *cmdbuf.Buffer) int {
	n := 0
	for _, c := range buf.Cmds() {
		if c.Kind == cmdbuf.KindDraw || c.Kind == cmdbuf.KindDrawIndexed {
			n++
		}
	}
	return n
}

// RecordPass culls g against in, resolves each surviving node through
// resolver and returns the recorded, batched command buffer. p's
// NodeData is replaced with one entry per drawn node, in the same
// order the command stream references them by index. Statistics
// (draw calls, triangles, culled nodes, draws folded by batching) are
// accumulated onto the Manager.
func (m *Manager) RecordPass(p *Pass, g *scene.Graph, in *culler.Input, resolver DrawResolver) *cmdbuf.Buffer {
	visible := culler.Cull(g, in)
	buf := cmdbuf.New()
	p.NodeData = p.NodeData[:0]

	culled := 0
	triangles := 0
	for _, v := range visible {
		c := g.Component(ecs.Entity(v.Node), ecs.Rendering)
		if c == nil {
			culled++
			continue
		}
		rend := c.(*scene.Rendering)
		world := g.World(v.Node)
		data := NodeData{
			World:  *world,
			Normal: normalMatrix(world),
			MeshID: uint64(rend.MeshID),
			MatID:  uint64(rend.MaterialID),
			LoD:    uint32(rend.LoD),
		}

		n, ok := resolver.Resolve(buf, v.Node, &data)
		if !ok {
			culled++
			continue
		}
		triangles += n
		p.NodeData = append(p.NodeData, data)
	}

	before := countDraws(buf)
	buf.Batch()
	after := countDraws(buf)

	m.stats.DrawCalls += after
	m.stats.Triangles += triangles
	m.stats.Culled += culled
	m.stats.Batched += before - after
	p.lastCmdCount = buf.Len()
	return buf
}

// LastCmdCount returns the number of commands p's most recent
// RecordPass call produced, after batching.
func (p *Pass) LastCmdCount() int { return p.lastCmdCount }
