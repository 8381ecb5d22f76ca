// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package renderpass orders the per-frame render passes (pre-pass,
// main, OIT, debug, plus one per active shadow caster) and drives
// command generation for each: culling the scene, preparing light
// data, binding a render target and recording a cmdbuf.Buffer of
// draws batched by pipeline/descriptor-set/source-buffer.
//
// It is the orchestration layer that used to live ad hoc inside
// Renderer: Renderer now owns only the driver-level resources
// (command buffers, submission channel); Manager owns pass order,
// per-pass node data and frame statistics.
package renderpass

import (
	"fmt"
	"sort"

	"github.com/divide-framework/divide/culler"
	"github.com/divide-framework/divide/guid"
	"github.com/divide-framework/divide/linear"
	"github.com/divide-framework/divide/lightpool"
	"github.com/divide-framework/divide/rtpool"
)

// Type identifies the fixed flow a Pass participates in. Passes of
// the same Type are otherwise ordered relative to one another by
// SortKey (e.g. one shadow Pass per caster).
type Type int

const (
	PassPrePass Type = iota
	PassShadow
	PassMain
	PassOITAccum
	PassOITComposite
	PassDebug
)

func (t Type) String() string {
	switch t {
	case PassPrePass:
		return "pre-pass"
	case PassShadow:
		return "shadow"
	case PassMain:
		return "main"
	case PassOITAccum:
		return "oit-accum"
	case PassOITComposite:
		return "oit-composite"
	case PassDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// NodeData is one entry of a pass's indirect node-data storage
// buffer: everything a shader needs to draw a single culled node,
// referenced by index from the command stream rather than duplicated
// per draw call.
type NodeData struct {
	World    linear.M4
	Normal   linear.M4 // inverse-transpose of World's upper 3x3, translation zeroed
	MeshID   uint64
	MatID    uint64
	LoD      uint32
	Flags    uint32
}

// normalMatrix derives the normal-transform matrix from a world
// matrix: the inverse-transpose of its upper-left 3x3, embedded back
// into an M4 with no translation.
func normalMatrix(world *linear.M4) linear.M4 {
	var upper, inv, t linear.M3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			upper[i][j] = world[i][j]
		}
	}
	inv.Invert(&upper)
	t.Transpose(&inv)
	var out linear.M4
	out.I()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = t[i][j]
		}
	}
	return out
}

// Pass is one entry in a Manager's ordered pass list.
type Pass struct {
	Name    string
	Type    Type
	Stage   culler.Stage
	SortKey int

	// Target is where this pass draws; it is used only when HasTarget
	// is true. A pass with HasTarget false (the OIT composite) binds
	// nothing through BindTarget and draws to whatever the caller
	// already bound.
	Target    rtpool.Handle
	HasTarget bool

	// LightID is set for PassShadow entries: the light this shadow
	// pass renders for, and the atlas slice it writes into.
	LightID      uint64
	ShadowOffset int

	NodeData     []NodeData
	lastCmdCount int
}

// Stats is the read-only per-frame accounting a Manager exposes.
type Stats struct {
	DrawCalls int
	Triangles int
	Culled    int
	Batched   int
}

// Manager owns the ordered render pass list and the frame statistics
// accumulated while recording it.
type Manager struct {
	passes []*Pass
	stats  Stats
}

// NewManager creates an empty Manager.
func NewManager() *Manager { return &Manager{} }

// AddPass appends p to the pass list. Passes are (re-)sorted by
// SortKey the next time Passes is called.
func (m *Manager) AddPass(p *Pass) { m.passes = append(m.passes, p) }

// RemovePass drops the pass named name, if present (e.g. a shadow
// pass for a light that lost its caster status this frame).
func (m *Manager) RemovePass(name string) {
	for i, p := range m.passes {
		if p.Name == name {
			m.passes = append(m.passes[:i], m.passes[i+1:]...)
			return
		}
	}
}

// Passes returns the pass list ordered by SortKey.
func (m *Manager) Passes() []*Pass {
	sort.SliceStable(m.passes, func(i, j int) bool { return m.passes[i].SortKey < m.passes[j].SortKey })
	return m.passes
}

// Pass looks up a pass by name.
func (m *Manager) Pass(name string) *Pass {
	for _, p := range m.passes {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Stats returns the statistics accumulated since the last call to
// ResetStats.
func (m *Manager) Stats() Stats { return m.stats }

// ResetStats zeroes the frame statistics; callers invoke this once
// at the start of each frame, before recording any pass.
func (m *Manager) ResetStats() { m.stats = Stats{} }

// SyncShadowPasses rebuilds the set of PassShadow entries to match
// the lights lp currently selects as shadow casters (capped at
// maxCasters), adding or removing passes as the selection changes
// frame to frame. sortBase is the SortKey the first shadow pass gets;
// subsequent casters increment from there, ahead of PassMain.
func (m *Manager) SyncShadowPasses(lp *lightpool.Pool, maxCasters int, sortBase int) {
	casters := lp.ShadowCasters(maxCasters)
	want := make(map[string]guid.GUID, len(casters))
	order := make(map[string]int, len(casters))
	for i, id := range casters {
		name := shadowPassName(id)
		want[name] = id
		order[name] = i
	}

	var kept []*Pass
	for _, p := range m.passes {
		if p.Type != PassShadow {
			kept = append(kept, p)
			continue
		}
		if _, ok := want[p.Name]; ok {
			kept = append(kept, p)
			delete(want, p.Name)
		}
	}
	m.passes = kept

	for name, id := range want {
		m.AddPass(&Pass{
			Name:         name,
			Type:         PassShadow,
			Stage:        culler.StageShadow,
			SortKey:      sortBase + order[name],
			LightID:      uint64(id),
			ShadowOffset: lp.ShadowOffset(id),
		})
	}
}

// shadowPassName derives a stable, human-readable pass name from a
// light's GUID, so SyncShadowPasses can diff the existing pass list
// against the current shadow-caster selection by name.
func shadowPassName(id guid.GUID) string { return fmt.Sprintf("shadow:%d", id) }
