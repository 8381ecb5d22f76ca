// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package lightpool registers scene lights, selects the top-N
// casters/receivers visible to a camera each frame, and assigns
// shadow-casting lights a slice range in a shared shadow atlas.
package lightpool

import (
	"errors"
	"sort"

	"github.com/divide-framework/divide/engine"
	"github.com/divide-framework/divide/guid"
	"github.com/divide-framework/divide/internal/bitvec"
	"github.com/divide-framework/divide/linear"
)

// Kind identifies which of the three light shapes an entry holds.
type Kind int

const (
	Sun Kind = iota
	Point
	Spot
)

// entry is one registered light plus pool-owned bookkeeping.
type entry struct {
	id           guid.GUID
	kind         Kind
	sun          engine.SunLight
	point        engine.PointLight
	spot         engine.SpotLight
	castsShadow  bool
	shadowOffset int // base slice index into the atlas, -1 if unassigned
	shadowSlices int // number of atlas slices currently held
}

// Pool is the registry of every light in the scene plus the shared
// shadow atlas slice allocator.
type Pool struct {
	entries map[guid.GUID]*entry
	order   []guid.GUID // stable iteration order

	atlas bitvec.V[uint64] // one bit per allocated atlas slice
}

// New creates an empty Pool with an atlas of the given slice count.
func New(atlasSlices int) *Pool {
	p := &Pool{entries: map[guid.GUID]*entry{}}
	p.atlas.Grow((atlasSlices + 63) / 64)
	// Slices past atlasSlices are marked used so they are never assigned.
	for i := atlasSlices; i < p.atlas.Len(); i++ {
		p.atlas.Set(i)
	}
	return p
}

// AddSun registers a directional light and returns its GUID.
func (p *Pool) AddSun(l engine.SunLight) guid.GUID { return p.add(Kind(Sun), &entry{sun: l}) }

// AddPoint registers a point light and returns its GUID.
func (p *Pool) AddPoint(l engine.PointLight) guid.GUID { return p.add(Kind(Point), &entry{point: l}) }

// AddSpot registers a spot light and returns its GUID.
func (p *Pool) AddSpot(l engine.SpotLight) guid.GUID { return p.add(Kind(Spot), &entry{spot: l}) }

func (p *Pool) add(kind Kind, e *entry) guid.GUID {
	id := guid.New()
	e.id = id
	e.kind = kind
	e.shadowOffset = -1
	p.entries[id] = e
	p.order = append(p.order, id)
	return id
}

// Remove unregisters a light, freeing its shadow atlas slices if any
// were assigned.
func (p *Pool) Remove(id guid.GUID) {
	e, ok := p.entries[id]
	if !ok {
		return
	}
	p.freeShadow(e)
	delete(p.entries, id)
	for i, o := range p.order {
		if o == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// SetCastsShadow marks whether a light should be considered for
// shadow-caster selection.
func (p *Pool) SetCastsShadow(id guid.GUID, casts bool) {
	if e, ok := p.entries[id]; ok {
		e.castsShadow = casts
	}
}

func position(e *entry) linear.V3 {
	switch e.kind {
	case Point:
		return e.point.Position
	case Spot:
		return e.spot.Position
	default:
		return linear.V3{}
	}
}

func intensity(e *entry) float32 {
	switch e.kind {
	case Sun:
		return e.sun.Intensity
	case Point:
		return e.point.Intensity
	case Spot:
		return e.spot.Intensity
	default:
		return 0
	}
}

// Selected is one light chosen for the current frame, with its
// contribution score (used only to rank the selection).
type Selected struct {
	ID    guid.GUID
	Kind  Kind
	Score float32
}

// SelectTopN ranks every registered light by its contribution to a
// point (directional lights always contribute; positional lights are
// weighted by intensity / (1 + distance²)) and returns at most maxN,
// highest score first. maxN is MAX_LIGHTS_PER_SCENE.
func (p *Pool) SelectTopN(eye linear.V3, maxN int) []Selected {
	out := make([]Selected, 0, len(p.order))
	for _, id := range p.order {
		e := p.entries[id]
		score := intensity(e)
		if e.kind != Sun {
			pos := position(e)
			var d linear.V3
			d.Sub(&pos, &eye)
			distSq := d.Dot(&d)
			score = intensity(e) / (1 + distSq)
		}
		out = append(out, Selected{ID: id, Kind: e.kind, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if maxN > 0 && len(out) > maxN {
		out = out[:maxN]
	}
	return out
}

// slicesFor returns how many atlas slices a light's shadow data
// requires: 6 for a cube map (point), 1 otherwise (spot gets a single
// slice, directional gets the splitCount passed to AssignShadow).
func slicesFor(kind Kind, splitCount int) int {
	switch kind {
	case Point:
		return 6
	case Sun:
		if splitCount < 1 {
			splitCount = 1
		}
		return splitCount
	default:
		return 1
	}
}

var errAtlasFull = errors.New("lightpool: shadow atlas has no free slice range")
var errUnknownLight = errors.New("lightpool: unknown light id")

// AssignShadow allocates a contiguous atlas slice range for id's
// shadow map and records its base offset. splitCount is only
// meaningful for Sun lights (cascade split count); it is ignored
// otherwise.
func (p *Pool) AssignShadow(id guid.GUID, splitCount int) (offset int, err error) {
	e, ok := p.entries[id]
	if !ok {
		return 0, errUnknownLight
	}
	p.freeShadow(e)
	n := slicesFor(e.kind, splitCount)
	idx, ok := p.atlas.SearchRange(n)
	if !ok {
		return 0, errAtlasFull
	}
	for i := idx; i < idx+n; i++ {
		p.atlas.Set(i)
	}
	e.shadowOffset = idx
	e.shadowSlices = n
	e.castsShadow = true
	return idx, nil
}

func (p *Pool) freeShadow(e *entry) {
	if e.shadowOffset < 0 {
		return
	}
	for i := e.shadowOffset; i < e.shadowOffset+e.shadowSlices; i++ {
		p.atlas.Unset(i)
	}
	e.shadowOffset = -1
	e.shadowSlices = 0
}

// ShadowOffset returns the base atlas slice index assigned to id, or
// -1 if none has been assigned.
func (p *Pool) ShadowOffset(id guid.GUID) int {
	if e, ok := p.entries[id]; ok {
		return e.shadowOffset
	}
	return -1
}

// ShadowCasters returns the IDs of every light currently marked as a
// shadow caster, capped to maxN (MAX_SHADOW_CASTING_LIGHTS).
func (p *Pool) ShadowCasters(maxN int) []guid.GUID {
	var out []guid.GUID
	for _, id := range p.order {
		if p.entries[id].castsShadow {
			out = append(out, id)
			if maxN > 0 && len(out) >= maxN {
				break
			}
		}
	}
	return out
}

// Len returns the number of registered lights.
func (p *Pool) Len() int { return len(p.entries) }
