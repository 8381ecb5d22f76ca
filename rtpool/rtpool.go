// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package rtpool allocates, recycles, and addresses offscreen render
// targets by purpose rather than by address.
//
// Callers never hold a *engine.Texture directly; they hold a Handle
// (a tagged (usage, index) pair) and look the target up through the
// Pool each time they need it. This lets the pool resize or replace
// the backing texture of every target of a given Usage (e.g. when the
// window resizes) without invalidating references callers already
// hold.
package rtpool

import (
	"errors"
	"fmt"

	"github.com/divide-framework/divide/driver"
	"github.com/divide-framework/divide/engine"
	"github.com/divide-framework/divide/internal/bitvec"
)

// Usage identifies the purpose a render target serves.
type Usage int

const (
	Screen Usage = iota
	Editor
	Shadow
	ReflectionPlanar
	ReflectionCube
	RefractionPlanar
	RefractionCube
	HiZ
	OIT
	Environment
	Other

	nUsage
)

func (u Usage) String() string {
	switch u {
	case Screen:
		return "Screen"
	case Editor:
		return "Editor"
	case Shadow:
		return "Shadow"
	case ReflectionPlanar:
		return "ReflectionPlanar"
	case ReflectionCube:
		return "ReflectionCube"
	case RefractionPlanar:
		return "RefractionPlanar"
	case RefractionCube:
		return "RefractionCube"
	case HiZ:
		return "HiZ"
	case OIT:
		return "OIT"
	case Environment:
		return "Environment"
	case Other:
		return "Other"
	default:
		return "!rtpool.Usage"
	}
}

// Handle is a non-owning, stable reference to a render target.
// Destruction is explicit, via Pool.Deallocate.
type Handle struct {
	usage Usage
	index int
}

// Attachment describes one texture attached to a render target.
type Attachment struct {
	PixelFmt driver.PixelFmt
	Samples  int
}

// Descriptor describes a render target to allocate.
type Descriptor struct {
	Name        string
	Width       int
	Height      int
	Layers      int
	Attachments []Attachment
	MSAASamples int
}

// RenderTarget is an allocated, addressable set of attachment
// textures sharing a resolution and layer count.
type RenderTarget struct {
	name    string
	usage   Usage
	index   int
	width   int
	height  int
	layers  int
	attachs []*engine.Texture
	dirty   []bitvec.V[uint64] // one bit vector per attachment, one bit per layer
	bindPrev []savedBind
}

// Name returns the target's descriptor name.
func (r *RenderTarget) Name() string { return r.name }

// Usage returns the target's usage class.
func (r *RenderTarget) Usage() Usage { return r.usage }

// Width returns the target's resolution width.
func (r *RenderTarget) Width() int { return r.width }

// Height returns the target's resolution height.
func (r *RenderTarget) Height() int { return r.height }

// Layers returns the target's layer count.
func (r *RenderTarget) Layers() int { return r.layers }

// Attachment returns the texture backing a given attachment index.
func (r *RenderTarget) Attachment(index int) *engine.Texture { return r.attachs[index] }

// NAttachment returns the number of attachments.
func (r *RenderTarget) NAttachment() int { return len(r.attachs) }

// MarkDirty flags a layer of a given attachment as containing data
// not yet reflected by dependent reads (blits, shader samples).
func (r *RenderTarget) MarkDirty(attachment, layer int) {
	r.dirty[attachment].Set(layer)
}

// MarkClean clears the dirty flag for a layer of a given attachment.
func (r *RenderTarget) MarkClean(attachment, layer int) {
	r.dirty[attachment].Unset(layer)
}

// IsDirty reports whether a layer of a given attachment is dirty.
func (r *RenderTarget) IsDirty(attachment, layer int) bool {
	return r.dirty[attachment].IsSet(layer)
}

// ClearState is a bitmask of per-draw clear behavior, set on a
// RTDrawDescriptor.
type ClearState int

const (
	ClearColor ClearState = 1 << iota
	ClearDepth
	ChangeViewport
)

// RTDrawDescriptor selects which attachments participate in a draw
// and how they should be cleared.
type RTDrawDescriptor struct {
	AttachmentMask uint32
	State          ClearState
	ClearColorRGBA [4]float32
	ClearDepth     float32
}

// DefaultDrawDescriptor clears every enabled attachment's color and
// depth, which is the pool's default clear policy.
func DefaultDrawDescriptor(nAttach int) RTDrawDescriptor {
	return RTDrawDescriptor{
		AttachmentMask: uint32(1)<<nAttach - 1,
		State:          ClearColor | ClearDepth,
	}
}

type savedBind struct {
	target *RenderTarget
	desc   RTDrawDescriptor
}

var errNoHandle = errors.New("rtpool: unknown handle")

// Pool owns every allocated RenderTarget, addressable by Handle or
// by (usage, index).
type Pool struct {
	byUsage [nUsage][]*RenderTarget
	bound   []savedBind
}

// New creates an empty Pool.
func New() *Pool { return &Pool{} }

// Allocate creates a new render target from desc under the given
// usage class and returns a non-owning Handle to it.
func (p *Pool) Allocate(usage Usage, desc *Descriptor) (Handle, error) {
	if desc == nil {
		return Handle{}, errors.New("rtpool: nil descriptor")
	}
	if desc.Width < 1 || desc.Height < 1 {
		return Handle{}, errors.New("rtpool: invalid resolution")
	}
	if len(desc.Attachments) == 0 {
		return Handle{}, errors.New("rtpool: no attachments")
	}
	layers := desc.Layers
	if layers < 1 {
		layers = 1
	}
	samples := desc.MSAASamples
	if samples < 1 {
		samples = 1
	}

	attachs := make([]*engine.Texture, len(desc.Attachments))
	dirty := make([]bitvec.V[uint64], len(desc.Attachments))
	for i, a := range desc.Attachments {
		s := samples
		if a.Samples > 0 {
			s = a.Samples
		}
		tex, err := engine.NewTarget(&engine.TexParam{
			PixelFmt: a.PixelFmt,
			Dim3D:    driver.Dim3D{Width: desc.Width, Height: desc.Height},
			Layers:   layers,
			Levels:   1,
			Samples:  s,
		})
		if err != nil {
			for j := 0; j < i; j++ {
				attachs[j].Free()
			}
			return Handle{}, fmt.Errorf("rtpool: allocate %q: %w", desc.Name, err)
		}
		attachs[i] = tex
		dirty[i].Grow((layers + 63) / 64)
	}

	rt := &RenderTarget{
		name:    desc.Name,
		usage:   usage,
		width:   desc.Width,
		height:  desc.Height,
		layers:  layers,
		attachs: attachs,
		dirty:   dirty,
	}
	rt.index = len(p.byUsage[usage])
	p.byUsage[usage] = append(p.byUsage[usage], rt)
	return Handle{usage: usage, index: rt.index}, nil
}

// Deallocate frees the render target referenced by h. h must not be
// used again afterward.
func (p *Pool) Deallocate(h Handle) error {
	list := p.byUsage[h.usage]
	if h.index < 0 || h.index >= len(list) || list[h.index] == nil {
		return errNoHandle
	}
	rt := list[h.index]
	for _, a := range rt.attachs {
		a.Free()
	}
	list[h.index] = nil
	return nil
}

// RenderTarget resolves h to its RenderTarget.
func (p *Pool) RenderTarget(h Handle) (*RenderTarget, error) {
	list := p.byUsage[h.usage]
	if h.index < 0 || h.index >= len(list) || list[h.index] == nil {
		return nil, errNoHandle
	}
	return list[h.index], nil
}

// ResizeTargets walks every live target with the given usage and
// reallocates its attachments at the new resolution, preserving
// attachment formats, layer count and sample counts.
func (p *Pool) ResizeTargets(usage Usage, w, h int) error {
	if w < 1 || h < 1 {
		return errors.New("rtpool: invalid resolution")
	}
	for _, rt := range p.byUsage[usage] {
		if rt == nil {
			continue
		}
		newAttachs := make([]*engine.Texture, len(rt.attachs))
		for i, a := range rt.attachs {
			tex, err := engine.NewTarget(&engine.TexParam{
				PixelFmt: a.PixelFmt(),
				Dim3D:    driver.Dim3D{Width: w, Height: h},
				Layers:   a.Layers(),
				Levels:   1,
				Samples:  a.Samples(),
			})
			if err != nil {
				for j := 0; j < i; j++ {
					newAttachs[j].Free()
				}
				return fmt.Errorf("rtpool: resize %q: %w", rt.name, err)
			}
			newAttachs[i] = tex
		}
		for _, a := range rt.attachs {
			a.Free()
		}
		rt.attachs = newAttachs
		rt.width, rt.height = w, h
		for i := range rt.dirty {
			rt.dirty[i].Clear()
		}
	}
	return nil
}

// DrawToTargetBegin binds target for drawing according to desc,
// pushing the previous binding so DrawToTargetEnd can restore it.
func (p *Pool) DrawToTargetBegin(h Handle, desc RTDrawDescriptor) (*RenderTarget, error) {
	rt, err := p.RenderTarget(h)
	if err != nil {
		return nil, err
	}
	var prev savedBind
	if n := len(p.bound); n > 0 {
		prev = p.bound[n-1]
	}
	p.bound = append(p.bound, savedBind{target: rt, desc: desc})
	_ = prev
	return rt, nil
}

// DrawToTargetEnd pops the binding pushed by the matching
// DrawToTargetBegin call.
func (p *Pool) DrawToTargetEnd() error {
	n := len(p.bound)
	if n == 0 {
		return errors.New("rtpool: unbalanced DrawToTargetEnd")
	}
	p.bound = p.bound[:n-1]
	return nil
}

// Bound returns the currently bound render target, or nil if none is
// bound.
func (p *Pool) Bound() *RenderTarget {
	if n := len(p.bound); n > 0 {
		return p.bound[n-1].target
	}
	return nil
}
