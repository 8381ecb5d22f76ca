// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package wgpu

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/divide-framework/divide/driver"
)

// RenderPass implements driver.RenderPass. Unlike a native Vulkan-style
// render pass, wgpu has no render pass object of its own; att/sub are
// kept so CmdBuffer.BeginPass can build the wgpu.RenderPassDescriptor
// on the fly from whatever Framebuf is given.
type RenderPass struct {
	att []driver.Attachment
	sub []driver.Subpass
}

func (p *RenderPass) Destroy() {}

func (p *RenderPass) NewFB(iv []driver.ImageView, width, height, layers int) (driver.Framebuf, error) {
	views := make([]*ImageView, len(iv))
	for i := range iv {
		v, ok := iv[i].(*ImageView)
		if !ok {
			return nil, errors.New("wgpu: foreign ImageView")
		}
		views[i] = v
	}
	return &Framebuf{pass: p, views: views, width: width, height: height, layers: layers}, nil
}

// Framebuf implements driver.Framebuf.
type Framebuf struct {
	pass   *RenderPass
	views  []*ImageView
	width  int
	height int
	layers int
}

func (f *Framebuf) Destroy() {}

// descBinding is the current set of resources bound to a single
// descriptor slot across every heap copy.
type descBinding struct {
	buffers  []*wgpu.Buffer
	bufOff   []int64
	bufSize  []int64
	views    []*wgpu.TextureView
	samplers []*wgpu.Sampler
}

// DescHeap implements driver.DescHeap. wgpu bind groups are immutable
// once created, so each Set* call only records the intended binding;
// the actual *wgpu.BindGroup is (re)built lazily the next time it is
// needed by a DescTable, via rebuild.
type DescHeap struct {
	gpu     *GPU
	descs   []driver.Descriptor
	count   int
	binds   map[int]*descBinding
	layout  *wgpu.BindGroupLayout
	groups  []*wgpu.BindGroup
	dirty   bool
}

func (h *DescHeap) Destroy() {
	for _, g := range h.groups {
		if g != nil {
			g.Release()
		}
	}
	h.groups = nil
	if h.layout != nil {
		h.layout.Release()
		h.layout = nil
	}
}

func (h *DescHeap) New(n int) error {
	if n == h.count {
		return nil
	}
	h.count = n
	h.binds = make(map[int]*descBinding)
	h.Destroy()
	h.layout = nil
	h.groups = make([]*wgpu.BindGroup, n)
	h.dirty = true
	return h.buildLayout()
}

func (h *DescHeap) buildLayout() error {
	entries := make([]wgpu.BindGroupLayoutEntry, len(h.descs))
	for i, d := range h.descs {
		e := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(d.Nr),
			Visibility: stageVisibility(d.Stages),
		}
		switch d.Type {
		case driver.DBuffer:
			e.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}
		case driver.DConstant:
			e.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}
		case driver.DImage:
			e.StorageTexture = wgpu.StorageTextureBindingLayout{
				Access: wgpu.StorageTextureAccessWriteOnly,
				Format: wgpu.TextureFormatRGBA8Unorm,
			}
		case driver.DTexture:
			e.Texture = wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat}
		case driver.DSampler:
			e.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
		}
		entries[i] = e
	}
	l, err := h.gpu.dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "descheap",
		Entries: entries,
	})
	if err != nil {
		return err
	}
	h.layout = l
	return nil
}

func stageVisibility(s driver.Stage) wgpu.ShaderStage {
	var v wgpu.ShaderStage
	if s&driver.SVertex != 0 {
		v |= wgpu.ShaderStageVertex
	}
	if s&driver.SFragment != 0 {
		v |= wgpu.ShaderStageFragment
	}
	if s&driver.SCompute != 0 {
		v |= wgpu.ShaderStageCompute
	}
	return v
}

func (h *DescHeap) binding(nr int) *descBinding {
	b, ok := h.binds[nr]
	if !ok {
		b = &descBinding{}
		h.binds[nr] = b
	}
	return b
}

func (h *DescHeap) SetBuffer(cpy, nr, start int, buf []driver.Buffer, off, size []int64) {
	b := h.binding(nr)
	for i, x := range buf {
		wb, ok := x.(*Buffer)
		if !ok {
			continue
		}
		idx := start + i
		growSlices(&b.buffers, &b.bufOff, &b.bufSize, idx+1)
		b.buffers[idx] = wb.buf
		b.bufOff[idx] = off[i]
		b.bufSize[idx] = size[i]
	}
	h.dirty = true
}

func (h *DescHeap) SetImage(cpy, nr, start int, iv []driver.ImageView) {
	b := h.binding(nr)
	for i, x := range iv {
		v, ok := x.(*ImageView)
		if !ok {
			continue
		}
		idx := start + i
		if idx >= len(b.views) {
			grown := make([]*wgpu.TextureView, idx+1)
			copy(grown, b.views)
			b.views = grown
		}
		b.views[idx] = v.view
	}
	h.dirty = true
}

func (h *DescHeap) SetSampler(cpy, nr, start int, splr []driver.Sampler) {
	b := h.binding(nr)
	for i, x := range splr {
		s, ok := x.(*Sampler)
		if !ok {
			continue
		}
		idx := start + i
		if idx >= len(b.samplers) {
			grown := make([]*wgpu.Sampler, idx+1)
			copy(grown, b.samplers)
			b.samplers = grown
		}
		b.samplers[idx] = s.smp
	}
	h.dirty = true
}

func (h *DescHeap) Count() int { return h.count }

func growSlices(buffers *[]*wgpu.Buffer, off, size *[]int64, n int) {
	if len(*buffers) >= n {
		return
	}
	nb := make([]*wgpu.Buffer, n)
	no := make([]int64, n)
	ns := make([]int64, n)
	copy(nb, *buffers)
	copy(no, *off)
	copy(ns, *size)
	*buffers, *off, *size = nb, no, ns
}

// rebuild lazily (re)creates the BindGroup for heap copy cpy.
func (h *DescHeap) rebuild(cpy int) (*wgpu.BindGroup, error) {
	if cpy < len(h.groups) && h.groups[cpy] != nil && !h.dirty {
		return h.groups[cpy], nil
	}
	var entries []wgpu.BindGroupEntry
	for _, d := range h.descs {
		b := h.binding(d.Nr)
		switch d.Type {
		case driver.DBuffer, driver.DConstant:
			if cpy < len(b.buffers) && b.buffers[cpy] != nil {
				entries = append(entries, wgpu.BindGroupEntry{
					Binding: uint32(d.Nr),
					Buffer:  b.buffers[cpy],
					Offset:  uint64(b.bufOff[cpy]),
					Size:    uint64(b.bufSize[cpy]),
				})
			}
		case driver.DImage, driver.DTexture:
			if cpy < len(b.views) && b.views[cpy] != nil {
				entries = append(entries, wgpu.BindGroupEntry{
					Binding:     uint32(d.Nr),
					TextureView: b.views[cpy],
				})
			}
		case driver.DSampler:
			if cpy < len(b.samplers) && b.samplers[cpy] != nil {
				entries = append(entries, wgpu.BindGroupEntry{
					Binding: uint32(d.Nr),
					Sampler: b.samplers[cpy],
				})
			}
		}
	}
	g, err := h.gpu.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "descheap",
		Layout:  h.layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	if cpy >= len(h.groups) {
		grown := make([]*wgpu.BindGroup, cpy+1)
		copy(grown, h.groups)
		h.groups = grown
	}
	if h.groups[cpy] != nil {
		h.groups[cpy].Release()
	}
	h.groups[cpy] = g
	h.dirty = false
	return g, nil
}

// DescTable implements driver.DescTable. Each heap maps to one wgpu
// bind group slot, in the order the heaps were given to NewDescTable.
type DescTable struct {
	gpu    *GPU
	heaps  []*DescHeap
	layout *wgpu.PipelineLayout
}

func (t *DescTable) Destroy() {
	if t.layout != nil {
		t.layout.Release()
		t.layout = nil
	}
}

func (t *DescTable) pipelineLayout() (*wgpu.PipelineLayout, error) {
	if t.layout != nil {
		return t.layout, nil
	}
	layouts := make([]*wgpu.BindGroupLayout, len(t.heaps))
	for i, h := range t.heaps {
		layouts[i] = h.layout
	}
	l, err := t.gpu.dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "desctable",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, err
	}
	t.layout = l
	return l, nil
}

// Pipeline implements driver.Pipeline over either a
// *wgpu.RenderPipeline or a *wgpu.ComputePipeline.
type Pipeline struct {
	render  *wgpu.RenderPipeline
	compute *wgpu.ComputePipeline
	graph   *driver.GraphState
	comp    *driver.CompState
}

func (p *Pipeline) Destroy() {
	if p.render != nil {
		p.render.Release()
		p.render = nil
	}
	if p.compute != nil {
		p.compute.Release()
		p.compute = nil
	}
}

func (g *GPU) NewPipeline(state any) (driver.Pipeline, error) {
	switch s := state.(type) {
	case *driver.GraphState:
		return g.newGraphPipeline(s)
	case *driver.CompState:
		return g.newCompPipeline(s)
	default:
		return nil, errors.New("wgpu: NewPipeline: unexpected state type")
	}
}

func (g *GPU) newGraphPipeline(s *driver.GraphState) (driver.Pipeline, error) {
	table, ok := s.Desc.(*DescTable)
	if !ok {
		return nil, errors.New("wgpu: foreign DescTable")
	}
	layout, err := table.pipelineLayout()
	if err != nil {
		return nil, err
	}
	vs, ok := s.VertFunc.Code.(*ShaderCode)
	if !ok {
		return nil, errors.New("wgpu: foreign vertex ShaderCode")
	}
	fs, ok := s.FragFunc.Code.(*ShaderCode)
	if !ok {
		return nil, errors.New("wgpu: foreign fragment ShaderCode")
	}

	buffers := make([]wgpu.VertexBufferLayout, len(s.Input))
	for i, in := range s.Input {
		buffers[i] = wgpu.VertexBufferLayout{
			ArrayStride: uint64(in.Stride),
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{{
				Format:         vertexFormat(in.Format),
				Offset:         0,
				ShaderLocation: uint32(in.Nr),
			}},
		}
	}

	numTargets := 1
	if s.Blend.IndependentBlend {
		numTargets = max(len(s.Blend.Color), 1)
	}
	blend := make([]wgpu.ColorTargetState, numTargets)
	for i := range blend {
		var cb driver.ColorBlend
		if len(s.Blend.Color) > 0 {
			cb = s.Blend.Color[0]
			if s.Blend.IndependentBlend && i < len(s.Blend.Color) {
				cb = s.Blend.Color[i]
			}
		}
		cts := wgpu.ColorTargetState{
			Format:    wgpu.TextureFormatRGBA8Unorm,
			WriteMask: colorWriteMask(cb.WriteMask),
		}
		if cb.Blend {
			cts.Blend = &wgpu.BlendState{
				Color: wgpu.BlendComponent{
					Operation: blendOp(cb.Op[0]),
					SrcFactor: blendFactor(cb.SrcFac[0]),
					DstFactor: blendFactor(cb.DstFac[0]),
				},
				Alpha: wgpu.BlendComponent{
					Operation: blendOp(cb.Op[1]),
					SrcFactor: blendFactor(cb.SrcFac[1]),
					DstFactor: blendFactor(cb.DstFac[1]),
				},
			}
		}
		blend[i] = cts
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  "pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs.mod,
			EntryPoint: s.VertFunc.Name,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs.mod,
			EntryPoint: s.FragFunc.Name,
			Targets:    blend,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  primitiveTopology(s.Topology),
			FrontFace: frontFace(s.Raster.Clockwise),
			CullMode:  cullMode(s.Raster.Cull),
		},
		Multisample: wgpu.MultisampleState{
			Count:                  uint32(max(s.Samples, 1)),
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	}
	if s.DS.DepthTest || s.DS.StencilTest {
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24PlusStencil8,
			DepthWriteEnabled: s.DS.DepthWrite,
			DepthCompare:      compareFunc(s.DS.DepthCmp),
		}
	}

	pl, err := g.dev.CreateRenderPipeline(desc)
	if err != nil {
		return nil, err
	}
	return &Pipeline{render: pl, graph: s}, nil
}

func (g *GPU) newCompPipeline(s *driver.CompState) (driver.Pipeline, error) {
	table, ok := s.Desc.(*DescTable)
	if !ok {
		return nil, errors.New("wgpu: foreign DescTable")
	}
	layout, err := table.pipelineLayout()
	if err != nil {
		return nil, err
	}
	cs, ok := s.Func.Code.(*ShaderCode)
	if !ok {
		return nil, errors.New("wgpu: foreign compute ShaderCode")
	}
	pl, err := g.dev.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "compute-pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     cs.mod,
			EntryPoint: s.Func.Name,
		},
	})
	if err != nil {
		return nil, err
	}
	return &Pipeline{compute: pl, comp: s}, nil
}

func colorWriteMask(m driver.ColorMask) wgpu.ColorWriteMask {
	var w wgpu.ColorWriteMask
	if m&driver.CRed != 0 {
		w |= wgpu.ColorWriteMaskRed
	}
	if m&driver.CGreen != 0 {
		w |= wgpu.ColorWriteMaskGreen
	}
	if m&driver.CBlue != 0 {
		w |= wgpu.ColorWriteMaskBlue
	}
	if m&driver.CAlpha != 0 {
		w |= wgpu.ColorWriteMaskAlpha
	}
	return w
}

func blendOp(o driver.BlendOp) wgpu.BlendOperation {
	switch o {
	case driver.BSubtract:
		return wgpu.BlendOperationSubtract
	case driver.BRevSubtract:
		return wgpu.BlendOperationReverseSubtract
	case driver.BMin:
		return wgpu.BlendOperationMin
	case driver.BMax:
		return wgpu.BlendOperationMax
	default:
		return wgpu.BlendOperationAdd
	}
}

func blendFactor(f driver.BlendFac) wgpu.BlendFactor {
	switch f {
	case driver.BOne:
		return wgpu.BlendFactorOne
	case driver.BSrcColor:
		return wgpu.BlendFactorSrc
	case driver.BInvSrcColor:
		return wgpu.BlendFactorOneMinusSrc
	case driver.BSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case driver.BInvSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	case driver.BDstColor:
		return wgpu.BlendFactorDst
	case driver.BInvDstColor:
		return wgpu.BlendFactorOneMinusDst
	case driver.BDstAlpha:
		return wgpu.BlendFactorDstAlpha
	case driver.BInvDstAlpha:
		return wgpu.BlendFactorOneMinusDstAlpha
	case driver.BSrcAlphaSaturated:
		return wgpu.BlendFactorSrcAlphaSaturated
	case driver.BBlendColor:
		return wgpu.BlendFactorConstant
	case driver.BInvBlendColor:
		return wgpu.BlendFactorOneMinusConstant
	default:
		return wgpu.BlendFactorZero
	}
}

func frontFace(clockwise bool) wgpu.FrontFace {
	if clockwise {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

func cullMode(c driver.CullMode) wgpu.CullMode {
	switch c {
	case driver.CFront:
		return wgpu.CullModeFront
	case driver.CBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}
