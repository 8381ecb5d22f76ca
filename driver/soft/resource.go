// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package soft

import "github.com/divide-framework/divide/driver"

// Buffer implements driver.Buffer as a plain host byte slice.
type Buffer struct {
	data    []byte
	visible bool
	usage   driver.Usage
}

func (b *Buffer) Destroy()       { b.data = nil }
func (b *Buffer) Visible() bool  { return b.visible }
func (b *Buffer) Cap() int64     { return int64(len(b.data)) }
func (b *Buffer) Bytes() []byte {
	if !b.visible {
		return nil
	}
	return b.data
}

// Image implements driver.Image. No pixel storage is kept; views
// only carry the subresource range they were created for, since
// nothing in this package ever samples or writes pixels.
type Image struct {
	fmt     driver.PixelFmt
	size    driver.Dim3D
	layers  int
	levels  int
	samples int
	usage   driver.Usage
}

func (img *Image) Destroy() {}

func (img *Image) NewView(typ driver.ViewType, layer, layers, level, levels int) (driver.ImageView, error) {
	return &ImageView{img: img, typ: typ, layer: layer, layers: layers, level: level, levels: levels}, nil
}

// ImageView implements driver.ImageView.
type ImageView struct {
	img    *Image
	typ    driver.ViewType
	layer  int
	layers int
	level  int
	levels int
}

func (v *ImageView) Destroy() {}

// Sampler implements driver.Sampler.
type Sampler struct {
	sampling driver.Sampling
}

func (s *Sampler) Destroy() {}

// ShaderCode implements driver.ShaderCode, keeping the raw bytes
// around only so callers can inspect what they uploaded in tests.
type ShaderCode struct {
	data []byte
}

func (s *ShaderCode) Destroy() { s.data = nil }

// Pipeline implements driver.Pipeline.
type Pipeline struct {
	state any
}

func (p *Pipeline) Destroy() {}

// DescHeap implements driver.DescHeap with plain slices, enough to
// let callers verify the bindings they set without a real shader
// reading them back.
type DescHeap struct {
	descs   []driver.Descriptor
	count   int
	buffers map[int][]driver.Buffer
	images  map[int][]driver.ImageView
	samplers map[int][]driver.Sampler
}

func (h *DescHeap) Destroy() {}

func (h *DescHeap) New(n int) error {
	if n == h.count {
		return nil
	}
	h.count = n
	h.buffers = make(map[int][]driver.Buffer)
	h.images = make(map[int][]driver.ImageView)
	h.samplers = make(map[int][]driver.Sampler)
	return nil
}

func (h *DescHeap) SetBuffer(cpy, nr, start int, buf []driver.Buffer, off, size []int64) {
	h.buffers[key(cpy, nr)] = buf
}

func (h *DescHeap) SetImage(cpy, nr, start int, iv []driver.ImageView) {
	h.images[key(cpy, nr)] = iv
}

func (h *DescHeap) SetSampler(cpy, nr, start int, splr []driver.Sampler) {
	h.samplers[key(cpy, nr)] = splr
}

func (h *DescHeap) Count() int { return h.count }

func key(cpy, nr int) int { return cpy<<16 | nr }

// DescTable implements driver.DescTable.
type DescTable struct {
	heaps []driver.DescHeap
}

func (t *DescTable) Destroy() {}

// RenderPass implements driver.RenderPass.
type RenderPass struct {
	att []driver.Attachment
	sub []driver.Subpass
}

func (p *RenderPass) Destroy() {}

func (p *RenderPass) NewFB(iv []driver.ImageView, width, height, layers int) (driver.Framebuf, error) {
	return &Framebuf{iv: iv, width: width, height: height, layers: layers}, nil
}

// Framebuf implements driver.Framebuf.
type Framebuf struct {
	iv             []driver.ImageView
	width, height  int
	layers         int
}

func (f *Framebuf) Destroy() {}
