// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package wgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/divide-framework/divide/driver"
)

// Buffer implements driver.Buffer over a wgpu.Buffer. Visible buffers
// keep a host-side shadow copy: wgpu's map/unmap cycle is asynchronous
// and this package favors the simpler synchronous contract the rest
// of the engine already assumes from driver/soft. Bytes written to
// the shadow are flushed to the GPU buffer by CmdBuffer.CopyBuffer and
// CmdBuffer.Fill, which go through the queue instead of a real map.
type Buffer struct {
	gpu     *GPU
	buf     *wgpu.Buffer
	size    int64
	visible bool
	usage   driver.Usage
	shadow  []byte
}

func (b *Buffer) Destroy() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

func (b *Buffer) Visible() bool { return b.visible }
func (b *Buffer) Cap() int64    { return b.size }

func (b *Buffer) Bytes() []byte {
	if !b.visible {
		return nil
	}
	return b.shadow
}

// Image implements driver.Image over a wgpu.Texture.
type Image struct {
	gpu     *GPU
	tex     *wgpu.Texture
	fmt     driver.PixelFmt
	size    driver.Dim3D
	layers  int
	levels  int
	samples int
}

func (img *Image) Destroy() {
	if img.tex != nil {
		img.tex.Release()
		img.tex = nil
	}
}

func (img *Image) NewView(typ driver.ViewType, layer, layers, level, levels int) (driver.ImageView, error) {
	desc := &wgpu.TextureViewDescriptor{
		Format:          textureFormat(img.fmt),
		Dimension:       viewDimension(typ),
		BaseMipLevel:    uint32(level),
		MipLevelCount:   uint32(levels),
		BaseArrayLayer:  uint32(layer),
		ArrayLayerCount: uint32(layers),
		Aspect:          wgpu.TextureAspectAll,
	}
	v, err := img.tex.CreateView(desc)
	if err != nil {
		return nil, err
	}
	return &ImageView{img: img, view: v}, nil
}

func viewDimension(typ driver.ViewType) wgpu.TextureViewDimension {
	switch typ {
	case driver.IView1D:
		return wgpu.TextureViewDimension1D
	case driver.IView1DArray:
		return wgpu.TextureViewDimension1D
	case driver.IView2DArray, driver.IView2DMSArray:
		return wgpu.TextureViewDimension2DArray
	case driver.IView3D:
		return wgpu.TextureViewDimension3D
	case driver.IViewCube:
		return wgpu.TextureViewDimensionCube
	case driver.IViewCubeArray:
		return wgpu.TextureViewDimensionCubeArray
	default:
		return wgpu.TextureViewDimension2D
	}
}

// ImageView implements driver.ImageView over a wgpu.TextureView.
type ImageView struct {
	img  *Image
	view *wgpu.TextureView
}

func (v *ImageView) Destroy() {
	if v.view != nil {
		v.view.Release()
		v.view = nil
	}
}

// Sampler implements driver.Sampler over a wgpu.Sampler.
type Sampler struct {
	smp *wgpu.Sampler
}

func (s *Sampler) Destroy() {
	if s.smp != nil {
		s.smp.Release()
		s.smp = nil
	}
}

// ShaderCode implements driver.ShaderCode over a wgpu.ShaderModule
// compiled from WGSL source.
type ShaderCode struct {
	mod *wgpu.ShaderModule
}

func (s *ShaderCode) Destroy() {
	if s.mod != nil {
		s.mod.Release()
		s.mod = nil
	}
}
