// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package wgpu implements driver.Driver on top of cogentcore/webgpu,
// a Go binding of the wgpu-native library. Unlike driver/soft, this
// backend actually drives a GPU (or whatever software rasterizer
// wgpu-native falls back to when no hardware adapter is present),
// so it is the driver callers should prefer outside of headless
// tests.
package wgpu

import (
	"errors"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/divide-framework/divide/driver"
)

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver.
type Driver struct {
	mu  sync.Mutex
	gpu *GPU
}

func (d *Driver) Name() string { return "wgpu" }

func (d *Driver) Open() (driver.GPU, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gpu != nil {
		return d.gpu, nil
	}

	inst := wgpu.CreateInstance(nil)
	if inst == nil {
		return nil, driver.ErrNotInstalled
	}
	adapter, err := inst.RequestAdapter(&wgpu.RequestAdapterOptions{})
	if err != nil {
		return nil, driver.ErrNoDevice
	}
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8
	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "divide",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		return nil, driver.ErrNoDevice
	}

	g := &GPU{
		drv:     d,
		inst:    inst,
		adapter: adapter,
		dev:     dev,
		queue:   dev.GetQueue(),
	}
	d.gpu = g
	return g, nil
}

func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gpu == nil {
		return
	}
	d.gpu.dev.Release()
	d.gpu.adapter.Release()
	d.gpu.inst.Release()
	d.gpu = nil
}

// GPU implements driver.GPU over a wgpu.Device.
type GPU struct {
	drv     *Driver
	inst    *wgpu.Instance
	adapter *wgpu.Adapter
	dev     *wgpu.Device
	queue   *wgpu.Queue
}

func (g *GPU) Driver() driver.Driver { return g.drv }

// Commit encodes nothing itself (command buffers already recorded
// their own wgpu.CommandEncoder and produced a wgpu.CommandBuffer on
// End); this submits them to the queue in order.
func (g *GPU) Commit(cb []driver.CmdBuffer, ch chan<- error) {
	var err error
	for _, b := range cb {
		wb, ok := b.(*CmdBuffer)
		if !ok {
			err = errors.New("wgpu: foreign CmdBuffer")
			break
		}
		if wb.cmdBuf == nil {
			err = errors.New("wgpu: CmdBuffer was not ended")
			break
		}
		g.queue.Submit(wb.cmdBuf)
		wb.cmdBuf.Release()
		wb.cmdBuf = nil
	}
	if ch != nil {
		ch <- err
	}
}

func (g *GPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	return &CmdBuffer{gpu: g}, nil
}

func (g *GPU) NewRenderPass(att []driver.Attachment, sub []driver.Subpass) (driver.RenderPass, error) {
	return &RenderPass{att: att, sub: sub}, nil
}

func (g *GPU) NewShaderCode(data []byte) (driver.ShaderCode, error) {
	mod, err := g.dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: string(data)},
	})
	if err != nil {
		return nil, err
	}
	return &ShaderCode{mod: mod}, nil
}

func (g *GPU) NewDescHeap(ds []driver.Descriptor) (driver.DescHeap, error) {
	return &DescHeap{gpu: g, descs: ds}, nil
}

func (g *GPU) NewDescTable(dh []driver.DescHeap) (driver.DescTable, error) {
	t := &DescTable{gpu: g}
	for _, h := range dh {
		hp, ok := h.(*DescHeap)
		if !ok {
			return nil, errors.New("wgpu: foreign DescHeap")
		}
		t.heaps = append(t.heaps, hp)
	}
	return t, nil
}

func (g *GPU) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	buf, err := g.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "buffer",
		Size:             uint64(size),
		Usage:            bufferUsage(usg, visible),
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	b := &Buffer{gpu: g, buf: buf, size: size, visible: visible, usage: usg}
	if visible {
		b.shadow = make([]byte, size)
	}
	return b, nil
}

func (g *GPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Image, error) {
	tex, err := g.dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "image",
		Size: wgpu.Extent3D{
			Width:              uint32(size.Width),
			Height:             uint32(max(size.Height, 1)),
			DepthOrArrayLayers: uint32(max(layers, 1)),
		},
		MipLevelCount: uint32(levels),
		SampleCount:   uint32(samples),
		Dimension:     dimension(size),
		Format:        textureFormat(pf),
		Usage:         textureUsage(usg),
	})
	if err != nil {
		return nil, err
	}
	return &Image{gpu: g, tex: tex, fmt: pf, size: size, layers: layers, levels: levels, samples: samples}, nil
}

func (g *GPU) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	desc := &wgpu.SamplerDescriptor{
		AddressModeU: addrMode(spln.AddrU),
		AddressModeV: addrMode(spln.AddrV),
		AddressModeW: addrMode(spln.AddrW),
		MagFilter:    filterMode(spln.Mag),
		MinFilter:    filterMode(spln.Min),
		MipmapFilter: mipmapFilterMode(spln.Mipmap),
		LodMinClamp:  spln.MinLOD,
		LodMaxClamp:  spln.MaxLOD,
		MaxAnisotropy: uint16(spln.MaxAniso),
	}
	if spln.Cmp != driver.CNever {
		desc.Compare = compareFunc(spln.Cmp)
	}
	s, err := g.dev.CreateSampler(desc)
	if err != nil {
		return nil, err
	}
	return &Sampler{smp: s}, nil
}

func (g *GPU) Limits() driver.Limits {
	l := wgpu.DefaultLimits()
	return driver.Limits{
		MaxImage1D:        int(l.MaxTextureDimension1D),
		MaxImage2D:        int(l.MaxTextureDimension2D),
		MaxImageCube:      int(l.MaxTextureDimension2D),
		MaxImage3D:        int(l.MaxTextureDimension3D),
		MaxLayers:         int(l.MaxTextureArrayLayers),
		MaxDescHeaps:      int(l.MaxBindGroups),
		MaxDBuffer:        int(l.MaxStorageBuffersPerShaderStage),
		MaxDImage:         int(l.MaxStorageTexturesPerShaderStage),
		MaxDConstant:      int(l.MaxUniformBuffersPerShaderStage),
		MaxDTexture:       int(l.MaxSampledTexturesPerShaderStage),
		MaxDSampler:       int(l.MaxSamplersPerShaderStage),
		MaxDBufferRange:   int64(l.MaxStorageBufferBindingSize),
		MaxDConstantRange: int64(l.MaxUniformBufferBindingSize),
		MaxColorTargets:   8,
		MaxFBSize:         [2]int{int(l.MaxTextureDimension2D), int(l.MaxTextureDimension2D)},
		MaxFBLayers:       int(l.MaxTextureArrayLayers),
		MaxPointSize:      1,
		MaxViewports:      1,
		MaxVertexIn:       int(l.MaxVertexAttributes),
		MaxFragmentIn:     16,
		MaxDispatch:       [3]int{int(l.MaxComputeWorkgroupsPerDimension), int(l.MaxComputeWorkgroupsPerDimension), int(l.MaxComputeWorkgroupsPerDimension)},
	}
}

func (g *GPU) Features() driver.Features {
	return driver.Features{CubeArray: true}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
