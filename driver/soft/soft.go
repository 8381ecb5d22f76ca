// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package soft implements a CPU-only driver.Driver that keeps every
// resource as plain host memory and reports Commit results
// synchronously. It does not rasterize or shade anything; its purpose is
// to give headless tests and CI a driver.GPU that behaves correctly
// with respect to the interface's state machine (Begin/End pairing,
// resource lifetime, descriptor bookkeeping) without requiring a
// real GPU or a platform-specific API.
package soft

import (
	"errors"
	"sync"

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

func (d *Driver) Name() string { return "soft" }

func (d *Driver) Open() (driver.GPU, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gpu == nil {
		d.gpu = &GPU{drv: d}
	}
	return d.gpu, nil
}

func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gpu = nil
}

// GPU implements driver.GPU over host memory only.
type GPU struct {
	drv *Driver
}

func (g *GPU) Driver() driver.Driver { return g.drv }

// Commit checks, in order, that every command buffer is a soft
// CmdBuffer that was ended, and reports the result synchronously; it
// executes nothing, since CmdBuffer keeps no recorded commands. There
// is no concurrent device
// to wait on, so by the time Commit returns the work is already
// "done"; ch still receives the result, matching the asynchronous
// contract callers are written against.
func (g *GPU) Commit(cb []driver.CmdBuffer, ch chan<- error) {
	var err error
	for _, b := range cb {
		sb, ok := b.(*CmdBuffer)
		if !ok {
			err = errors.New("soft: foreign CmdBuffer")
			break
		}
		if !sb.ended {
			err = errors.New("soft: committed CmdBuffer was not ended")
			break
		}
	}
	if ch != nil {
		ch <- err
	}
}

func (g *GPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	return &CmdBuffer{}, nil
}

func (g *GPU) NewRenderPass(att []driver.Attachment, sub []driver.Subpass) (driver.RenderPass, error) {
	return &RenderPass{att: att, sub: sub}, nil
}

func (g *GPU) NewShaderCode(data []byte) (driver.ShaderCode, error) {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &ShaderCode{data: cp}, nil
}

func (g *GPU) NewDescHeap(ds []driver.Descriptor) (driver.DescHeap, error) {
	return &DescHeap{descs: ds}, nil
}

func (g *GPU) NewDescTable(dh []driver.DescHeap) (driver.DescTable, error) {
	return &DescTable{heaps: dh}, nil
}

func (g *GPU) NewPipeline(state any) (driver.Pipeline, error) {
	switch state.(type) {
	case *driver.GraphState, *driver.CompState:
		return &Pipeline{state: state}, nil
	default:
		return nil, errors.New("soft: NewPipeline: unexpected state type")
	}
}

func (g *GPU) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	if size <= 0 {
		return nil, errors.New("soft: NewBuffer: invalid size")
	}
	return &Buffer{data: make([]byte, size), visible: visible, usage: usg}, nil
}

func (g *GPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Image, error) {
	if layers < 1 || levels < 1 || samples < 1 {
		return nil, errors.New("soft: NewImage: invalid parameter")
	}
	return &Image{fmt: pf, size: size, layers: layers, levels: levels, samples: samples, usage: usg}, nil
}

func (g *GPU) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	s := Sampler{}
	if spln != nil {
		s.sampling = *spln
	}
	return &s, nil
}

// Features reports every optional capability as supported: soft has
// no hardware constraint behind it.
func (g *GPU) Features() driver.Features {
	return driver.Features{CubeArray: true}
}

// Limits returns generous limits: soft has no hardware constraint,
// only what the rest of the engine assumes is reasonable.
func (g *GPU) Limits() driver.Limits {
	return driver.Limits{
		MaxImage1D:        16384,
		MaxImage2D:        16384,
		MaxImageCube:      16384,
		MaxImage3D:        2048,
		MaxLayers:         2048,
		MaxDescHeaps:      8,
		MaxDBuffer:        64,
		MaxDImage:         64,
		MaxDConstant:      64,
		MaxDTexture:       64,
		MaxDSampler:       64,
		MaxDBufferRange:   1 << 30,
		MaxDConstantRange: 1 << 16,
		MaxColorTargets:   8,
		MaxFBSize:         [2]int{16384, 16384},
		MaxFBLayers:       2048,
		MaxPointSize:      256,
		MaxViewports:      16,
		MaxVertexIn:       32,
		MaxFragmentIn:     32,
		MaxDispatch:       [3]int{65535, 65535, 65535},
	}
}
