// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package wgpu

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/divide-framework/divide/driver"
)

// CmdBuffer implements driver.CmdBuffer over a wgpu.CommandEncoder.
// Unlike driver/soft, which only validates state transitions, this
// type issues real wgpu calls as each Set*/Draw*/Dispatch/Copy* method
// is invoked, following the same Begin.../End... bracketing pattern
// used for command recording.
type CmdBuffer struct {
	gpu    *GPU
	enc    *wgpu.CommandEncoder
	cmdBuf *wgpu.CommandBuffer

	pass     *wgpu.RenderPassEncoder
	compPass *wgpu.ComputePassEncoder

	curFB      *Framebuf
	curRP      *RenderPass
	subpass    int
	clear      []driver.ClearValue

	recording bool
	inPass    bool
	inWork    bool
	inBlit    bool
}

func (b *CmdBuffer) Destroy() {
	b.Reset()
}

func (b *CmdBuffer) mustRecord() {
	if !b.recording {
		panic("wgpu: CmdBuffer not recording")
	}
}

func (b *CmdBuffer) Begin() error {
	if b.enc != nil {
		b.enc.Release()
		b.enc = nil
	}
	enc, err := b.gpu.dev.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "cmdbuffer"})
	if err != nil {
		return err
	}
	b.enc = enc
	b.recording = true
	return nil
}

func (b *CmdBuffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, clear []driver.ClearValue) {
	b.mustRecord()
	rp, ok := pass.(*RenderPass)
	if !ok {
		panic("wgpu: foreign RenderPass")
	}
	f, ok := fb.(*Framebuf)
	if !ok {
		panic("wgpu: foreign Framebuf")
	}
	b.curRP = rp
	b.curFB = f
	b.clear = clear
	b.subpass = 0
	b.beginSubpass()
	b.inPass = true
}

func (b *CmdBuffer) beginSubpass() {
	sub := b.curRP.sub[b.subpass]
	var color []wgpu.RenderPassColorAttachment
	for _, idx := range sub.Color {
		v := b.curFB.views[idx]
		op := wgpu.LoadOpLoad
		var cv [4]float32
		if idx < len(b.curRP.att) && b.curRP.att[idx].Load[0] == driver.LClear {
			op = wgpu.LoadOpClear
		}
		if idx < len(b.clear) {
			cv = b.clear[idx].Color
		}
		storeOp := wgpu.StoreOpStore
		if idx < len(b.curRP.att) && b.curRP.att[idx].Store[0] == driver.SDontCare {
			storeOp = wgpu.StoreOpDiscard
		}
		color = append(color, wgpu.RenderPassColorAttachment{
			View:    v.view,
			LoadOp:  op,
			StoreOp: storeOp,
			ClearValue: wgpu.Color{
				R: float64(cv[0]), G: float64(cv[1]), B: float64(cv[2]), A: float64(cv[3]),
			},
		})
	}
	desc := &wgpu.RenderPassDescriptor{
		Label:                  "renderpass",
		ColorAttachments:       color,
	}
	if sub.DS >= 0 && sub.DS < len(b.curFB.views) {
		v := b.curFB.views[sub.DS]
		depthOp := wgpu.LoadOpLoad
		if sub.DS < len(b.curRP.att) && b.curRP.att[sub.DS].Load[0] == driver.LClear {
			depthOp = wgpu.LoadOpClear
		}
		depthClear := float32(1)
		if sub.DS < len(b.clear) {
			depthClear = b.clear[sub.DS].Depth
		}
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            v.view,
			DepthLoadOp:     depthOp,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: depthClear,
		}
	}
	b.pass = b.enc.BeginRenderPass(desc)
}

func (b *CmdBuffer) NextSubpass() {
	b.mustRecord()
	b.pass.End()
	b.pass.Release()
	b.subpass++
	b.beginSubpass()
}

func (b *CmdBuffer) EndPass() {
	b.mustRecord()
	b.pass.End()
	b.pass.Release()
	b.pass = nil
	b.inPass = false
}

func (b *CmdBuffer) BeginWork(wait bool) {
	b.mustRecord()
	b.compPass = b.enc.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "compute"})
	b.inWork = true
}

func (b *CmdBuffer) EndWork() {
	b.mustRecord()
	b.compPass.End()
	b.compPass.Release()
	b.compPass = nil
	b.inWork = false
}

func (b *CmdBuffer) BeginBlit(wait bool) {
	b.mustRecord()
	b.inBlit = true
}

func (b *CmdBuffer) EndBlit() {
	b.mustRecord()
	b.inBlit = false
}

func (b *CmdBuffer) SetPipeline(pl driver.Pipeline) {
	b.mustRecord()
	p, ok := pl.(*Pipeline)
	if !ok {
		panic("wgpu: foreign Pipeline")
	}
	switch {
	case b.inPass && p.render != nil:
		b.pass.SetPipeline(p.render)
	case b.inWork && p.compute != nil:
		b.compPass.SetPipeline(p.compute)
	}
}

func (b *CmdBuffer) SetViewport(vp []driver.Viewport) {
	b.mustRecord()
	if len(vp) == 0 || b.pass == nil {
		return
	}
	v := vp[0]
	b.pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.Znear, v.Zfar)
}

func (b *CmdBuffer) SetScissor(sciss []driver.Scissor) {
	b.mustRecord()
	if len(sciss) == 0 || b.pass == nil {
		return
	}
	s := sciss[0]
	b.pass.SetScissorRect(uint32(s.X), uint32(s.Y), uint32(s.Width), uint32(s.Height))
}

func (b *CmdBuffer) SetBlendColor(r, g, bl, a float32) {
	b.mustRecord()
	if b.pass == nil {
		return
	}
	b.pass.SetBlendConstant(&wgpu.Color{R: float64(r), G: float64(g), B: float64(bl), A: float64(a)})
}

func (b *CmdBuffer) SetStencilRef(value uint32) {
	b.mustRecord()
	if b.pass == nil {
		return
	}
	b.pass.SetStencilReference(value)
}

func (b *CmdBuffer) SetVertexBuf(start int, buf []driver.Buffer, off []int64) {
	b.mustRecord()
	if b.pass == nil {
		return
	}
	for i, x := range buf {
		wb, ok := x.(*Buffer)
		if !ok {
			continue
		}
		o := uint64(0)
		if i < len(off) {
			o = uint64(off[i])
		}
		b.pass.SetVertexBuffer(uint32(start+i), wb.buf, o, wgpu.WholeSize)
	}
}

func (b *CmdBuffer) SetIndexBuf(format driver.IndexFmt, buf driver.Buffer, off int64) {
	b.mustRecord()
	if b.pass == nil {
		return
	}
	wb, ok := buf.(*Buffer)
	if !ok {
		panic("wgpu: foreign Buffer")
	}
	b.pass.SetIndexBuffer(wb.buf, indexFormat(format), uint64(off), wgpu.WholeSize)
}

func (b *CmdBuffer) SetDescTableGraph(table driver.DescTable, start int, heapCopy []int) {
	b.mustRecord()
	b.setDescTable(table, start, heapCopy, true)
}

func (b *CmdBuffer) SetDescTableComp(table driver.DescTable, start int, heapCopy []int) {
	b.mustRecord()
	b.setDescTable(table, start, heapCopy, false)
}

func (b *CmdBuffer) setDescTable(table driver.DescTable, start int, heapCopy []int, graph bool) {
	t, ok := table.(*DescTable)
	if !ok {
		panic("wgpu: foreign DescTable")
	}
	for i, h := range t.heaps {
		cpy := 0
		if i < len(heapCopy) {
			cpy = heapCopy[i]
		}
		group, err := h.rebuild(cpy)
		if err != nil || group == nil {
			continue
		}
		idx := uint32(start + i)
		if graph && b.pass != nil {
			b.pass.SetBindGroup(idx, group, nil)
		} else if !graph && b.compPass != nil {
			b.compPass.SetBindGroup(idx, group, nil)
		}
	}
}

func (b *CmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int) {
	b.mustRecord()
	b.pass.Draw(uint32(vertCount), uint32(instCount), uint32(baseVert), uint32(baseInst))
}

func (b *CmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	b.mustRecord()
	b.pass.DrawIndexed(uint32(idxCount), uint32(instCount), uint32(baseIdx), int32(vertOff), uint32(baseInst))
}

func (b *CmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) {
	b.mustRecord()
	b.compPass.DispatchWorkgroups(uint32(grpCountX), uint32(grpCountY), uint32(grpCountZ))
}

func (b *CmdBuffer) CopyBuffer(param *driver.BufferCopy) {
	b.mustRecord()
	from, ok := param.From.(*Buffer)
	if !ok {
		panic("wgpu: foreign Buffer")
	}
	to, ok := param.To.(*Buffer)
	if !ok {
		panic("wgpu: foreign Buffer")
	}
	if from.visible && from.shadow != nil {
		b.gpu.queue.WriteBuffer(from.buf, uint64(param.FromOff), from.shadow[param.FromOff:param.FromOff+param.Size])
	}
	b.enc.CopyBufferToBuffer(from.buf, uint64(param.FromOff), to.buf, uint64(param.ToOff), uint64(param.Size))
	if to.visible && to.shadow != nil && from.shadow != nil {
		copy(to.shadow[param.ToOff:param.ToOff+param.Size], from.shadow[param.FromOff:param.FromOff+param.Size])
	}
}

func (b *CmdBuffer) CopyImage(param *driver.ImageCopy) {
	b.mustRecord()
	from, ok := param.From.(*Image)
	if !ok {
		panic("wgpu: foreign Image")
	}
	to, ok := param.To.(*Image)
	if !ok {
		panic("wgpu: foreign Image")
	}
	src := wgpu.ImageCopyTexture{
		Texture:  from.tex,
		MipLevel: uint32(param.FromLevel),
		Origin:   wgpu.Origin3D{X: uint32(param.FromOff.X), Y: uint32(param.FromOff.Y), Z: uint32(param.FromOff.Z)},
	}
	dst := wgpu.ImageCopyTexture{
		Texture:  to.tex,
		MipLevel: uint32(param.ToLevel),
		Origin:   wgpu.Origin3D{X: uint32(param.ToOff.X), Y: uint32(param.ToOff.Y), Z: uint32(param.ToOff.Z)},
	}
	size := wgpu.Extent3D{
		Width:              uint32(param.Size.Width),
		Height:             uint32(max(param.Size.Height, 1)),
		DepthOrArrayLayers: uint32(max(param.Layers, 1)),
	}
	b.enc.CopyTextureToTexture(&src, &dst, &size)
}

func (b *CmdBuffer) CopyBufToImg(param *driver.BufImgCopy) {
	b.mustRecord()
	buf, ok := param.Buf.(*Buffer)
	if !ok {
		panic("wgpu: foreign Buffer")
	}
	img, ok := param.Img.(*Image)
	if !ok {
		panic("wgpu: foreign Image")
	}
	src := wgpu.ImageCopyBuffer{
		Buffer: buf.buf,
		Layout: wgpu.TextureDataLayout{
			Offset:       uint64(param.BufOff),
			BytesPerRow:  uint32(param.Stride[0]),
			RowsPerImage: uint32(param.Stride[1]),
		},
	}
	dst := wgpu.ImageCopyTexture{
		Texture:  img.tex,
		MipLevel: uint32(param.Level),
		Origin:   wgpu.Origin3D{X: uint32(param.ImgOff.X), Y: uint32(param.ImgOff.Y), Z: uint32(param.ImgOff.Z)},
	}
	size := wgpu.Extent3D{
		Width:              uint32(param.Size.Width),
		Height:             uint32(max(param.Size.Height, 1)),
		DepthOrArrayLayers: uint32(max(param.Size.Depth, 1)),
	}
	b.enc.CopyBufferToTexture(&src, &dst, &size)
}

func (b *CmdBuffer) CopyImgToBuf(param *driver.BufImgCopy) {
	b.mustRecord()
	buf, ok := param.Buf.(*Buffer)
	if !ok {
		panic("wgpu: foreign Buffer")
	}
	img, ok := param.Img.(*Image)
	if !ok {
		panic("wgpu: foreign Image")
	}
	src := wgpu.ImageCopyTexture{
		Texture:  img.tex,
		MipLevel: uint32(param.Level),
		Origin:   wgpu.Origin3D{X: uint32(param.ImgOff.X), Y: uint32(param.ImgOff.Y), Z: uint32(param.ImgOff.Z)},
	}
	dst := wgpu.ImageCopyBuffer{
		Buffer: buf.buf,
		Layout: wgpu.TextureDataLayout{
			Offset:       uint64(param.BufOff),
			BytesPerRow:  uint32(param.Stride[0]),
			RowsPerImage: uint32(param.Stride[1]),
		},
	}
	size := wgpu.Extent3D{
		Width:              uint32(param.Size.Width),
		Height:             uint32(max(param.Size.Height, 1)),
		DepthOrArrayLayers: uint32(max(param.Size.Depth, 1)),
	}
	b.enc.CopyTextureToBuffer(&src, &dst, &size)
}

func (b *CmdBuffer) Fill(buf driver.Buffer, off int64, value byte, size int64) {
	b.mustRecord()
	wb, ok := buf.(*Buffer)
	if !ok {
		panic("wgpu: foreign Buffer")
	}
	if wb.visible && wb.shadow != nil {
		fill := wb.shadow[off : off+size]
		for i := range fill {
			fill[i] = value
		}
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = value
	}
	b.gpu.queue.WriteBuffer(wb.buf, uint64(off), data)
}

// Barrier is a no-op: wgpu schedules synchronization implicitly from
// resource usage declared at bind time.
func (b *CmdBuffer) Barrier(bs []driver.Barrier) {}

// Transition is a no-op for the same reason as Barrier.
func (b *CmdBuffer) Transition(t []driver.Transition) {}

func (b *CmdBuffer) End() error {
	if !b.recording {
		return errors.New("wgpu: CmdBuffer not recording")
	}
	if b.inPass || b.inWork || b.inBlit {
		b.Reset()
		return errors.New("wgpu: CmdBuffer ended with an open Begin* block")
	}
	cb, err := b.enc.Finish(nil)
	if err != nil {
		b.Reset()
		return err
	}
	b.cmdBuf = cb
	b.enc.Release()
	b.enc = nil
	b.recording = false
	return nil
}

func (b *CmdBuffer) Reset() error {
	if b.pass != nil {
		b.pass.Release()
		b.pass = nil
	}
	if b.compPass != nil {
		b.compPass.Release()
		b.compPass = nil
	}
	if b.enc != nil {
		b.enc.Release()
		b.enc = nil
	}
	if b.cmdBuf != nil {
		b.cmdBuf.Release()
		b.cmdBuf = nil
	}
	b.recording = false
	b.inPass = false
	b.inWork = false
	b.inBlit = false
	return nil
}
