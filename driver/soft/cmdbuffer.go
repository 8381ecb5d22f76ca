// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package soft

import (
	"errors"

	"github.com/divide-framework/divide/driver"
)

// CmdBuffer implements driver.CmdBuffer. It only tracks the
// Begin/BeginPass/BeginWork/BeginBlit state machine: every command
// panics when the buffer is not recording, and End fails when a
// pass, work or blit block is still open. Commands are not checked
// against the open block (a Draw outside a pass is not caught).
// CopyBuffer and Fill act on host-visible buffer bytes as soon as
// they are recorded; every other command is discarded.
type CmdBuffer struct {
	recording bool
	ended     bool
	inPass    bool
	inWork    bool
	inBlit    bool
}

func (b *CmdBuffer) Destroy() {}

func (b *CmdBuffer) Begin() error {
	if b.recording {
		return errors.New("soft: CmdBuffer: already recording")
	}
	*b = CmdBuffer{recording: true}
	return nil
}

func (b *CmdBuffer) mustRecord() {
	if !b.recording {
		panic("soft: CmdBuffer: not recording")
	}
}

func (b *CmdBuffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, clear []driver.ClearValue) {
	b.mustRecord()
	b.inPass = true
}

func (b *CmdBuffer) NextSubpass() { b.mustRecord() }

func (b *CmdBuffer) EndPass() {
	b.mustRecord()
	b.inPass = false
}

func (b *CmdBuffer) BeginWork(wait bool) {
	b.mustRecord()
	b.inWork = true
}

func (b *CmdBuffer) EndWork() {
	b.mustRecord()
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

func (b *CmdBuffer) SetPipeline(pl driver.Pipeline)                                  { b.mustRecord() }
func (b *CmdBuffer) SetViewport(vp []driver.Viewport)                                { b.mustRecord() }
func (b *CmdBuffer) SetScissor(sciss []driver.Scissor)                               { b.mustRecord() }
func (b *CmdBuffer) SetBlendColor(r, g, bl, a float32)                               { b.mustRecord() }
func (b *CmdBuffer) SetStencilRef(value uint32)                                      { b.mustRecord() }
func (b *CmdBuffer) SetVertexBuf(start int, buf []driver.Buffer, off []int64)        { b.mustRecord() }
func (b *CmdBuffer) SetIndexBuf(format driver.IndexFmt, buf driver.Buffer, off int64) { b.mustRecord() }
func (b *CmdBuffer) SetDescTableGraph(table driver.DescTable, start int, heapCopy []int) {
	b.mustRecord()
}
func (b *CmdBuffer) SetDescTableComp(table driver.DescTable, start int, heapCopy []int) {
	b.mustRecord()
}

func (b *CmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int) { b.mustRecord() }
func (b *CmdBuffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	b.mustRecord()
}
func (b *CmdBuffer) Dispatch(grpCountX, grpCountY, grpCountZ int) { b.mustRecord() }

func (b *CmdBuffer) CopyBuffer(param *driver.BufferCopy) {
	b.mustRecord()
	dst, src := param.To.Bytes(), param.From.Bytes()
	if dst == nil || src == nil {
		return
	}
	copy(dst[param.ToOff:param.ToOff+param.Size], src[param.FromOff:])
}

func (b *CmdBuffer) CopyImage(param *driver.ImageCopy)       { b.mustRecord() }
func (b *CmdBuffer) CopyBufToImg(param *driver.BufImgCopy)   { b.mustRecord() }
func (b *CmdBuffer) CopyImgToBuf(param *driver.BufImgCopy)   { b.mustRecord() }

func (b *CmdBuffer) Fill(buf driver.Buffer, off int64, value byte, size int64) {
	b.mustRecord()
	data := buf.Bytes()
	if data == nil {
		return
	}
	for i := off; i < off+size; i++ {
		data[i] = value
	}
}

func (b *CmdBuffer) Barrier(bs []driver.Barrier)         { b.mustRecord() }
func (b *CmdBuffer) Transition(t []driver.Transition)    { b.mustRecord() }

func (b *CmdBuffer) End() error {
	if !b.recording {
		return errors.New("soft: CmdBuffer: End called while not recording")
	}
	if b.inPass || b.inWork || b.inBlit {
		b.Reset()
		return errors.New("soft: CmdBuffer: End called with an open block")
	}
	b.recording = false
	b.ended = true
	return nil
}

func (b *CmdBuffer) Reset() error {
	*b = CmdBuffer{}
	return nil
}
