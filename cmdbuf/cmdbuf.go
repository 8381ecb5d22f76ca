// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package cmdbuf records GPU commands into a typed, inspectable
// sequence before they are replayed onto a driver.CmdBuffer.
//
// Recording into an intermediate representation, rather than calling
// the driver directly, lets the render pass manager batch equivalent
// draw calls, strip redundant state changes, and validate a frame's
// commands - all without touching the GPU - before a single
// driver.CmdBuffer replay pays for it.
package cmdbuf

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/divide-framework/divide/driver"
)

// Kind identifies the type of a recorded Cmd.
type Kind int

// Recorded command kinds. This set is closed: Buffer only ever
// produces and consumes these.
const (
	KindBeginPass Kind = iota
	KindNextSubpass
	KindEndPass
	KindBeginWork
	KindEndWork
	KindBeginBlit
	KindEndBlit
	KindBindPipeline
	KindSetViewport
	KindSetScissor
	KindSetBlendColor
	KindSetStencilRef
	KindSetVertexBuf
	KindSetIndexBuf
	KindSetDescTableGraph
	KindSetDescTableComp
	KindDraw
	KindDrawIndexed
	KindDispatch
	KindCopyBuffer
	KindCopyImage
	KindCopyBufToImg
	KindCopyImgToBuf
	KindFill
	KindBarrier
	KindTransition
)

func (k Kind) String() string {
	switch k {
	case KindBeginPass:
		return "BeginPass"
	case KindNextSubpass:
		return "NextSubpass"
	case KindEndPass:
		return "EndPass"
	case KindBeginWork:
		return "BeginWork"
	case KindEndWork:
		return "EndWork"
	case KindBeginBlit:
		return "BeginBlit"
	case KindEndBlit:
		return "EndBlit"
	case KindBindPipeline:
		return "BindPipeline"
	case KindSetViewport:
		return "SetViewport"
	case KindSetScissor:
		return "SetScissor"
	case KindSetBlendColor:
		return "SetBlendColor"
	case KindSetStencilRef:
		return "SetStencilRef"
	case KindSetVertexBuf:
		return "SetVertexBuf"
	case KindSetIndexBuf:
		return "SetIndexBuf"
	case KindSetDescTableGraph:
		return "SetDescTableGraph"
	case KindSetDescTableComp:
		return "SetDescTableComp"
	case KindDraw:
		return "Draw"
	case KindDrawIndexed:
		return "DrawIndexed"
	case KindDispatch:
		return "Dispatch"
	case KindCopyBuffer:
		return "CopyBuffer"
	case KindCopyImage:
		return "CopyImage"
	case KindCopyBufToImg:
		return "CopyBufToImg"
	case KindCopyImgToBuf:
		return "CopyImgToBuf"
	case KindFill:
		return "Fill"
	case KindBarrier:
		return "Barrier"
	case KindTransition:
		return "Transition"
	default:
		return "!cmdbuf.Kind"
	}
}

// Cmd is a single recorded command. Arg holds one of the arg*
// payload types defined below, matching Kind.
type Cmd struct {
	Kind Kind
	Arg  any
}

type argBeginPass struct {
	Pass  driver.RenderPass
	FB    driver.Framebuf
	Clear []driver.ClearValue
}

type argBeginWork struct{ Wait bool }
type argBeginBlit struct{ Wait bool }

type argPipeline struct{ Pipeline driver.Pipeline }

type argViewport struct{ VP []driver.Viewport }
type argScissor struct{ Sciss []driver.Scissor }

type argBlendColor struct{ R, G, B, A float32 }
type argStencilRef struct{ Value uint32 }

type argVertexBuf struct {
	Start int
	Buf   []driver.Buffer
	Off   []int64
}

type argIndexBuf struct {
	Format driver.IndexFmt
	Buf    driver.Buffer
	Off    int64
}

type argDescTable struct {
	Table    driver.DescTable
	Start    int
	HeapCopy []int
}

type argDraw struct{ VertCount, InstCount, BaseVert, BaseInst int }
type argDrawIndexed struct{ IdxCount, InstCount, BaseIdx, VertOff, BaseInst int }
type argDispatch struct{ GrpX, GrpY, GrpZ int }

type argCopyBuffer struct{ Param *driver.BufferCopy }
type argCopyImage struct{ Param *driver.ImageCopy }
type argCopyBufImg struct{ Param *driver.BufImgCopy }

type argFill struct {
	Buf   driver.Buffer
	Off   int64
	Value byte
	Size  int64
}

type argBarrier struct{ B []driver.Barrier }
type argTransition struct{ T []driver.Transition }

// Buffer records a sequence of Cmds.
type Buffer struct {
	cmds []Cmd
}

// New creates an empty Buffer.
func New() *Buffer { return &Buffer{} }

// Add appends a single already-built Cmd.
func (b *Buffer) Add(c Cmd) { b.cmds = append(b.cmds, c) }

func push(b *Buffer, kind Kind, arg any) { b.cmds = append(b.cmds, Cmd{Kind: kind, Arg: arg}) }

// Len returns the number of recorded commands.
func (b *Buffer) Len() int { return len(b.cmds) }

// Cmds returns the recorded commands. The slice aliases Buffer's
// backing storage and must not be modified.
func (b *Buffer) Cmds() []Cmd { return b.cmds }

// Reset discards every recorded command.
func (b *Buffer) Reset() { b.cmds = b.cmds[:0] }

func (b *Buffer) BeginPass(pass driver.RenderPass, fb driver.Framebuf, clear []driver.ClearValue) {
	push(b, KindBeginPass, argBeginPass{pass, fb, clear})
}
func (b *Buffer) NextSubpass()        { push(b, KindNextSubpass, nil) }
func (b *Buffer) EndPass()            { push(b, KindEndPass, nil) }
func (b *Buffer) BeginWork(wait bool) { push(b, KindBeginWork, argBeginWork{wait}) }
func (b *Buffer) EndWork()            { push(b, KindEndWork, nil) }
func (b *Buffer) BeginBlit(wait bool) { push(b, KindBeginBlit, argBeginBlit{wait}) }
func (b *Buffer) EndBlit()            { push(b, KindEndBlit, nil) }

func (b *Buffer) SetPipeline(pl driver.Pipeline) { push(b, KindBindPipeline, argPipeline{pl}) }
func (b *Buffer) SetViewport(vp []driver.Viewport) {
	push(b, KindSetViewport, argViewport{append([]driver.Viewport(nil), vp...)})
}
func (b *Buffer) SetScissor(sciss []driver.Scissor) {
	push(b, KindSetScissor, argScissor{append([]driver.Scissor(nil), sciss...)})
}
func (b *Buffer) SetBlendColor(r, g, bb, a float32) {
	push(b, KindSetBlendColor, argBlendColor{r, g, bb, a})
}
func (b *Buffer) SetStencilRef(value uint32) { push(b, KindSetStencilRef, argStencilRef{value}) }
func (b *Buffer) SetVertexBuf(start int, buf []driver.Buffer, off []int64) {
	push(b, KindSetVertexBuf, argVertexBuf{start, append([]driver.Buffer(nil), buf...), append([]int64(nil), off...)})
}
func (b *Buffer) SetIndexBuf(format driver.IndexFmt, buf driver.Buffer, off int64) {
	push(b, KindSetIndexBuf, argIndexBuf{format, buf, off})
}
func (b *Buffer) SetDescTableGraph(table driver.DescTable, start int, heapCopy []int) {
	push(b, KindSetDescTableGraph, argDescTable{table, start, append([]int(nil), heapCopy...)})
}
func (b *Buffer) SetDescTableComp(table driver.DescTable, start int, heapCopy []int) {
	push(b, KindSetDescTableComp, argDescTable{table, start, append([]int(nil), heapCopy...)})
}
func (b *Buffer) Draw(vertCount, instCount, baseVert, baseInst int) {
	push(b, KindDraw, argDraw{vertCount, instCount, baseVert, baseInst})
}
func (b *Buffer) DrawIndexed(idxCount, instCount, baseIdx, vertOff, baseInst int) {
	push(b, KindDrawIndexed, argDrawIndexed{idxCount, instCount, baseIdx, vertOff, baseInst})
}
func (b *Buffer) Dispatch(grpX, grpY, grpZ int) { push(b, KindDispatch, argDispatch{grpX, grpY, grpZ}) }
func (b *Buffer) CopyBuffer(param *driver.BufferCopy) { push(b, KindCopyBuffer, argCopyBuffer{param}) }
func (b *Buffer) CopyImage(param *driver.ImageCopy)   { push(b, KindCopyImage, argCopyImage{param}) }
func (b *Buffer) CopyBufToImg(param *driver.BufImgCopy) {
	push(b, KindCopyBufToImg, argCopyBufImg{param})
}
func (b *Buffer) CopyImgToBuf(param *driver.BufImgCopy) {
	push(b, KindCopyImgToBuf, argCopyBufImg{param})
}
func (b *Buffer) Fill(buf driver.Buffer, off int64, value byte, size int64) {
	push(b, KindFill, argFill{buf, off, value, size})
}
func (b *Buffer) Barrier(bs []driver.Barrier) {
	push(b, KindBarrier, argBarrier{append([]driver.Barrier(nil), bs...)})
}
func (b *Buffer) Transition(t []driver.Transition) {
	push(b, KindTransition, argTransition{append([]driver.Transition(nil), t...)})
}

// Replay issues every recorded command onto cb, in order. cb must
// already have had Begin called on it.
func (b *Buffer) Replay(cb driver.CmdBuffer) {
	for _, c := range b.cmds {
		switch c.Kind {
		case KindBeginPass:
			a := c.Arg.(argBeginPass)
			cb.BeginPass(a.Pass, a.FB, a.Clear)
		case KindNextSubpass:
			cb.NextSubpass()
		case KindEndPass:
			cb.EndPass()
		case KindBeginWork:
			cb.BeginWork(c.Arg.(argBeginWork).Wait)
		case KindEndWork:
			cb.EndWork()
		case KindBeginBlit:
			cb.BeginBlit(c.Arg.(argBeginBlit).Wait)
		case KindEndBlit:
			cb.EndBlit()
		case KindBindPipeline:
			cb.SetPipeline(c.Arg.(argPipeline).Pipeline)
		case KindSetViewport:
			cb.SetViewport(c.Arg.(argViewport).VP)
		case KindSetScissor:
			cb.SetScissor(c.Arg.(argScissor).Sciss)
		case KindSetBlendColor:
			a := c.Arg.(argBlendColor)
			cb.SetBlendColor(a.R, a.G, a.B, a.A)
		case KindSetStencilRef:
			cb.SetStencilRef(c.Arg.(argStencilRef).Value)
		case KindSetVertexBuf:
			a := c.Arg.(argVertexBuf)
			cb.SetVertexBuf(a.Start, a.Buf, a.Off)
		case KindSetIndexBuf:
			a := c.Arg.(argIndexBuf)
			cb.SetIndexBuf(a.Format, a.Buf, a.Off)
		case KindSetDescTableGraph:
			a := c.Arg.(argDescTable)
			cb.SetDescTableGraph(a.Table, a.Start, a.HeapCopy)
		case KindSetDescTableComp:
			a := c.Arg.(argDescTable)
			cb.SetDescTableComp(a.Table, a.Start, a.HeapCopy)
		case KindDraw:
			a := c.Arg.(argDraw)
			cb.Draw(a.VertCount, a.InstCount, a.BaseVert, a.BaseInst)
		case KindDrawIndexed:
			a := c.Arg.(argDrawIndexed)
			cb.DrawIndexed(a.IdxCount, a.InstCount, a.BaseIdx, a.VertOff, a.BaseInst)
		case KindDispatch:
			a := c.Arg.(argDispatch)
			cb.Dispatch(a.GrpX, a.GrpY, a.GrpZ)
		case KindCopyBuffer:
			cb.CopyBuffer(c.Arg.(argCopyBuffer).Param)
		case KindCopyImage:
			cb.CopyImage(c.Arg.(argCopyImage).Param)
		case KindCopyBufToImg:
			cb.CopyBufToImg(c.Arg.(argCopyBufImg).Param)
		case KindCopyImgToBuf:
			cb.CopyImgToBuf(c.Arg.(argCopyBufImg).Param)
		case KindFill:
			a := c.Arg.(argFill)
			cb.Fill(a.Buf, a.Off, a.Value, a.Size)
		case KindBarrier:
			cb.Barrier(c.Arg.(argBarrier).B)
		case KindTransition:
			cb.Transition(c.Arg.(argTransition).T)
		}
	}
}

// boundary kinds flush any pending draw-merge group in Batch before
// being passed through unchanged: state outside pipeline/desc-table
// binding, or anything that is not itself mergeable.
func isBoundary(k Kind) bool {
	switch k {
	case KindBindPipeline, KindSetDescTableGraph, KindDraw:
		return false
	default:
		return true
	}
}

type drawGroup struct {
	pipeline  driver.Pipeline
	descTable driver.DescTable
	descStart int
	vertCount int
	baseVert  int
	instCount int
}

// Batch merges the Draw calls between two non-draw commands that
// share the same bound pipeline, descriptor table and vertex range
// into a single instanced Draw, even when draws for other bindings
// are interleaved with them, folding the BindPipeline/SetDescTableGraph state
// changes that preceded them into one emission per distinct binding.
// It is idempotent: batching an already-batched Buffer is a no-op.
func (b *Buffer) Batch() {
	out := make([]Cmd, 0, len(b.cmds))
	var groups []*drawGroup
	index := map[[2]any]int{}

	var curPipeline driver.Pipeline
	var curTable driver.DescTable
	var curStart int
	havePipeline := false

	flush := func() {
		for _, g := range groups {
			out = append(out, Cmd{KindBindPipeline, argPipeline{g.pipeline}})
			if g.descTable != nil {
				out = append(out, Cmd{KindSetDescTableGraph, argDescTable{g.descTable, g.descStart, nil}})
			}
			out = append(out, Cmd{KindDraw, argDraw{g.vertCount, g.instCount, g.baseVert, 0}})
		}
		groups = groups[:0]
		index = map[[2]any]int{}
	}

	for _, c := range b.cmds {
		switch c.Kind {
		case KindBindPipeline:
			curPipeline = c.Arg.(argPipeline).Pipeline
			havePipeline = true
		case KindSetDescTableGraph:
			a := c.Arg.(argDescTable)
			curTable, curStart = a.Table, a.Start
		case KindDraw:
			if !havePipeline {
				flush()
				out = append(out, c)
				continue
			}
			a := c.Arg.(argDraw)
			key := [2]any{curPipeline, fmt.Sprintf("%p/%d/%d", curTable, a.VertCount, a.BaseVert)}
			if i, ok := index[key]; ok {
				groups[i].instCount += a.InstCount
				continue
			}
			g := &drawGroup{
				pipeline:  curPipeline,
				descTable: curTable,
				descStart: curStart,
				vertCount: a.VertCount,
				baseVert:  a.BaseVert,
				instCount: a.InstCount,
			}
			index[key] = len(groups)
			groups = append(groups, g)
		default:
			flush()
			out = append(out, c)
			havePipeline = false
			curTable = nil
		}
	}
	flush()
	b.cmds = out
}

// Clean removes consecutive state-setting commands that rebind a
// value equal to the one already in effect. It never removes a Draw,
// DrawIndexed or Dispatch.
func (b *Buffer) Clean() {
	out := make([]Cmd, 0, len(b.cmds))
	last := map[Kind]any{}
	for _, c := range b.cmds {
		switch c.Kind {
		case KindBindPipeline, KindSetViewport, KindSetScissor, KindSetBlendColor,
			KindSetStencilRef, KindSetDescTableGraph, KindSetDescTableComp,
			KindSetVertexBuf, KindSetIndexBuf:
			if prev, ok := last[c.Kind]; ok && reflect.DeepEqual(prev, c.Arg) {
				continue
			}
			last[c.Kind] = c.Arg
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	b.cmds = out
}

// Validate checks that begin/end pairs are balanced and that draw,
// dispatch and transfer commands only appear inside the matching
// scope. It reports the first violation found.
func (b *Buffer) Validate() error {
	var inPass, inWork, inBlit bool
	for i, c := range b.cmds {
		switch c.Kind {
		case KindBeginPass:
			if inPass {
				return fmt.Errorf("cmdbuf: cmd %d: nested BeginPass", i)
			}
			inPass = true
		case KindNextSubpass:
			if !inPass {
				return fmt.Errorf("cmdbuf: cmd %d: NextSubpass outside a pass", i)
			}
		case KindEndPass:
			if !inPass {
				return fmt.Errorf("cmdbuf: cmd %d: EndPass without BeginPass", i)
			}
			inPass = false
		case KindBeginWork:
			if inWork {
				return fmt.Errorf("cmdbuf: cmd %d: nested BeginWork", i)
			}
			inWork = true
		case KindEndWork:
			if !inWork {
				return fmt.Errorf("cmdbuf: cmd %d: EndWork without BeginWork", i)
			}
			inWork = false
		case KindBeginBlit:
			if inBlit {
				return fmt.Errorf("cmdbuf: cmd %d: nested BeginBlit", i)
			}
			inBlit = true
		case KindEndBlit:
			if !inBlit {
				return fmt.Errorf("cmdbuf: cmd %d: EndBlit without BeginBlit", i)
			}
			inBlit = false
		case KindDraw, KindDrawIndexed:
			if !inPass {
				return fmt.Errorf("cmdbuf: cmd %d: %s outside a render pass", i, c.Kind)
			}
		case KindDispatch:
			if !inWork {
				return fmt.Errorf("cmdbuf: cmd %d: Dispatch outside compute work", i)
			}
		case KindCopyBuffer, KindCopyImage, KindCopyBufToImg, KindCopyImgToBuf, KindFill:
			if !inBlit {
				return fmt.Errorf("cmdbuf: cmd %d: %s outside data transfer", i, c.Kind)
			}
		}
	}
	if inPass {
		return errors.New("cmdbuf: render pass left open")
	}
	if inWork {
		return errors.New("cmdbuf: compute work left open")
	}
	if inBlit {
		return errors.New("cmdbuf: data transfer left open")
	}
	return nil
}

// String returns a human-readable dump of the recorded commands,
// indenting nested pass/work/blit scopes.
func (b *Buffer) String() string {
	var sb strings.Builder
	depth := 0
	for _, c := range b.cmds {
		switch c.Kind {
		case KindEndPass, KindEndWork, KindEndBlit:
			depth--
		}
		sb.WriteString(strings.Repeat("  ", max(depth, 0)))
		sb.WriteString(c.Kind.String())
		if a := argString(c); a != "" {
			sb.WriteString(" ")
			sb.WriteString(a)
		}
		sb.WriteString("\n")
		switch c.Kind {
		case KindBeginPass, KindBeginWork, KindBeginBlit:
			depth++
		}
	}
	return sb.String()
}

func argString(c Cmd) string {
	switch a := c.Arg.(type) {
	case argDraw:
		return fmt.Sprintf("vertCount=%d instCount=%d baseVert=%d baseInst=%d", a.VertCount, a.InstCount, a.BaseVert, a.BaseInst)
	case argDrawIndexed:
		return fmt.Sprintf("idxCount=%d instCount=%d baseIdx=%d vertOff=%d baseInst=%d", a.IdxCount, a.InstCount, a.BaseIdx, a.VertOff, a.BaseInst)
	case argDispatch:
		return fmt.Sprintf("grp=(%d,%d,%d)", a.GrpX, a.GrpY, a.GrpZ)
	default:
		return ""
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
