// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package gui specifies the boundary between the engine and a GUI
// toolkit (CEGUI/ImGui) or editor layer, without binding to any
// concrete one. The engine builds a flat list of 2D DrawCmd values
// each frame and hands it to GuiRenderer; nothing about layout,
// widgets or input routing for the GUI's own controls lives here —
// package input's Router treats a GuiRenderer's Consumer the same as
// any other consumer in its chain.
package gui

// CmdKind identifies what a DrawCmd draws, mirroring cmdbuf.Cmd's
// Kind-tagged-Arg shape at 2D granularity.
type CmdKind int

const (
	CmdRect CmdKind = iota
	CmdText
	CmdImage
	CmdClip
)

// Rect is an axis-aligned screen-space rectangle in pixels.
type Rect struct{ X, Y, W, H float32 }

// Color is a straight-alpha RGBA color, components in [0,1].
type Color struct{ R, G, B, A float32 }

// DrawCmd is one 2D draw operation. Only the fields relevant to Kind
// are populated.
type DrawCmd struct {
	Kind CmdKind

	Rect  Rect
	Color Color

	Text     string
	FontID   uint64
	ImageID  uint64
	ClipRect Rect
}

// GuiRenderer consumes a frame's worth of 2D draw commands, in order.
// Clipping (CmdClip) applies to every subsequent command until the
// next CmdClip or the end of the list.
type GuiRenderer interface {
	// RenderGui submits cmds for the current frame.
	RenderGui(cmds []DrawCmd) error
}
