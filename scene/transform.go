// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/divide-framework/divide/ecs"
	"github.com/divide-framework/divide/linear"
)

// DirtyMask identifies which part of a Transform changed since the
// last world update, so listeners can react cheaply (e.g. a billboard
// only cares about Rotation, a culler only cares about the result).
type DirtyMask uint8

const (
	DirtyNone        DirtyMask = 0
	DirtyTranslation DirtyMask = 1 << iota
	DirtyRotation
	DirtyScale
	DirtyAll = DirtyTranslation | DirtyRotation | DirtyScale
)

// Transform is the Transform component. Every node carries exactly
// one, created implicitly when the node is made.
//
// It implements node.Interface so that a Graph's internal node.Graph
// can drive world matrix propagation directly off it.
type Transform struct {
	translation linear.V3
	rotation    linear.Q
	scale       linear.V3
	local       linear.M4
	dirty       DirtyMask
	owner       Node
}

func newTransform() *Transform {
	t := &Transform{scale: linear.V3{1, 1, 1}}
	t.rotation.I()
	t.local.I()
	return t
}

func (t *Transform) Type() ecs.ComponentType { return ecs.Transform }

// Local returns the node's local transform matrix, as node.Interface
// requires. The matrix is kept up to date eagerly by the Set*
// methods, so this never recomputes anything.
func (t *Transform) Local() *linear.M4 { return &t.local }

// dirtyPeek reports whether the local transform changed since the
// last Update, without clearing the flag. Unlike Changed, which
// node.Graph.Update calls (and which resets the flag as a side
// effect), this lets Graph.Update snapshot who changed before
// handing control to node.Graph.
func (t *Transform) dirtyPeek() bool { return t.dirty != DirtyNone }

// Changed reports whether the local transform changed since the
// last call, and clears the flag. node.Graph.Update calls this
// exactly once per node per update to decide whether to recompute
// that node's (and its descendants') world matrix.
func (t *Transform) Changed() bool {
	c := t.dirty != DirtyNone
	t.dirty = DirtyNone
	return c
}

// Translation returns the node's local translation.
func (t *Transform) Translation() linear.V3 { return t.translation }

// Rotation returns the node's local rotation.
func (t *Transform) Rotation() linear.Q { return t.rotation }

// Scale returns the node's local scale.
func (t *Transform) Scale() linear.V3 { return t.scale }

// SetTranslation sets the node's local translation.
func (t *Transform) SetTranslation(v linear.V3) {
	t.translation = v
	t.dirty |= DirtyTranslation
	t.recompute()
}

// SetRotation sets the node's local rotation. q must be normalized.
func (t *Transform) SetRotation(q linear.Q) {
	t.rotation = q
	t.dirty |= DirtyRotation
	t.recompute()
}

// SetScale sets the node's local scale.
func (t *Transform) SetScale(v linear.V3) {
	t.scale = v
	t.dirty |= DirtyScale
	t.recompute()
}

// SetTRS sets translation, rotation and scale together, marking all
// three dirty with a single local-matrix recomputation.
func (t *Transform) SetTRS(translation linear.V3, rotation linear.Q, scale linear.V3) {
	t.translation = translation
	t.rotation = rotation
	t.scale = scale
	t.dirty |= DirtyAll
	t.recompute()
}

func (t *Transform) recompute() {
	t.local.TRS(&t.translation, &t.rotation, &t.scale)
}
