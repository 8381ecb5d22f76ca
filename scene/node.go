// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package scene implements the engine's scene graph: a hierarchy of
// nodes, each optionally carrying one component of each type in the
// closed set declared by package ecs.
//
// The graph itself (parenting, world transform propagation) is
// delegated to package node; this package adds identity (GUID),
// typed lookup, component storage, change notification and deferred
// deletion on top of it.
package scene

import (
	"github.com/divide-framework/divide/ecs"
	"github.com/divide-framework/divide/guid"
	"github.com/divide-framework/divide/node"
)

// Node identifies a node in a Graph. The zero value, Nil, never
// refers to a live node.
type Node = node.Node

// Nil is the invalid Node value.
const Nil = node.Nil

// Type classifies what a node represents, for fast type-based
// iteration (e.g. "every light", "every camera") without scanning
// the whole graph.
type Type int

const (
	TypeEmpty Type = iota
	TypeMesh
	TypeLight
	TypeParticle
	TypeSky
	TypeTerrain
	TypeCamera

	numTypes
)

func (t Type) String() string {
	switch t {
	case TypeEmpty:
		return "Empty"
	case TypeMesh:
		return "Mesh"
	case TypeLight:
		return "Light"
	case TypeParticle:
		return "Particle"
	case TypeSky:
		return "Sky"
	case TypeTerrain:
		return "Terrain"
	case TypeCamera:
		return "Camera"
	default:
		return "invalid"
	}
}

// rec is the bookkeeping a Graph keeps for every live node, beyond
// what node.Graph itself stores.
type rec struct {
	guid       guid.GUID
	name       string
	typ        Type
	transform  *Transform
	components [ecs.NumComponentTypes]ecs.Component
	visible    bool
	active     bool
}

func newRec(name string, typ Type) *rec {
	r := &rec{
		guid:    guid.New(),
		name:    name,
		typ:     typ,
		visible: true,
		active:  true,
	}
	r.transform = newTransform()
	r.components[ecs.Transform] = r.transform
	return r
}
