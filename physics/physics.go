// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package physics specifies the boundary between the engine and a
// physics library (PhysX/ODE/Bullet), without binding to any concrete
// one. The engine calls only through PhysicsScene; RigidBody data
// (scene.RigidBody) is the sync point between this interface and the
// scene graph.
package physics

import (
	"time"

	"github.com/divide-framework/divide/linear"
)

// BodyID is an opaque handle a PhysicsScene implementation hands back
// from CreateBody, stored on scene.RigidBody.
type BodyID uint64

// BodyDesc describes a rigid body to create.
type BodyDesc struct {
	Mass      float32
	Kinematic bool
	Shape     ShapeDesc
	Transform linear.M4
}

// ShapeKind selects a collision shape's geometric type.
type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeCapsule
	ShapeMesh
)

// ShapeDesc describes a collision shape. Only the fields relevant to
// Kind are meaningful; Mesh-kind shapes are produced by CookMesh.
type ShapeDesc struct {
	Kind        ShapeKind
	HalfExtents linear.V3
	Radius      float32
	HalfHeight  float32
	Cooked      []byte
}

// RaycastHit is the result of a successful Raycast.
type RaycastHit struct {
	Body     BodyID
	Point    linear.V3
	Normal   linear.V3
	Distance float32
}

// PhysicsScene is the engine's entire view of an external physics
// library: create/destroy bodies, advance the simulation, and query
// it. A concrete implementation owns everything else (broadphase,
// constraint solving, materials).
type PhysicsScene interface {
	// CreateBody adds a rigid body to the simulation.
	CreateBody(desc BodyDesc) (BodyID, error)
	// DestroyBody removes a previously created body.
	DestroyBody(id BodyID)
	// SetKinematicTransform pushes an engine-driven transform onto a
	// kinematic body ahead of the next StepSimulation.
	SetKinematicTransform(id BodyID, xform linear.M4)
	// Transform reads a body's current simulated transform, for
	// syncing back into scene.RigidBody/scene.Graph after a step.
	Transform(id BodyID) (linear.M4, bool)

	// StepSimulation advances the simulation by dt. Implementations
	// may internally subdivide dt into fixed substeps.
	StepSimulation(dt time.Duration) error

	// Raycast casts a ray from origin in dir (unit length) out to
	// maxDist, returning the nearest hit if any.
	Raycast(origin, dir linear.V3, maxDist float32) (RaycastHit, bool)

	// CookMesh preprocesses raw vertex/index data into the opaque
	// Cooked form a Mesh ShapeDesc expects, ahead of CreateBody.
	CookMesh(vertices []linear.V3, indices []uint32) ([]byte, error)
}
