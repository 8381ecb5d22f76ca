// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/divide-framework/divide/ecs"
	"github.com/divide-framework/divide/engine"
	"github.com/divide-framework/divide/linear"
)

// Bounds is the Bounds component: an axis-aligned box enclosing the
// node's renderable content, in both local and (cached) world space.
// The Bounds system recomputes WorldMin/WorldMax whenever Transform
// reports a change; the culler reads only WorldMin/WorldMax.
type Bounds struct {
	LocalMin, LocalMax linear.V3
	WorldMin, WorldMax linear.V3
	dirty              bool
}

func (b *Bounds) Type() ecs.ComponentType { return ecs.Bounds }

// Rendering is the Rendering component: what a node draws with and
// how it participates in the render passes. MeshID/MaterialID are
// left as opaque resource handles (package rescache owns resolving
// them to the engine.Mesh/engine.Material backing them) rather than
// direct pointers, so that hot reload and async load can swap the
// underlying resource without touching the scene graph.
type Rendering struct {
	MeshID      ResourceID
	MaterialID  ResourceID
	CastShadow  bool
	RecvShadow  bool
	LoD         int
	CullMask    uint32
	ReflProbe   int
	RefrProbe   int
}

func (r *Rendering) Type() ecs.ComponentType { return ecs.Rendering }

// ResourceID is an opaque handle into a rescache.Cache, stored on
// components instead of a live pointer so the scene graph never
// depends on the rescache package.
type ResourceID uint64

// Animation is the Animation component: the current pose of a
// skinned mesh (joint matrices) plus the clip currently playing.
// The numerical blending/IK solve lives outside this package; this
// is the data a node carries between ticks.
type Animation struct {
	ClipID   ResourceID
	Time     float32
	Speed    float32
	Loop     bool
	Playing  bool
	Joints   []linear.M4
}

func (a *Animation) Type() ecs.ComponentType { return ecs.Animation }

// RigidBody is the RigidBody component. The simulation itself lives
// behind the physics package's PhysicsScene interface; this just
// carries the handle and the last synced kinematic state.
type RigidBody struct {
	BodyID   uint64
	Kinematic bool
	Mass     float32
}

func (r *RigidBody) Type() ecs.ComponentType { return ecs.RigidBody }

// Navigation is the Navigation component: an agent's handle into
// whatever ai.PathFinder is resolving paths for it, plus its last
// computed steering target.
type Navigation struct {
	AgentID uint64
	Target  linear.V3
	Speed   float32
}

func (n *Navigation) Type() ecs.ComponentType { return ecs.Navigation }

// Unit is the Unit component: high-level gameplay state (faction,
// health) that the Script/Selection systems and AI read and write.
type Unit struct {
	Faction int
	Health  float32
	MaxHealth float32
}

func (u *Unit) Type() ecs.ComponentType { return ecs.Unit }

// PointLightComp wraps engine.PointLight as a component, reusing the
// engine package's light data and GPU layout instead of redefining
// them here.
type PointLightComp struct {
	engine.PointLight
}

func (p *PointLightComp) Type() ecs.ComponentType { return ecs.PointLight }

// SpotLightComp wraps engine.SpotLight as a component.
type SpotLightComp struct {
	engine.SpotLight
}

func (s *SpotLightComp) Type() ecs.ComponentType { return ecs.SpotLight }

// DirectionalLightComp wraps engine.SunLight as a component.
type DirectionalLightComp struct {
	engine.SunLight
}

func (d *DirectionalLightComp) Type() ecs.ComponentType { return ecs.DirectionalLight }

// EnvironmentProbe is the EnvironmentProbe component: a capture point
// for reflections/irradiance, resolved to cube textures by rescache.
type EnvironmentProbe struct {
	CubemapID ResourceID
	Radius    float32
	Dynamic   bool
}

func (e *EnvironmentProbe) Type() ecs.ComponentType { return ecs.EnvironmentProbe }

// Script is the Script component: identifies a behaviour attached to
// the node. The behaviour implementation is opaque to the scene
// graph; it is looked up and invoked by whatever system owns
// scripting.
type Script struct {
	Name string
	Data map[string]any
}

func (s *Script) Type() ecs.ComponentType { return ecs.Script }

// Selection is the Selection component: editor/gameplay selection
// state, kept as a component so selection highlighting can be driven
// by the same system scheduling as everything else.
type Selection struct {
	Selected bool
	Hovered  bool
}

func (s *Selection) Type() ecs.ComponentType { return ecs.Selection }

// IK is the IK component: an inverse-kinematics chain constraint
// applied on top of Animation's joint pose.
type IK struct {
	RootJoint int
	EndJoint  int
	Target    linear.V3
	Weight    float32
}

func (i *IK) Type() ecs.ComponentType { return ecs.IK }

// Ragdoll is the Ragdoll component: marks that a node's Animation
// pose should be driven by (or blended with) a physics simulation
// instead of purely by clips.
type Ragdoll struct {
	Active    bool
	BlendTime float32
}

func (r *Ragdoll) Type() ecs.ComponentType { return ecs.Ragdoll }

// Networking is the Networking component: replication metadata for
// multiplayer-authoritative nodes.
type Networking struct {
	OwnerID   uint64
	Replicate bool
}

func (n *Networking) Type() ecs.ComponentType { return ecs.Networking }
