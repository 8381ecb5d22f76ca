// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"testing"

	"github.com/divide-framework/divide/ecs"
	"github.com/divide-framework/divide/linear"
)

func TestNewNodeParenting(t *testing.T) {
	g := New()
	root := g.NewNode("root", TypeEmpty, Nil)
	child := g.NewNode("child", TypeMesh, root)

	if g.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", g.Len())
	}
	if _, ok := g.ByName("child"); !ok {
		t.Fatal("ByName: child not found")
	}
	meshes := g.ByType(TypeMesh)
	if len(meshes) != 1 || meshes[0] != child {
		t.Fatalf("ByType(TypeMesh): got %v", meshes)
	}
}

func TestTransformPropagation(t *testing.T) {
	g := New()
	root := g.NewNode("root", TypeEmpty, Nil)
	child := g.NewNode("child", TypeMesh, root)

	g.Transform(root).SetTranslation(linear.V3{10, 0, 0})
	g.Update()

	w := g.World(child)
	if w[3][0] != 10 {
		t.Fatalf("World(child).X = %v, want 10", w[3][0])
	}
}

func TestRemoveIsDeferred(t *testing.T) {
	g := New()
	n := g.NewNode("n", TypeMesh, Nil)
	g.Remove(n)
	if g.Len() != 1 {
		t.Fatalf("Len after Remove before FrameStarted: got %d, want 1", g.Len())
	}
	g.FrameStarted()
	if g.Len() != 0 {
		t.Fatalf("Len after FrameStarted: got %d, want 0", g.Len())
	}
}

func TestBoundsRecompute(t *testing.T) {
	g := New()
	n := g.NewNode("n", TypeMesh, Nil)
	b := &Bounds{LocalMin: linear.V3{-1, -1, -1}, LocalMax: linear.V3{1, 1, 1}}
	g.SetComponent(n, b)

	g.Transform(n).SetTranslation(linear.V3{5, 0, 0})
	g.Update()

	if b.WorldMin[0] != 4 || b.WorldMax[0] != 6 {
		t.Fatalf("Bounds after translate: min=%v max=%v", b.WorldMin, b.WorldMax)
	}
}

func TestForEachMatchesECSWorld(t *testing.T) {
	g := New()
	n := g.NewNode("n", TypeMesh, Nil)
	g.SetComponent(n, &Rendering{CastShadow: true})

	var w ecs.World = g
	seen := 0
	w.ForEach(ecs.Rendering, func(e ecs.Entity, c ecs.Component) {
		seen++
		if Node(e) != n {
			t.Fatalf("entity mismatch: got %v want %v", e, n)
		}
	})
	if seen != 1 {
		t.Fatalf("ForEach(Rendering): saw %d, want 1", seen)
	}
}

func TestIntersect(t *testing.T) {
	g := New()
	n := g.NewNode("n", TypeMesh, Nil)
	g.SetComponent(n, &Bounds{LocalMin: linear.V3{-1, -1, -1}, LocalMax: linear.V3{1, 1, 1}})
	g.Update()

	hits := g.Intersect(Ray{Origin: linear.V3{0, 0, 5}, Dir: linear.V3{0, 0, -1}}, 0, 100)
	if len(hits) != 1 || hits[0].Node != n {
		t.Fatalf("Intersect: got %v", hits)
	}
}
