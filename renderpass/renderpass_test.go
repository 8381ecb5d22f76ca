// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package renderpass

import (
	"testing"

	"github.com/divide-framework/divide/cmdbuf"
	"github.com/divide-framework/divide/culler"
	"github.com/divide-framework/divide/engine"
	"github.com/divide-framework/divide/linear"
	"github.com/divide-framework/divide/lightpool"
	"github.com/divide-framework/divide/rtpool"
	"github.com/divide-framework/divide/scene"
)

func openFrustum() culler.Camera {
	var c culler.Camera
	dirs := [6]linear.V3{
		{1, 0, 0}, {-1, 0, 0},
		{0, 1, 0}, {0, -1, 0},
		{0, 0, 1}, {0, 0, -1},
	}
	for i, d := range dirs {
		c.Planes[i] = culler.Plane{Normal: d, D: 1e9}
	}
	return c
}

func newNodeAt(g *scene.Graph, pos linear.V3, mesh, mat uint64) scene.Node {
	n := g.NewNode("n", scene.TypeMesh, scene.Nil)
	g.SetComponent(n, &scene.Bounds{LocalMin: linear.V3{-1, -1, -1}, LocalMax: linear.V3{1, 1, 1}})
	g.SetComponent(n, &scene.Rendering{
		MeshID: scene.ResourceID(mesh), MaterialID: scene.ResourceID(mat),
		ReflProbe: -1, RefrProbe: -1,
	})
	g.Transform(n).SetTranslation(pos)
	return n
}

type fakeResolver struct {
	fail             map[uint64]bool
	pipelineSwitches int
	lastPipeline     uint64
}

func (r *fakeResolver) Resolve(buf *cmdbuf.Buffer, node scene.Node, data *NodeData) (int, bool) {
	if r.fail[data.MeshID] {
		return 0, false
	}
	if data.MeshID != r.lastPipeline {
		r.lastPipeline = data.MeshID
		r.pipelineSwitches++
	}
	buf.SetPipeline(nil)
	buf.Draw(3, 1, 0, 0)
	return 1, true
}

func TestRecordPassBatchesAndCounts(t *testing.T) {
	g := scene.New()
	for i := 0; i < 4; i++ {
		newNodeAt(g, linear.V3{float32(i), 0, 0}, 1, 1)
	}
	g.Update()

	m := NewManager()
	p := &Pass{Name: "main", Type: PassMain, Stage: culler.StageMain}
	in := &culler.Input{Stage: culler.StageMain, Camera: culler.Camera{Eye: linear.V3{}, Planes: openFrustum().Planes}, VisibilityDistanceSq: 1e9}

	res := &fakeResolver{fail: map[uint64]bool{}}
	buf := m.RecordPass(p, g, in, res)

	if got := countDraws(buf); got != 1 {
		t.Fatalf("RecordPass: got %d draws after batching, want 1 (same mesh/pipeline)", got)
	}
	if len(p.NodeData) != 4 {
		t.Fatalf("RecordPass: got %d NodeData entries, want 4", len(p.NodeData))
	}
	st := m.Stats()
	if st.Triangles != 4 {
		t.Fatalf("Stats: Triangles = %d, want 4", st.Triangles)
	}
	if st.Batched != 3 {
		t.Fatalf("Stats: Batched = %d, want 3 (4 draws folded into 1)", st.Batched)
	}
}

func TestRecordPassSkipsUnresolvableNodesWithoutStalling(t *testing.T) {
	g := scene.New()
	newNodeAt(g, linear.V3{0, 0, 0}, 1, 1)
	newNodeAt(g, linear.V3{1, 0, 0}, 2, 1)
	g.Update()

	m := NewManager()
	p := &Pass{Name: "main", Type: PassMain}
	in := &culler.Input{Camera: openFrustum(), VisibilityDistanceSq: 1e9}

	res := &fakeResolver{fail: map[uint64]bool{2: true}}
	buf := m.RecordPass(p, g, in, res)

	if countDraws(buf) != 1 {
		t.Fatalf("RecordPass: got %d draws, want 1 (one node's material still compiling)", countDraws(buf))
	}
	if m.Stats().Culled != 1 {
		t.Fatalf("Stats: Culled = %d, want 1", m.Stats().Culled)
	}
}

func TestManagerPassesOrderedBySortKey(t *testing.T) {
	m := NewManager()
	m.AddPass(&Pass{Name: "b", SortKey: 10})
	m.AddPass(&Pass{Name: "a", SortKey: 1})
	m.AddPass(&Pass{Name: "c", SortKey: 5})

	order := m.Passes()
	if order[0].Name != "a" || order[1].Name != "c" || order[2].Name != "b" {
		t.Fatalf("Passes: got order %v %v %v, want a c b", order[0].Name, order[1].Name, order[2].Name)
	}
}

func TestSyncShadowPassesAddsAndRemoves(t *testing.T) {
	lp := lightpool.New(64)
	id1 := lp.AddSpot(engine.SpotLight{})
	lp.SetCastsShadow(id1, true)
	id2 := lp.AddSpot(engine.SpotLight{})
	lp.SetCastsShadow(id2, true)

	m := NewManager()
	m.SyncShadowPasses(lp, 8, shadowSortBase)
	if n := countShadowPasses(m); n != 2 {
		t.Fatalf("SyncShadowPasses: got %d shadow passes, want 2", n)
	}

	lp.Remove(id2)
	m.SyncShadowPasses(lp, 8, shadowSortBase)
	if n := countShadowPasses(m); n != 1 {
		t.Fatalf("SyncShadowPasses after Remove: got %d shadow passes, want 1", n)
	}
}

func countShadowPasses(m *Manager) int {
	n := 0
	for _, p := range m.Passes() {
		if p.Type == PassShadow {
			n++
		}
	}
	return n
}

func TestSetupDefaultFrameOrdersFixedPasses(t *testing.T) {
	m := NewManager()
	m.SetupDefaultFrame(rtpool.Handle{})

	order := m.Passes()
	if len(order) != 5 {
		t.Fatalf("SetupDefaultFrame: got %d passes, want 5", len(order))
	}
	if order[0].Type != PassPrePass || order[len(order)-1].Type != PassDebug {
		t.Fatalf("SetupDefaultFrame: first/last pass types = %v/%v, want PrePass/Debug", order[0].Type, order[len(order)-1].Type)
	}
}

func TestNormalMatrixPreservesRotation(t *testing.T) {
	var world linear.M4
	world.I()
	n := normalMatrix(&world)
	var identity linear.M4
	identity.I()
	if n != identity {
		t.Fatalf("normalMatrix of identity = %v, want identity", n)
	}
}
