// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package lightpool

import (
	"math"
	"testing"

	"github.com/divide-framework/divide/linear"
)

func TestCubeGeneratorProducesSixDistinctFaces(t *testing.T) {
	faces := CubeGenerator{}.Generate(linear.V3{0, 0, 0}, 0.1, 100)
	seen := map[linear.M4]bool{}
	for _, f := range faces {
		seen[f.View] = true
	}
	if len(seen) != 6 {
		t.Fatalf("CubeGenerator: got %d distinct view matrices, want 6", len(seen))
	}
}

func TestSingleGeneratorFOVMatchesConeAngle(t *testing.T) {
	cam := SingleGenerator{}.Generate(linear.V3{0, 0, 0}, linear.V3{0, 0, -1}, math.Pi/6, 0.1, 50)
	// A wider cone should yield a smaller proj[0][0]/proj[1][1] scale
	// (tan(fov/2) grows with the angle).
	wider := SingleGenerator{}.Generate(linear.V3{0, 0, 0}, linear.V3{0, 0, -1}, math.Pi/3, 0.1, 50)
	if wider.Proj[1][1] >= cam.Proj[1][1] {
		t.Fatalf("wider cone angle should produce a smaller projection scale: narrow=%v wide=%v", cam.Proj[1][1], wider.Proj[1][1])
	}
}

func TestCascadedGeneratorProducesRequestedSplitCount(t *testing.T) {
	corners := [8]linear.V3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-10, -10, -50}, {10, -10, -50}, {10, 10, -50}, {-10, 10, -50},
	}
	splits := CascadedGenerator{TexelSize: 0.5}.Generate(linear.V3{0, -1, 0}, corners, 1, 50, 4, 0.5)
	if len(splits) != 4 {
		t.Fatalf("Generate: got %d splits, want 4", len(splits))
	}
	for i := 1; i < len(splits); i++ {
		if splits[i].Distance <= splits[i-1].Distance {
			t.Fatalf("split distances not increasing: %v", splits)
		}
	}
}

func TestSplitDistancesWithinRange(t *testing.T) {
	dists := splitDistances(1, 100, 4, 0.5)
	for _, d := range dists {
		if d < 1 || d > 100 {
			t.Fatalf("splitDistances: %v out of [1,100]", dists)
		}
	}
}
