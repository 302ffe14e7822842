package core

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/atlasforge/globemesh/model"
)

func TestTriangulateCountrySquare(t *testing.T) {
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{{square(0, 0, 10)}})

	mesh, skipped := TriangulateCountry(context.Background(), cg, DefaultSphereRadius, nil)
	if mesh == nil {
		t.Fatalf("mesh is nil")
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(mesh.Vertices) != 4 {
		t.Errorf("vertices = %d, want 4", len(mesh.Vertices))
	}
	if mesh.TriangleCount() != 2 {
		t.Errorf("triangles = %d, want 2", mesh.TriangleCount())
	}
	if mesh.Name != "Testland" {
		t.Errorf("mesh name = %q, want country name", mesh.Name)
	}
}

func TestTriangulateCountryWithHole(t *testing.T) {
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{
		{square(0, 0, 10), square(4, 4, 2)},
	})

	mesh, skipped := TriangulateCountry(context.Background(), cg, DefaultSphereRadius, nil)
	if mesh == nil {
		t.Fatalf("mesh is nil")
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(mesh.Vertices) != 8 {
		t.Errorf("vertices = %d, want 8 (exterior + hole)", len(mesh.Vertices))
	}
	// A square with a square hole triangulates into 8 triangles.
	if mesh.TriangleCount() != 8 {
		t.Errorf("triangles = %d, want 8", mesh.TriangleCount())
	}
}

func TestTriangulateCountryExteriorFallback(t *testing.T) {
	// The "hole" sits entirely left of the exterior, so no bridge exists
	// and the hole-aware pass fails; the exterior-only retry must succeed.
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{
		{square(0, 0, 10), square(-5, 4, 1)},
	})

	mesh, skipped := TriangulateCountry(context.Background(), cg, DefaultSphereRadius, nil)
	if mesh == nil {
		t.Fatalf("mesh is nil, want exterior-only fallback mesh")
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0 (fallback succeeded)", skipped)
	}
	if len(mesh.Vertices) != 4 {
		t.Errorf("vertices = %d, want 4 (hole vertices must not be emitted)", len(mesh.Vertices))
	}
	if mesh.TriangleCount() != 2 {
		t.Errorf("triangles = %d, want 2", mesh.TriangleCount())
	}
}

func TestTriangulateCountryShellCrossingHoleFallback(t *testing.T) {
	// A hole poking through the exterior's left edge: its leftmost vertex
	// lies outside the shell, so no bridge exists and only the exterior
	// can be meshed.
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{
		{square(0, 0, 10), orb.Ring{{-2, 4}, {2, 4}, {2, 6}, {-2, 6}}},
	})

	mesh, skipped := TriangulateCountry(context.Background(), cg, DefaultSphereRadius, nil)
	if mesh == nil {
		t.Fatalf("mesh is nil, want exterior-only fallback mesh")
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0 (fallback succeeded)", skipped)
	}
	if len(mesh.Vertices) != 4 || mesh.TriangleCount() != 2 {
		t.Errorf("mesh = %d verts / %d tris, want 4/2 (exterior only)",
			len(mesh.Vertices), mesh.TriangleCount())
	}
	for _, face := range mesh.Faces {
		for _, idx := range face {
			if idx < 0 || idx >= len(mesh.Vertices) {
				t.Fatalf("face index %d out of range [0,%d)", idx, len(mesh.Vertices))
			}
		}
	}
}

func TestTriangulateCountryMultiPolygonOffsets(t *testing.T) {
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{
		{square(0, 0, 10)},
		{square(20, 20, 5)},
	})

	mesh, skipped := TriangulateCountry(context.Background(), cg, DefaultSphereRadius, nil)
	if mesh == nil {
		t.Fatalf("mesh is nil")
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(mesh.Vertices) != 8 {
		t.Fatalf("vertices = %d, want 8", len(mesh.Vertices))
	}
	if mesh.TriangleCount() != 4 {
		t.Fatalf("triangles = %d, want 4", mesh.TriangleCount())
	}

	// Faces of the second island must only reference its own vertex range.
	for _, face := range mesh.Faces[2:] {
		for _, idx := range face {
			if idx < 4 || idx >= 8 {
				t.Fatalf("second island face index %d escapes its vertex range", idx)
			}
		}
	}
	for _, face := range mesh.Faces[:2] {
		for _, idx := range face {
			if idx < 0 || idx >= 4 {
				t.Fatalf("first island face index %d escapes its vertex range", idx)
			}
		}
	}
}

func TestTriangulateCountryVerticesOnSphere(t *testing.T) {
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{{square(0, 0, 10)}})

	mesh, _ := TriangulateCountry(context.Background(), cg, 10.05, nil)
	if mesh == nil {
		t.Fatalf("mesh is nil")
	}
	for i, v := range mesh.Vertices {
		if diff := math.Abs(v.Norm() - 10.05); diff > 1e-5 {
			t.Errorf("vertex %d norm = %v, want 10.05", i, v.Norm())
		}
	}
}

func TestTriangulateCountryEmpty(t *testing.T) {
	cg := model.NewCountryGeometry("AAA", "Testland", nil)
	if mesh, _ := TriangulateCountry(context.Background(), cg, DefaultSphereRadius, nil); mesh != nil {
		t.Fatalf("expected nil mesh for empty geometry")
	}

	degenerate := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{
		{orb.Ring{{0, 0}, {1, 1}}},
	})
	mesh, skipped := TriangulateCountry(context.Background(), degenerate, DefaultSphereRadius, nil)
	if mesh != nil {
		t.Fatalf("expected nil mesh for degenerate exterior")
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}
