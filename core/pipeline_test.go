package core

import (
	"context"
	"sort"
	"testing"

	"github.com/paulmach/orb"

	"github.com/atlasforge/globemesh/kb"
	"github.com/atlasforge/globemesh/model"
)

func testEngine(ref *kb.ReferenceData, workers int) *Engine {
	cfg := DefaultConfig()
	cfg.Workers = workers
	return NewEngine(cfg, ref, nil, nil)
}

func TestEngineRunDropsNonEnclaveHole(t *testing.T) {
	ref := kb.NewReferenceData()
	countries := []model.CountryGeometry{
		model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{
			{square(0, 0, 10), square(4, 4, 2)},
		}),
	}

	store, diags, err := testEngine(ref, 1).Run(context.Background(), countries)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("stored meshes = %d, want 1", store.Len())
	}
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(diags))
	}

	diag := diags[0]
	if diag.ISO3 != "AAA" {
		t.Errorf("ISO3 = %q, want AAA", diag.ISO3)
	}
	if diag.InitialHoles != 1 || diag.FinalHoles != 0 {
		t.Errorf("holes = %d/%d, want 1/0 (non-enclave hole dropped)", diag.InitialHoles, diag.FinalHoles)
	}

	mesh := store.Get("AAA")
	if mesh == nil {
		t.Fatalf("mesh for AAA missing")
	}
	if mesh.TriangleCount() != 2 {
		t.Errorf("triangles = %d, want 2 (hole removed before meshing)", mesh.TriangleCount())
	}
	for _, face := range mesh.Faces {
		for _, idx := range face {
			if idx < 0 || idx >= len(mesh.Vertices) {
				t.Fatalf("face index %d out of range [0,%d)", idx, len(mesh.Vertices))
			}
		}
	}
}

func TestEngineRunKeepsEnclaveHole(t *testing.T) {
	ref := kb.NewReferenceDataFromPairs([][2]string{{"ENC", "HST"}})
	ref.SetCentroid("ENC", orb.Point{5, 5})
	countries := []model.CountryGeometry{
		model.NewCountryGeometry("HST", "Hostland", orb.MultiPolygon{
			{square(0, 0, 10), square(4, 4, 2)},
		}),
	}

	store, diags, err := testEngine(ref, 1).Run(context.Background(), countries)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diags[0].FinalHoles != 1 {
		t.Fatalf("FinalHoles = %d, want 1 (enclave hole kept)", diags[0].FinalHoles)
	}

	mesh := store.Get("HST")
	if mesh == nil {
		t.Fatalf("mesh for HST missing")
	}
	if len(mesh.Vertices) != 8 {
		t.Errorf("vertices = %d, want 8 (hole kept through meshing)", len(mesh.Vertices))
	}
	if mesh.TriangleCount() != 8 {
		t.Errorf("triangles = %d, want 8", mesh.TriangleCount())
	}
}

func TestEngineRunSkipsDegenerateCountry(t *testing.T) {
	ref := kb.NewReferenceData()
	countries := []model.CountryGeometry{
		model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{{square(0, 0, 10)}}),
		model.NewCountryGeometry("BBB", "Broken", orb.MultiPolygon{
			{orb.Ring{{0, 0}, {1, 1}}},
		}),
	}

	store, diags, err := testEngine(ref, 2).Run(context.Background(), countries)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("stored meshes = %d, want 1 (degenerate country skipped)", store.Len())
	}
	if store.Get("BBB") != nil {
		t.Errorf("degenerate country should not be stored")
	}
	if len(diags) != 2 {
		t.Errorf("diagnostics = %d, want one record per input country", len(diags))
	}
}

func TestEngineRunDiagnosticsSorted(t *testing.T) {
	ref := kb.NewReferenceData()
	var countries []model.CountryGeometry
	for i, iso := range []string{"DDD", "AAA", "CCC", "BBB"} {
		countries = append(countries, model.NewCountryGeometry(iso, iso, orb.MultiPolygon{
			{square(float64(i*20), 0, 10)},
		}))
	}

	_, diags, err := testEngine(ref, 3).Run(context.Background(), countries)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sort.SliceIsSorted(diags, func(i, j int) bool { return diags[i].ISO3 < diags[j].ISO3 }) {
		t.Errorf("diagnostics not sorted by ISO: %v", isoOrder(diags))
	}
	if len(diags) != 4 {
		t.Errorf("diagnostics = %d, want 4", len(diags))
	}
}

func TestEngineRunCancelled(t *testing.T) {
	ref := kb.NewReferenceData()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var countries []model.CountryGeometry
	for _, iso := range []string{"AAA", "BBB", "CCC"} {
		countries = append(countries, model.NewCountryGeometry(iso, iso, orb.MultiPolygon{
			{square(0, 0, 10)},
		}))
	}

	if _, _, err := testEngine(ref, 2).Run(ctx, countries); err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}

func isoOrder(diags []model.DiagnosticsRecord) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.ISO3
	}
	return out
}
