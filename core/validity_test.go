package core

import (
	"math"
	"reflect"
	"testing"

	"github.com/paulmach/orb"

	"github.com/atlasforge/globemesh/model"
)

func TestRepairDropsDegenerateRings(t *testing.T) {
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{
		{square(0, 0, 10), orb.Ring{{1, 1}, {2, 2}}}, // hole too thin to keep
		{orb.Ring{{0, 0}, {5, 5}}},                   // exterior degenerate, polygon dropped
	})

	repaired, err := Repair(cg)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if repaired.IslandCount() != 1 {
		t.Fatalf("islands = %d, want 1", repaired.IslandCount())
	}
	if repaired.HoleCount() != 0 {
		t.Errorf("holes = %d, want 0", repaired.HoleCount())
	}
}

func TestRepairSignalsEmpty(t *testing.T) {
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{
		{orb.Ring{{0, 0}, {5, 5}}},
	})
	if _, err := Repair(cg); err != ErrEmptyGeometry {
		t.Fatalf("err = %v, want ErrEmptyGeometry", err)
	}

	empty := model.NewCountryGeometry("AAA", "Testland", nil)
	if _, err := Repair(empty); err != ErrEmptyGeometry {
		t.Fatalf("err for empty input = %v, want ErrEmptyGeometry", err)
	}
}

func TestRepairSplitsBowtie(t *testing.T) {
	// Classic figure-eight: edges (4,0)-(0,4) and (4,4)-(0,0) cross at (2,2).
	bowtie := orb.Ring{{0, 0}, {4, 0}, {0, 4}, {4, 4}}
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{{bowtie}})

	repaired, err := Repair(cg)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	ring := repaired.Polygons[0][0]
	if len(ring) != 3 {
		t.Fatalf("repaired ring has %d points, want 3 (one simple loop): %v", len(ring), ring)
	}
	if _, _, _, found := firstSelfIntersection(ring); found {
		t.Errorf("repaired ring still self-intersects: %v", ring)
	}
	if area := math.Abs(SignedArea(ring)); area != 4 {
		t.Errorf("kept loop area = %v, want 4", area)
	}
}

func TestRepairIdempotent(t *testing.T) {
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{
		{square(0, 0, 10), square(2, 2, 3)},
		{orb.Ring{{0, 0}, {4, 0}, {0, 4}, {4, 4}}},
	})

	once, err := Repair(cg)
	if err != nil {
		t.Fatalf("first Repair: %v", err)
	}
	twice, err := Repair(once)
	if err != nil {
		t.Fatalf("second Repair: %v", err)
	}
	if !reflect.DeepEqual(once.Polygons, twice.Polygons) {
		t.Errorf("Repair is not idempotent:\nonce:  %v\ntwice: %v", once.Polygons, twice.Polygons)
	}
}

func TestSimplifyReducesVertices(t *testing.T) {
	// A square with collinear mid-edge points the simplifier should remove.
	dense := orb.Ring{
		{0, 0}, {2, 0}, {4, 0}, {6, 0}, {8, 0}, {10, 0},
		{10, 5}, {10, 10}, {5, 10}, {0, 10}, {0, 5},
	}
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{{dense}})

	simplified := Simplify(cg, 0.02)
	got := len(simplified.Polygons[0][0])
	if got >= len(dense) {
		t.Fatalf("simplified ring has %d points, want fewer than %d", got, len(dense))
	}
	if cg.Polygons[0][0][1] != (orb.Point{2, 0}) {
		t.Errorf("input ring was modified")
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	dense := orb.Ring{
		{0, 0}, {2, 0.001}, {4, 0}, {10, 0}, {10, 10}, {0, 10},
	}
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{{dense}})

	once := Simplify(cg, 0.02)
	twice := Simplify(once, 0.02)
	if !reflect.DeepEqual(once.Polygons, twice.Polygons) {
		t.Errorf("Simplify is not idempotent for a fixed tolerance")
	}
}

func TestSimplifyKeepsDegeneratingExterior(t *testing.T) {
	// A sliver narrower than the tolerance would collapse; the polygon must
	// survive unsimplified instead.
	sliver := orb.Ring{{0, 0}, {1, 0.001}, {2, -0.001}, {3, 0}}
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{{sliver}})

	simplified := Simplify(cg, 0.02)
	if simplified.IslandCount() != 1 {
		t.Fatalf("sliver polygon was lost")
	}
	if !reflect.DeepEqual(simplified.Polygons[0][0], sliver) {
		t.Errorf("degenerating exterior should be kept unsimplified")
	}
}

func TestSimplifyZeroToleranceNoop(t *testing.T) {
	cg := model.NewCountryGeometry("AAA", "Testland", orb.MultiPolygon{{square(0, 0, 10)}})
	if got := Simplify(cg, 0); !reflect.DeepEqual(got, cg) {
		t.Errorf("zero tolerance should return the input untouched")
	}
}

func TestSegmentCrossing(t *testing.T) {
	if pt, ok := segmentCrossing(
		orb.Point{0, 0}, orb.Point{4, 4},
		orb.Point{0, 4}, orb.Point{4, 0},
	); !ok || pt != (orb.Point{2, 2}) {
		t.Errorf("crossing = %v %v, want (2,2) true", pt, ok)
	}

	// Shared endpoint is not a crossing.
	if _, ok := segmentCrossing(
		orb.Point{0, 0}, orb.Point{4, 0},
		orb.Point{4, 0}, orb.Point{4, 4},
	); ok {
		t.Errorf("shared endpoint reported as crossing")
	}

	// Parallel segments never cross.
	if _, ok := segmentCrossing(
		orb.Point{0, 0}, orb.Point{4, 0},
		orb.Point{0, 1}, orb.Point{4, 1},
	); ok {
		t.Errorf("parallel segments reported as crossing")
	}
}
