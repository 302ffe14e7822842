package earcut

import (
	"testing"

	"github.com/paulmach/orb"
)

func square(x0, y0, x1, y1 float64) orb.Ring {
	return orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func TestTriangulateSquare(t *testing.T) {
	tris, err := Triangulate([]orb.Ring{square(0, 0, 10, 10)})
	if err != nil {
		t.Fatalf("Triangulate error: %v", err)
	}
	if len(tris) != 6 {
		t.Fatalf("got %d indices, want 6 (2 triangles)", len(tris))
	}
	for _, idx := range tris {
		if idx < 0 || idx >= 4 {
			t.Fatalf("index %d out of range [0,4)", idx)
		}
	}
}

func TestTriangulateSquareWithHole(t *testing.T) {
	outer := square(0, 0, 10, 10)
	hole := square(4, 4, 6, 6)
	tris, err := Triangulate([]orb.Ring{outer, hole})
	if err != nil {
		t.Fatalf("Triangulate error: %v", err)
	}
	if len(tris)%3 != 0 {
		t.Fatalf("index count %d is not a multiple of 3", len(tris))
	}
	if got := len(tris) / 3; got != 8 {
		t.Fatalf("got %d triangles, want 8 for a square ring", got)
	}
	for _, idx := range tris {
		if idx < 0 || idx >= 8 {
			t.Fatalf("index %d out of range [0,8)", idx)
		}
	}
}

func TestTriangulateWindingInsensitive(t *testing.T) {
	ccw := square(0, 0, 10, 10)
	cw := orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}}

	a, err := Triangulate([]orb.Ring{ccw})
	if err != nil {
		t.Fatalf("ccw error: %v", err)
	}
	b, err := Triangulate([]orb.Ring{cw})
	if err != nil {
		t.Fatalf("cw error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("triangle counts differ by winding: %d vs %d", len(a), len(b))
	}
}

func TestTriangulateUnbridgeableHole(t *testing.T) {
	outer := square(0, 0, 10, 10)
	// Hole entirely left of the outer ring: the leftward ray from its
	// leftmost vertex never hits an outer segment.
	stray := square(-5, 4, -4, 5)
	_, err := Triangulate([]orb.Ring{outer, stray})
	if err != ErrHoleBridge {
		t.Fatalf("got err=%v, want ErrHoleBridge", err)
	}
}

func TestTriangulateDegenerateInput(t *testing.T) {
	if _, err := Triangulate(nil); err != ErrNoTriangles {
		t.Fatalf("nil input: got %v, want ErrNoTriangles", err)
	}
	line := orb.Ring{{0, 0}, {1, 1}}
	if _, err := Triangulate([]orb.Ring{line}); err != ErrNoTriangles {
		t.Fatalf("2-point ring: got %v, want ErrNoTriangles", err)
	}
	collinear := orb.Ring{{0, 0}, {1, 0}, {2, 0}}
	if _, err := Triangulate([]orb.Ring{collinear}); err != ErrNoTriangles {
		t.Fatalf("collinear ring: got %v, want ErrNoTriangles", err)
	}
}

func TestTriangulateDeterministic(t *testing.T) {
	rings := []orb.Ring{square(0, 0, 10, 10), square(2, 2, 3, 3), square(6, 6, 8, 8)}
	first, err := Triangulate(rings)
	if err != nil {
		t.Fatalf("Triangulate error: %v", err)
	}
	second, err := Triangulate(rings)
	if err != nil {
		t.Fatalf("Triangulate error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("index %d differs: %d vs %d", i, first[i], second[i])
		}
	}
}
