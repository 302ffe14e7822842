package core

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"github.com/atlasforge/globemesh/model"
)

// ErrEmptyGeometry signals that repair left nothing usable. Callers decide
// whether that means skipping the country or keeping an earlier stage's
// output; repair never substitutes silently.
var ErrEmptyGeometry = errors.New("geometry empty after repair")

// maxBowtieSplits bounds recursive self-intersection splitting so a
// pathological ring cannot recurse without limit.
const maxBowtieSplits = 8

// Repair makes a country's geometry topologically usable: rings are
// normalized, degenerate rings dropped, and self-intersecting rings split
// at the crossing with the larger simple loop kept. Polygons losing their
// exterior are dropped along with their holes. Applying Repair twice
// yields the same result as applying it once.
func Repair(cg model.CountryGeometry) (model.CountryGeometry, error) {
	switch cg.Kind {
	case model.GeometryEmpty, model.GeometryUnsupported:
		return cg, ErrEmptyGeometry
	case model.GeometryPolygon, model.GeometryMultiPolygon:
	}

	repaired := make(orb.MultiPolygon, 0, len(cg.Polygons))
	for _, poly := range cg.Polygons {
		if len(poly) == 0 {
			continue
		}
		exterior := repairRing(poly[0], 0)
		if exterior == nil {
			continue
		}
		out := orb.Polygon{exterior}
		for _, hole := range poly[1:] {
			if fixed := repairRing(hole, 0); fixed != nil {
				out = append(out, fixed)
			}
		}
		repaired = append(repaired, out)
	}

	result := cg.WithPolygons(repaired)
	if result.IsEmpty() {
		return result, ErrEmptyGeometry
	}
	return result, nil
}

// Simplify reduces vertex density with Douglas-Peucker under the given
// tolerance (degrees). A polygon whose exterior would degenerate is kept
// unsimplified; holes that degenerate are dropped. An empty overall result
// falls back to the input, so simplification never loses a whole country.
// Idempotent for a fixed tolerance.
func Simplify(cg model.CountryGeometry, tolerance float64) model.CountryGeometry {
	if tolerance <= 0 || cg.IsEmpty() {
		return cg
	}

	simplifier := simplify.DouglasPeucker(tolerance)
	out := make(orb.MultiPolygon, 0, len(cg.Polygons))
	for _, poly := range cg.Polygons {
		if len(poly) == 0 {
			continue
		}
		exterior, ok := simplifyRing(simplifier, poly[0])
		if !ok {
			out = append(out, poly)
			continue
		}
		next := orb.Polygon{exterior}
		for _, hole := range poly[1:] {
			if simplified, ok := simplifyRing(simplifier, hole); ok {
				next = append(next, simplified)
			}
		}
		out = append(out, next)
	}
	if len(out) == 0 {
		return cg
	}
	return cg.WithPolygons(out)
}

func simplifyRing(s *simplify.DouglasPeuckerSimplifier, ring orb.Ring) (orb.Ring, bool) {
	if len(ring) < model.MinRingLen {
		return nil, false
	}
	// The simplifier mutates its input, so work on a clone.
	geom := s.Simplify(ring.Clone())
	simplified, ok := geom.(orb.Ring)
	if !ok || len(simplified) < model.MinRingLen {
		return nil, false
	}
	if SignedArea(simplified) == 0 {
		return nil, false
	}
	return simplified, true
}

// repairRing normalizes one ring and resolves self-intersections by
// splitting at the first crossing and keeping the larger simple loop.
func repairRing(ring orb.Ring, splits int) orb.Ring {
	ring = NormalizeRing(ring)
	if len(ring) < model.MinRingLen {
		return nil
	}

	if splits < maxBowtieSplits {
		if i, j, pt, found := firstSelfIntersection(ring); found {
			loopA, loopB := splitRingAt(ring, i, j, pt)
			fixedA := repairRing(loopA, splits+1)
			fixedB := repairRing(loopB, splits+1)
			return largerRing(fixedA, fixedB)
		}
	}

	if SignedArea(ring) == 0 {
		return nil
	}
	return ring
}

func largerRing(a, b orb.Ring) orb.Ring {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if math.Abs(SignedArea(a)) >= math.Abs(SignedArea(b)) {
		return a
	}
	return b
}

// firstSelfIntersection scans non-adjacent edge pairs for a proper
// crossing, returning the edge start indices and the crossing point.
func firstSelfIntersection(ring orb.Ring) (int, int, orb.Point, bool) {
	n := len(ring)
	for i := 0; i < n; i++ {
		a1 := ring[i]
		a2 := ring[(i+1)%n]
		for j := i + 2; j < n; j++ {
			// The closing edge (n-1, 0) is adjacent to edge 0.
			if i == 0 && j == n-1 {
				continue
			}
			b1 := ring[j]
			b2 := ring[(j+1)%n]
			if pt, ok := segmentCrossing(a1, a2, b1, b2); ok {
				return i, j, pt, true
			}
		}
	}
	return 0, 0, orb.Point{}, false
}

// segmentCrossing returns the interior crossing point of two segments, if
// any. Touching at shared endpoints does not count as a crossing.
func segmentCrossing(a1, a2, b1, b2 orb.Point) (orb.Point, bool) {
	d1x, d1y := a2[0]-a1[0], a2[1]-a1[1]
	d2x, d2y := b2[0]-b1[0], b2[1]-b1[1]

	denom := d1x*d2y - d1y*d2x
	if denom == 0 {
		return orb.Point{}, false // parallel or collinear
	}

	t := ((b1[0]-a1[0])*d2y - (b1[1]-a1[1])*d2x) / denom
	u := ((b1[0]-a1[0])*d1y - (b1[1]-a1[1])*d1x) / denom

	const eps = 1e-12
	if t <= eps || t >= 1-eps || u <= eps || u >= 1-eps {
		return orb.Point{}, false
	}
	return orb.Point{a1[0] + t*d1x, a1[1] + t*d1y}, true
}

// splitRingAt cuts a ring crossing itself between edges i and j into the
// two simple loops meeting at the crossing point.
func splitRingAt(ring orb.Ring, i, j int, pt orb.Point) (orb.Ring, orb.Ring) {
	n := len(ring)

	loopA := orb.Ring{pt}
	for k := i + 1; k <= j; k++ {
		loopA = append(loopA, ring[k])
	}

	loopB := orb.Ring{pt}
	for k := (j + 1) % n; k != i+1; k = (k + 1) % n {
		loopB = append(loopB, ring[k])
	}

	return loopA, loopB
}
