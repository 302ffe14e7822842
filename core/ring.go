package core

import (
	"github.com/paulmach/orb"

	"github.com/atlasforge/globemesh/model"
)

// NormalizeRing strips a duplicated closing vertex and consecutive
// duplicate points from a ring. The input is not modified.
func NormalizeRing(ring orb.Ring) orb.Ring {
	if len(ring) == 0 {
		return nil
	}
	out := make(orb.Ring, 0, len(ring))
	for _, pt := range ring {
		if len(out) > 0 && out[len(out)-1] == pt {
			continue
		}
		out = append(out, pt)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// SignedArea returns the shoelace signed area of a ring without a
// duplicated closing vertex. Positive for counter-clockwise winding.
func SignedArea(ring orb.Ring) float64 {
	var area float64
	n := len(ring)
	for i := 0; i < n; i++ {
		x1, y1 := ring[i][0], ring[i][1]
		x2, y2 := ring[(i+1)%n][0], ring[(i+1)%n][1]
		area += x1*y2 - x2*y1
	}
	return area / 2.0
}

// NewRing normalizes coords and builds a model.Ring with its derived area
// and bounding box. It reports false for degenerate rings (fewer than 3
// distinct points), which must never reach the classifier or triangulator.
func NewRing(coords orb.Ring) (*model.Ring, bool) {
	normalized := NormalizeRing(coords)
	if len(normalized) < model.MinRingLen {
		return nil, false
	}
	area := SignedArea(normalized)
	if area < 0 {
		area = -area
	}
	return &model.Ring{
		Coords: normalized,
		Area:   area,
		Bound:  normalized.Bound(),
		Parent: model.NoParent,
	}, true
}

// boundContains reports whether outer fully contains inner.
func boundContains(outer, inner orb.Bound) bool {
	return inner.Min[0] >= outer.Min[0] && inner.Min[1] >= outer.Min[1] &&
		inner.Max[0] <= outer.Max[0] && inner.Max[1] <= outer.Max[1]
}
