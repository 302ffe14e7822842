package core

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/atlasforge/globemesh/model"
)

// ClassifyRings groups a flat collection of rings into a containment
// forest. Rings are processed largest-first; each ring's parent is the
// smallest already-processed ring whose bounding box contains the ring's
// box and whose polygon contains the ring's first vertex, found by
// scanning prior rings in reverse area order. Parentless rings become
// roots, the normal case for disjoint island exteriors. Depth is the
// hierarchy distance from the root: even depth outlines fill, odd depth a
// hole.
//
// Rings are annotated in place; parent and children indices refer to the
// returned forest's arena order, not the input order.
func ClassifyRings(rings []*model.Ring) *model.RingForest {
	ordered := make([]*model.Ring, len(rings))
	copy(ordered, rings)

	// Stable so that equal-area rings keep their input order and the
	// classification stays reproducible.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Area > ordered[j].Area
	})

	for i, ring := range ordered {
		ring.Parent = model.NoParent
		ring.Children = nil
		ring.Depth = 0

		probe := ring.Coords[0]
		for j := i - 1; j >= 0; j-- {
			candidate := ordered[j]
			if !boundContains(candidate.Bound, ring.Bound) {
				continue
			}
			if !planar.RingContains(candidate.Coords, probe) {
				continue
			}
			ring.Parent = j
			candidate.Children = append(candidate.Children, i)
			break
		}
	}

	forest := &model.RingForest{Rings: ordered}
	for i, ring := range ordered {
		if ring.Parent == model.NoParent {
			assignDepth(forest, i, 0)
		}
	}
	return forest
}

func assignDepth(f *model.RingForest, idx, depth int) {
	ring := f.Rings[idx]
	ring.Depth = depth
	for _, child := range ring.Children {
		assignDepth(f, child, depth+1)
	}
}

// AssemblePolygons converts a classified forest into polygons: every
// even-depth ring becomes an exterior carrying its immediate odd-depth
// children as holes. Nested islands (depth 2, 4, ...) become their own
// polygons, matching how multi-part countries are modeled.
func AssemblePolygons(f *model.RingForest) orb.MultiPolygon {
	var mp orb.MultiPolygon
	for _, ring := range f.Rings {
		if ring.IsHole() {
			continue
		}
		poly := orb.Polygon{ring.Coords}
		for _, childIdx := range ring.Children {
			child := f.Rings[childIdx]
			if child.Depth == ring.Depth+1 {
				poly = append(poly, child.Coords)
			}
		}
		mp = append(mp, poly)
	}
	return mp
}
