package model

import "github.com/paulmach/orb"

// NoParent marks a ring with no enclosing ring in its forest.
const NoParent = -1

// MinRingLen is the smallest number of distinct vertices a usable ring can
// have. Anything shorter is degenerate and is dropped before classification.
const MinRingLen = 3

// Ring is one closed boundary loop, stored without a duplicated closing
// vertex, together with the facts the nesting classifier derives for it.
// Parent and Children are indices into the owning RingForest arena rather
// than pointers, so the hierarchy forms a tree without reference cycles.
type Ring struct {
	Coords orb.Ring
	Area   float64 // absolute shoelace area, degrees²
	Bound  orb.Bound

	Parent   int
	Children []int
	Depth    int
}

// IsHole reports whether the ring carves a hole out of its parent.
// Even depth outlines a filled region, odd depth a hole.
func (r *Ring) IsHole() bool { return r.Depth%2 == 1 }

// RingForest owns an arena of classified rings. Index identity is stable
// for the lifetime of the forest.
type RingForest struct {
	Rings []*Ring
}

// Roots returns the indices of all rings without a parent, in arena order.
func (f *RingForest) Roots() []int {
	var roots []int
	for i, r := range f.Rings {
		if r.Parent == NoParent {
			roots = append(roots, i)
		}
	}
	return roots
}
