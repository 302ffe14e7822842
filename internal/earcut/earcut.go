// Package earcut triangulates planar polygons with holes using the
// ear-clipping algorithm of mapbox/earcut. Holes are merged into the outer
// ring through bridge edges before clipping, so the result references only
// the polygon's own vertices and introduces no Steiner points.
package earcut

import (
	"errors"
	"math"
	"sort"

	"github.com/paulmach/orb"
)

var (
	// ErrNoTriangles is returned when clipping terminates without
	// producing a single triangle.
	ErrNoTriangles = errors.New("earcut: produced no triangles")

	// ErrHoleBridge is returned when a hole cannot be connected to the
	// outer ring. The caller is expected to retry without holes.
	ErrHoleBridge = errors.New("earcut: cannot bridge hole into outer ring")
)

// Triangulate triangulates one polygon given as an outer ring followed by
// zero or more hole rings, none carrying a duplicated closing vertex. The
// returned indices come in triples and point into the vertex buffer formed
// by concatenating the input rings in order.
func Triangulate(rings []orb.Ring) ([]int, error) {
	if len(rings) == 0 || len(rings[0]) < 3 {
		return nil, ErrNoTriangles
	}

	outer := linkRing(rings[0], true, 0)
	if outer == nil {
		return nil, ErrNoTriangles
	}
	if len(rings) > 1 {
		var ok bool
		outer, ok = eliminateHoles(outer, rings[1:], len(rings[0]))
		if !ok {
			return nil, ErrHoleBridge
		}
	}

	triangles := clipEars(outer, nil, 0)
	if len(triangles) == 0 {
		return nil, ErrNoTriangles
	}
	return triangles, nil
}

// vertex is a doubly-linked polygon vertex. index points into the caller's
// flattened vertex buffer.
type vertex struct {
	index      int
	x, y       float64
	prev, next *vertex
	steiner    bool
}

func (v *vertex) samePoint(o *vertex) bool { return v.x == o.x && v.y == o.y }

// clipEars walks the ring cutting off ears until only a triangle remains.
// When it stalls it escalates: first filtering degenerate points, then
// curing local self-intersections, finally splitting the polygon in two.
func clipEars(ear *vertex, triangles []int, pass int) []int {
	if ear == nil {
		return triangles
	}

	stop := ear
	for ear.prev != ear.next {
		prev, next := ear.prev, ear.next

		if isEar(ear) {
			triangles = append(triangles, prev.index, ear.index, next.index)
			removeVertex(ear)
			ear = next.next
			stop = next.next
			continue
		}

		ear = next
		if ear == stop {
			switch pass {
			case 0:
				triangles = clipEars(filterPoints(ear, nil), triangles, 1)
			case 1:
				ear = filterPoints(ear, nil)
				ear, triangles = cureLocalIntersections(ear, triangles)
				triangles = clipEars(ear, triangles, 2)
			case 2:
				triangles = splitAndClip(ear, triangles)
			}
			break
		}
	}
	return triangles
}

// isEar reports whether the vertex forms a valid ear: a convex corner with
// no other reflex vertex inside its triangle.
func isEar(ear *vertex) bool {
	a, b, c := ear.prev, ear, ear.next
	if cross(a, b, c) >= 0 {
		return false // reflex corner
	}

	x0 := math.Min(a.x, math.Min(b.x, c.x))
	y0 := math.Min(a.y, math.Min(b.y, c.y))
	x1 := math.Max(a.x, math.Max(b.x, c.x))
	y1 := math.Max(a.y, math.Max(b.y, c.y))

	for p := c.next; p != a; p = p.next {
		if p.x >= x0 && p.x <= x1 && p.y >= y0 && p.y <= y1 &&
			pointInTriangleSkipFirst(a, b, c, p) &&
			cross(p.prev, p, p.next) >= 0 {
			return false
		}
	}
	return true
}

// cureLocalIntersections cuts tiny self-intersections left by degenerate
// input, emitting the enclosed triangle and dropping the crossing vertices.
func cureLocalIntersections(start *vertex, triangles []int) (*vertex, []int) {
	p := start
	for {
		a, b := p.prev, p.next.next
		if !a.samePoint(b) && segmentsIntersect(a, p, p.next, b) &&
			locallyInside(a, b) && locallyInside(b, a) {
			triangles = append(triangles, a.index, p.index, b.index)
			removeVertex(p)
			removeVertex(p.next)
		}
		p = p.next
		if p == start {
			break
		}
	}
	return filterPoints(p, nil), triangles
}

// splitAndClip looks for a valid diagonal, splits the polygon along it, and
// clips both halves independently.
func splitAndClip(start *vertex, triangles []int) []int {
	a := start
	for {
		for b := a.next.next; b != a.prev; b = b.next {
			if a.index != b.index && isValidDiagonal(a, b) {
				c := splitRing(a, b)
				a = filterPoints(a, a.next)
				c = filterPoints(c, c.next)
				triangles = clipEars(a, triangles, 0)
				return clipEars(c, triangles, 0)
			}
		}
		a = a.next
		if a == start {
			return triangles
		}
	}
}

// eliminateHoles bridges every hole into the outer ring, left to right.
// It reports false when any hole could not be bridged.
func eliminateHoles(outer *vertex, holes []orb.Ring, offset int) (*vertex, bool) {
	var queue []*vertex
	for _, hole := range holes {
		list := linkRing(hole, false, offset)
		offset += len(hole)
		if list == nil {
			continue
		}
		list.steiner = len(hole) == 1
		queue = append(queue, leftmost(list))
	}

	sort.Slice(queue, func(i, j int) bool { return compareXYSlope(queue[i], queue[j]) < 0 })

	ok := true
	for _, hole := range queue {
		bridge := findHoleBridge(hole, outer)
		if bridge == nil {
			ok = false
			continue
		}
		reversed := splitRing(bridge, hole)
		filterPoints(reversed, reversed.next)
		outer = filterPoints(bridge, bridge.next)
	}
	return outer, ok
}

// findHoleBridge locates the outer-ring vertex to connect the hole's
// leftmost point to, using the David Eberly ray-cast + minimum-angle walk.
func findHoleBridge(hole, outer *vertex) *vertex {
	p := outer
	hx, hy := hole.x, hole.y
	qx := math.Inf(-1)

	var m *vertex
	if hole.samePoint(p) {
		return p
	}
	for {
		if hole.samePoint(p.next) {
			return p.next
		}
		if hy <= p.y && hy >= p.next.y && p.next.y != p.y {
			x := p.x + (hy-p.y)*(p.next.x-p.x)/(p.next.y-p.y)
			if x <= hx && x > qx {
				qx = x
				if p.x < p.next.x {
					m = p
				} else {
					m = p.next
				}
				if x == hx {
					return m // hole touches the segment at a vertex
				}
			}
		}
		p = p.next
		if p == outer {
			break
		}
	}
	if m == nil {
		return nil
	}

	// The segment endpoint may be occluded; walk the ring for a better
	// connection point inside the candidate triangle, minimum angle first.
	stop := m
	mx, my := m.x, m.y
	tanMin := math.Inf(1)

	for p = m; ; {
		if hx >= p.x && p.x >= mx && hx != p.x &&
			pointInTriangleXY(pick(hy < my, hx, qx), hy, mx, my, pick(hy < my, qx, hx), hy, p.x, p.y) {
			tan := math.Abs(hy-p.y) / (hx - p.x)
			if locallyInside(p, hole) &&
				(tan < tanMin || (tan == tanMin && (p.x > m.x || (p.x == m.x && sectorContains(m, p))))) {
				m = p
				tanMin = tan
			}
		}
		p = p.next
		if p == stop {
			break
		}
	}
	return m
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// splitRing links a and b with a bridge edge. For vertices of the same ring
// it splits it in two; for a hole vertex and an outer vertex it merges the
// hole into the outer ring. Returns the new vertex cloned from b.
func splitRing(a, b *vertex) *vertex {
	a2 := &vertex{index: a.index, x: a.x, y: a.y}
	b2 := &vertex{index: b.index, x: b.x, y: b.y}
	an, bp := a.next, b.prev

	a.next = b
	b.prev = a

	a2.next = an
	an.prev = a2

	b2.next = a2
	a2.prev = b2

	bp.next = b2
	b2.prev = bp

	return b2
}

// filterPoints removes duplicate and collinear vertices starting at start.
func filterPoints(start, end *vertex) *vertex {
	if start == nil {
		return nil
	}
	if end == nil {
		end = start
	}

	p := start
	for {
		again := false
		if !p.steiner && (p.samePoint(p.next) || cross(p.prev, p, p.next) == 0) {
			removeVertex(p)
			p = p.prev
			end = p
			if p == p.next {
				break
			}
			again = true
		} else {
			p = p.next
		}
		if !again && p == end {
			break
		}
	}
	return end
}

// linkRing builds a circular doubly-linked list from a ring, winding it in
// the requested direction. Offset is the ring's base in the flattened
// vertex buffer.
func linkRing(ring orb.Ring, clockwise bool, offset int) *vertex {
	var last *vertex
	if (signedAreaXY(ring) > 0) == clockwise {
		for i, pt := range ring {
			last = insertVertex(offset+i, pt, last)
		}
	} else {
		for i := len(ring) - 1; i >= 0; i-- {
			last = insertVertex(offset+i, ring[i], last)
		}
	}
	if last != nil && last.samePoint(last.next) {
		removeVertex(last)
		last = last.next
	}
	return last
}

func insertVertex(index int, pt orb.Point, last *vertex) *vertex {
	v := &vertex{index: index, x: pt[0], y: pt[1]}
	if last == nil {
		v.prev = v
		v.next = v
	} else {
		v.next = last.next
		v.prev = last
		last.next.prev = v
		last.next = v
	}
	return v
}

func removeVertex(v *vertex) {
	v.next.prev = v.prev
	v.prev.next = v.next
}

func leftmost(start *vertex) *vertex {
	p, best := start, start
	for {
		if p.x < best.x || (p.x == best.x && p.y < best.y) {
			best = p
		}
		p = p.next
		if p == start {
			return best
		}
	}
}

// compareXYSlope orders hole entry points left to right; ties at a shared
// vertex are broken by outgoing slope so bridges never cross.
func compareXYSlope(a, b *vertex) float64 {
	result := a.x - b.x
	if result == 0 {
		result = a.y - b.y
		if result == 0 {
			aSlope := (a.next.y - a.y) / (a.next.x - a.x)
			bSlope := (b.next.y - b.y) / (b.next.x - b.x)
			result = aSlope - bSlope
		}
	}
	return result
}

// isValidDiagonal reports whether a-b lies fully inside the polygon and
// crosses no edges.
func isValidDiagonal(a, b *vertex) bool {
	return a.next.index != b.index && a.prev.index != b.index &&
		!intersectsRing(a, b) &&
		(locallyInside(a, b) && locallyInside(b, a) && middleInside(a, b) &&
			(cross(a.prev, a, b.prev) != 0 || cross(a, b.prev, b) != 0) ||
			a.samePoint(b) && cross(a.prev, a, a.next) > 0 && cross(b.prev, b, b.next) > 0)
}

func middleInside(a, b *vertex) bool {
	px := (a.x + b.x) / 2
	py := (a.y + b.y) / 2
	inside := false
	p := a
	for {
		if ((p.y > py) != (p.next.y > py)) && p.next.y != p.y &&
			(px < (p.next.x-p.x)*(py-p.y)/(p.next.y-p.y)+p.x) {
			inside = !inside
		}
		p = p.next
		if p == a {
			break
		}
	}
	return inside
}

func intersectsRing(a, b *vertex) bool {
	p := a
	for {
		if p.index != a.index && p.next.index != a.index &&
			p.index != b.index && p.next.index != b.index &&
			segmentsIntersect(p, p.next, a, b) {
			return true
		}
		p = p.next
		if p == a {
			return false
		}
	}
}

func segmentsIntersect(p1, q1, p2, q2 *vertex) bool {
	o1 := sign(cross(p1, q1, p2))
	o2 := sign(cross(p1, q1, q2))
	o3 := sign(cross(p2, q2, p1))
	o4 := sign(cross(p2, q2, q1))

	if o1 != o2 && o3 != o4 {
		return true
	}
	if o1 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if o2 == 0 && onSegment(p1, q2, q1) {
		return true
	}
	if o3 == 0 && onSegment(p2, p1, q2) {
		return true
	}
	if o4 == 0 && onSegment(p2, q1, q2) {
		return true
	}
	return false
}

func onSegment(p, q, r *vertex) bool {
	return q.x <= math.Max(p.x, r.x) && q.x >= math.Min(p.x, r.x) &&
		q.y <= math.Max(p.y, r.y) && q.y >= math.Min(p.y, r.y)
}

func sign(v float64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

func locallyInside(a, b *vertex) bool {
	if cross(a.prev, a, a.next) < 0 {
		return cross(a, b, a.next) >= 0 && cross(a, a.prev, b) >= 0
	}
	return cross(a, b, a.prev) < 0 || cross(a, a.next, b) < 0
}

// sectorContains reports whether the angular sector at m contains the
// sector at p, for vertices sharing a coordinate.
func sectorContains(m, p *vertex) bool {
	return cross(m.prev, m, p.prev) < 0 && cross(p.next, m, m.next) < 0
}

// cross is twice the signed triangle area of (p, q, r), with the sign
// convention of the original earcut (positive for clockwise turns).
func cross(p, q, r *vertex) float64 {
	return (q.y-p.y)*(r.x-q.x) - (q.x-p.x)*(r.y-q.y)
}

func pointInTriangleXY(ax, ay, bx, by, cx, cy, px, py float64) bool {
	return (cx-px)*(ay-py) >= (ax-px)*(cy-py) &&
		(ax-px)*(by-py) >= (bx-px)*(ay-py) &&
		(bx-px)*(cy-py) >= (cx-px)*(by-py)
}

func pointInTriangleSkipFirst(a, b, c, p *vertex) bool {
	return !(a.x == b.x && a.y == b.y) &&
		pointInTriangleXY(a.x, a.y, b.x, b.y, c.x, c.y, p.x, p.y)
}

// signedAreaXY is the closing-edge-inclusive shoelace sum used only to
// detect winding; positive means clockwise under this convention.
func signedAreaXY(ring orb.Ring) float64 {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i - 1 + n) % n
		sum += (ring[j][0] - ring[i][0]) * (ring[i][1] + ring[j][1])
	}
	return sum
}
