package model

import "github.com/paulmach/orb"

// GeometryKind tags the shape of a country's geometry so that consumers can
// switch exhaustively instead of probing dynamic geometry types.
type GeometryKind int

const (
	GeometryEmpty GeometryKind = iota
	GeometryPolygon
	GeometryMultiPolygon
	GeometryUnsupported
)

// CountryGeometry is one country's boundary set as it moves through the
// pipeline. Stages return new values; a geometry is never mutated in place
// once handed to the engine.
type CountryGeometry struct {
	ISO3 string
	Name string
	Kind GeometryKind

	// Polygons is the canonical storage for both the Polygon and
	// MultiPolygon kinds; a single polygon is a one-element set.
	Polygons orb.MultiPolygon
}

// NewCountryGeometry wraps an orb geometry in a tagged CountryGeometry.
// Geometry types other than Polygon / MultiPolygon are tagged Unsupported
// and carry no polygons.
func NewCountryGeometry(iso3, name string, geom orb.Geometry) CountryGeometry {
	cg := CountryGeometry{ISO3: iso3, Name: name}
	switch g := geom.(type) {
	case orb.Polygon:
		if len(g) == 0 {
			cg.Kind = GeometryEmpty
			return cg
		}
		cg.Kind = GeometryPolygon
		cg.Polygons = orb.MultiPolygon{g}
	case orb.MultiPolygon:
		if len(g) == 0 {
			cg.Kind = GeometryEmpty
			return cg
		}
		cg.Kind = GeometryMultiPolygon
		cg.Polygons = g
	case nil:
		cg.Kind = GeometryEmpty
	default:
		cg.Kind = GeometryUnsupported
	}
	return cg
}

// WithPolygons returns a copy of the geometry carrying a new polygon set,
// retagged to match its shape.
func (cg CountryGeometry) WithPolygons(mp orb.MultiPolygon) CountryGeometry {
	out := cg
	out.Polygons = mp
	switch len(mp) {
	case 0:
		out.Kind = GeometryEmpty
	case 1:
		out.Kind = GeometryPolygon
	default:
		out.Kind = GeometryMultiPolygon
	}
	return out
}

// IsEmpty reports whether there is nothing left to process.
func (cg CountryGeometry) IsEmpty() bool {
	return cg.Kind == GeometryEmpty || cg.Kind == GeometryUnsupported || len(cg.Polygons) == 0
}

// IslandCount returns the number of disjoint polygons (islands).
func (cg CountryGeometry) IslandCount() int {
	if cg.IsEmpty() {
		return 0
	}
	return len(cg.Polygons)
}

// HoleCount returns the total number of interior rings across all polygons.
func (cg CountryGeometry) HoleCount() int {
	if cg.IsEmpty() {
		return 0
	}
	n := 0
	for _, poly := range cg.Polygons {
		if len(poly) > 1 {
			n += len(poly) - 1
		}
	}
	return n
}
