package core

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	shp "gitee.com/LJ_COOL/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/atlasforge/globemesh/internal/logging"
	"github.com/atlasforge/globemesh/kb"
	"github.com/atlasforge/globemesh/model"
)

// isoColumns are the attribute columns tried, in order, for a feature's
// ISO3 code. Natural Earth ships both; ADM0_A3 is the fallback because
// ISO_A3 is -99 for a handful of disputed territories.
var isoColumns = []string{"ISO_A3", "ADM0_A3"}

// nameColumns are the attribute columns tried, in order, for a feature's
// display name.
var nameColumns = []string{"NAME_LONG", "NAME_EN", "NAME", "ADMIN"}

// LoadCountries reads a country shapefile and returns one CountryGeometry
// per ISO3 code, sorted by code. Features sharing a code are dissolved by
// concatenating their polygons. Features with a missing or -99 code are
// skipped with a log line. isoColumn overrides the default column
// detection; either way a shapefile without the ISO column is an error,
// since every downstream stage keys on the code.
func LoadCountries(ctx context.Context, path, isoColumn string, log logging.Logger) ([]model.CountryGeometry, error) {
	if log == nil {
		log = logging.Noop()
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer reader.Close()

	wantISO := isoColumns
	if isoColumn != "" {
		wantISO = []string{isoColumn}
	}
	fields := reader.Fields()
	isoCol := findColumn(fields, wantISO)
	if isoCol < 0 {
		return nil, fmt.Errorf("shapefile %s has none of the ISO columns %v", path, wantISO)
	}
	nameCol := findColumn(fields, nameColumns)

	byISO := make(map[string]*model.CountryGeometry)
	skipped := 0
	for reader.Next() {
		n, p := reader.Shape()

		iso := strings.TrimSpace(reader.ReadAttribute(n, isoCol))
		if iso == "" || iso == "-99" {
			skipped++
			continue
		}

		poly, ok := p.(*shp.Polygon)
		if !ok {
			log.Warn(ctx, "skipping non-polygon feature",
				logging.String("iso", iso),
				logging.Int("record", n))
			continue
		}

		mp := assembleFeature(shapeRings(poly))
		if len(mp) == 0 {
			log.Warn(ctx, "feature has no usable rings", logging.String("iso", iso))
			continue
		}

		if existing, ok := byISO[iso]; ok {
			merged := existing.WithPolygons(append(existing.Polygons, mp...))
			byISO[iso] = &merged
			continue
		}
		name := iso
		if nameCol >= 0 {
			if v := strings.TrimSpace(reader.ReadAttribute(n, nameCol)); v != "" {
				name = v
			}
		}
		cg := model.NewCountryGeometry(iso, name, mp)
		byISO[iso] = &cg
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}

	countries := make([]model.CountryGeometry, 0, len(byISO))
	for _, cg := range byISO {
		countries = append(countries, *cg)
	}
	sort.Slice(countries, func(i, j int) bool { return countries[i].ISO3 < countries[j].ISO3 })

	log.Info(ctx, "countries loaded",
		logging.String("path", path),
		logging.Int("countries", len(countries)),
		logging.Int("skipped_features", skipped))
	return countries, nil
}

// LoadCountriesGeoJSON reads a GeoJSON feature collection with the same
// ISO/name column conventions as LoadCountries. Mainly used by tests and
// small fixture runs.
func LoadCountriesGeoJSON(ctx context.Context, path string, log logging.Logger) ([]model.CountryGeometry, error) {
	if log == nil {
		log = logging.Noop()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("parse geojson %s: %w", path, err)
	}

	byISO := make(map[string]*model.CountryGeometry)
	sawISO := false
	for _, feature := range fc.Features {
		iso := propertyString(feature.Properties, isoColumns)
		if iso != "" {
			sawISO = true
		}
		if iso == "" || iso == "-99" {
			continue
		}

		var mp orb.MultiPolygon
		switch geom := feature.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{geom}
		case orb.MultiPolygon:
			mp = geom
		default:
			log.Warn(ctx, "skipping non-polygon feature", logging.String("iso", iso))
			continue
		}

		if existing, ok := byISO[iso]; ok {
			merged := existing.WithPolygons(append(existing.Polygons, mp...))
			byISO[iso] = &merged
			continue
		}
		name := propertyString(feature.Properties, nameColumns)
		if name == "" {
			name = iso
		}
		cg := model.NewCountryGeometry(iso, name, mp)
		byISO[iso] = &cg
	}
	if !sawISO && len(fc.Features) > 0 {
		return nil, fmt.Errorf("geojson %s has none of the ISO properties %v", path, isoColumns)
	}

	countries := make([]model.CountryGeometry, 0, len(byISO))
	for _, cg := range byISO {
		countries = append(countries, *cg)
	}
	sort.Slice(countries, func(i, j int) bool { return countries[i].ISO3 < countries[j].ISO3 })
	return countries, nil
}

// LoadLakes reads an optional water-body shapefile into a LakesIndex. A
// missing file is the degraded-but-valid mode: it returns a nil index and
// logs, so hole filtering simply skips the water check.
func LoadLakes(ctx context.Context, path string, log logging.Logger) (*kb.LakesIndex, error) {
	if log == nil {
		log = logging.Noop()
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Warn(ctx, "lakes shapefile missing; water-overlap check disabled",
			logging.String("path", path))
		return nil, nil
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lakes shapefile %s: %w", path, err)
	}
	defer reader.Close()

	var lakes []orb.Polygon
	for reader.Next() {
		_, p := reader.Shape()
		poly, ok := p.(*shp.Polygon)
		if !ok {
			continue
		}
		for _, lake := range assembleFeature(shapeRings(poly)) {
			lakes = append(lakes, lake)
		}
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read lakes shapefile %s: %w", path, err)
	}

	log.Info(ctx, "lakes loaded", logging.String("path", path), logging.Int("lakes", len(lakes)))
	return kb.NewLakesIndex(lakes), nil
}

// BuildCentroidLookup records a representative interior point for every
// country, used by the enclave override during hole filtering.
func BuildCentroidLookup(countries []model.CountryGeometry, ref *kb.ReferenceData) {
	for _, cg := range countries {
		if pt, ok := RepresentativePoint(cg.Polygons); ok {
			ref.SetCentroid(cg.ISO3, pt)
		}
	}
}

// RepresentativePoint returns a point guaranteed to lie inside the
// geometry: the largest polygon's centroid when it is interior, otherwise
// the midpoint of an interior chord through the centroid's latitude.
func RepresentativePoint(mp orb.MultiPolygon) (orb.Point, bool) {
	largest, ok := largestPolygon(mp)
	if !ok {
		return orb.Point{}, false
	}

	centroid := ringCentroid(largest[0])
	if planar.PolygonContains(largest, centroid) {
		return centroid, true
	}

	if pt, ok := interiorChordMidpoint(largest, centroid[1]); ok {
		return pt, true
	}
	return centroid, true
}

func largestPolygon(mp orb.MultiPolygon) (orb.Polygon, bool) {
	var best orb.Polygon
	bestArea := 0.0
	for _, poly := range mp {
		if len(poly) == 0 || len(poly[0]) < model.MinRingLen {
			continue
		}
		area := math.Abs(SignedArea(poly[0]))
		if best == nil || area > bestArea {
			best, bestArea = poly, area
		}
	}
	return best, best != nil
}

// ringCentroid computes the area-weighted centroid of a ring, falling back
// to the vertex mean for zero-area rings.
func ringCentroid(ring orb.Ring) orb.Point {
	var cx, cy, area float64
	n := len(ring)
	for i := 0; i < n; i++ {
		p, q := ring[i], ring[(i+1)%n]
		cross := p[0]*q[1] - q[0]*p[1]
		cx += (p[0] + q[0]) * cross
		cy += (p[1] + q[1]) * cross
		area += cross
	}
	if area == 0 {
		var sx, sy float64
		for _, p := range ring {
			sx += p[0]
			sy += p[1]
		}
		return orb.Point{sx / float64(n), sy / float64(n)}
	}
	return orb.Point{cx / (3 * area), cy / (3 * area)}
}

// interiorChordMidpoint intersects a horizontal line with the polygon's
// exterior and returns the midpoint of the widest interior interval.
func interiorChordMidpoint(poly orb.Polygon, y float64) (orb.Point, bool) {
	ring := poly[0]
	var xs []float64
	n := len(ring)
	for i := 0; i < n; i++ {
		p, q := ring[i], ring[(i+1)%n]
		if (p[1] <= y && q[1] > y) || (q[1] <= y && p[1] > y) {
			t := (y - p[1]) / (q[1] - p[1])
			xs = append(xs, p[0]+t*(q[0]-p[0]))
		}
	}
	if len(xs) < 2 {
		return orb.Point{}, false
	}
	sort.Float64s(xs)

	var best orb.Point
	bestWidth := 0.0
	found := false
	for i := 0; i+1 < len(xs); i += 2 {
		width := xs[i+1] - xs[i]
		mid := orb.Point{(xs[i] + xs[i+1]) / 2, y}
		if width > bestWidth && planar.PolygonContains(poly, mid) {
			best, bestWidth, found = mid, width, true
		}
	}
	return best, found
}

// shapeRings splits a shapefile polygon's flat point list at its part
// offsets and converts each part into a candidate ring.
func shapeRings(poly *shp.Polygon) []orb.Ring {
	parts := make([]int, 0, len(poly.Parts)+1)
	for _, part := range poly.Parts {
		parts = append(parts, int(part))
	}
	parts = append(parts, len(poly.Points))

	var rings []orb.Ring
	for i := 0; i+1 < len(parts); i++ {
		start, end := parts[i], parts[i+1]
		if start < 0 || end > len(poly.Points) || end-start < model.MinRingLen {
			continue
		}
		ring := make(orb.Ring, 0, end-start)
		for _, pt := range poly.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}

// assembleFeature classifies a feature's rings by containment and builds
// the polygon set: even-depth rings become exteriors, their immediate
// children holes.
func assembleFeature(raw []orb.Ring) orb.MultiPolygon {
	rings := make([]*model.Ring, 0, len(raw))
	for _, r := range raw {
		if ring, ok := NewRing(r); ok {
			rings = append(rings, ring)
		}
	}
	if len(rings) == 0 {
		return nil
	}
	return AssemblePolygons(ClassifyRings(rings))
}

func findColumn(fields []shp.Field, candidates []string) int {
	for _, want := range candidates {
		for i, f := range fields {
			if strings.EqualFold(strings.TrimSpace(f.String()), want) {
				return i
			}
		}
	}
	return -1
}

func propertyString(props geojson.Properties, keys []string) string {
	for _, key := range keys {
		if v, ok := props[key]; ok {
			if s, ok := v.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}
