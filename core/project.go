package core

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/atlasforge/globemesh/model"
)

// DefaultSphereRadius is the render-sphere radius country meshes sit on,
// slightly above the unit-10 ocean sphere so boundaries never z-fight.
const DefaultSphereRadius = 10.05

// authalicRadiusM is the Earth radius (metres) of the sphere with the same
// surface area as the WGS84 ellipsoid, the one behind the world
// cylindrical equal-area projection used for km² thresholds.
const authalicRadiusM = 6371007.2

const degToRad = math.Pi / 180.0

// ProjectToSphere maps a planar (longitude, latitude) point in degrees to
// a fixed-radius 3-D position. Coordinates are rounded to 6 decimals so
// output is byte-identical across runs and platforms. The function is pure
// and total for finite inputs; out-of-range angles are not wrapped or
// clamped.
func ProjectToSphere(lon, lat, radius float64) model.Vec3 {
	lonR := lon * degToRad
	latR := lat * degToRad
	return model.Vec3{
		X: round6(radius * math.Cos(latR) * math.Cos(lonR)),
		Y: round6(radius * math.Cos(latR) * math.Sin(lonR)),
		Z: round6(radius * math.Sin(latR)),
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// equalAreaPoint is the forward Lambert cylindrical equal-area transform
// (standard parallel 0): degrees in, metres out. Used only for area
// thresholds, never for rendering.
func equalAreaPoint(p orb.Point) orb.Point {
	return orb.Point{
		authalicRadiusM * p[0] * degToRad,
		authalicRadiusM * math.Sin(p[1]*degToRad),
	}
}

// RingAreaKm2 returns a ring's area under the equal-area projection, in
// km². The sign of the winding is discarded.
func RingAreaKm2(ring orb.Ring) float64 {
	projected := make(orb.Ring, len(ring))
	for i, pt := range ring {
		projected[i] = equalAreaPoint(pt)
	}
	area := SignedArea(projected)
	if area < 0 {
		area = -area
	}
	return area / 1e6
}

// AreaKm2 returns a polygon set's equal-area km² area: exterior areas
// minus hole areas, floored at zero per polygon.
func AreaKm2(mp orb.MultiPolygon) float64 {
	var total float64
	for _, poly := range mp {
		if len(poly) == 0 {
			continue
		}
		area := RingAreaKm2(poly[0])
		for _, hole := range poly[1:] {
			area -= RingAreaKm2(hole)
		}
		if area > 0 {
			total += area
		}
	}
	return total
}

// AreaDeg2 returns the planar degree² area of a polygon set, exterior
// minus holes, floored at zero per polygon. Diagnostics use this to match
// areas against the raw source data.
func AreaDeg2(mp orb.MultiPolygon) float64 {
	var total float64
	for _, poly := range mp {
		if len(poly) == 0 {
			continue
		}
		area := math.Abs(SignedArea(poly[0]))
		for _, hole := range poly[1:] {
			area -= math.Abs(SignedArea(hole))
		}
		if area > 0 {
			total += area
		}
	}
	return total
}
