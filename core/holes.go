package core

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/atlasforge/globemesh/kb"
	"github.com/atlasforge/globemesh/model"
)

// HolePolicy configures which interior rings survive cleaning.
//
// The historical behavior of this pipeline is that only enclave holes are
// ever kept: the area and water checks run, but a hole that passes both is
// still discarded unless KeepNonEnclaveHoles is set. The toggle exists so
// the presumed-intended policy can be enabled without touching code once
// the owners decide which behavior they actually want.
type HolePolicy struct {
	// MinHoleAreaKm2 discards holes smaller than this equal-area size.
	MinHoleAreaKm2 float64
	// WaterOverlapThreshold discards holes whose lake-overlap ratio
	// meets or exceeds it; those are water bodies, not terrain gaps.
	WaterOverlapThreshold float64
	// KeepNonEnclaveHoles enables the "keep" outcome for holes that
	// pass the area and water checks but match no enclave.
	KeepNonEnclaveHoles bool
}

// DefaultHolePolicy mirrors the production thresholds.
func DefaultHolePolicy() HolePolicy {
	return HolePolicy{
		MinHoleAreaKm2:        1.0,
		WaterOverlapThreshold: 0.5,
	}
}

// HoleOutcome labels why a hole was kept or dropped, for logs and metrics.
type HoleOutcome string

const (
	HoleKeptEnclave    HoleOutcome = "enclave"
	HoleKeptRetained   HoleOutcome = "retained"
	HoleDropDegenerate HoleOutcome = "degenerate"
	HoleDropAreaFloor  HoleOutcome = "below_area_floor"
	HoleDropWater      HoleOutcome = "water_overlap"
	HoleDropNonEnclave HoleOutcome = "non_enclave"
)

// Kept reports whether the outcome retains the hole.
func (o HoleOutcome) Kept() bool {
	return o == HoleKeptEnclave || o == HoleKeptRetained
}

// EvaluateHole decides one hole's fate. Checks run in fixed order:
// enclave override first (an enclave centroid inside the hole keeps it
// unconditionally), then the area floor, then water overlap, and finally
// the non-enclave default.
func EvaluateHole(hole orb.Ring, hostISO string, ref *kb.ReferenceData, policy HolePolicy) HoleOutcome {
	if len(hole) < model.MinRingLen {
		return HoleDropDegenerate
	}

	for _, enclaveISO := range ref.EnclavesOf(hostISO) {
		centroid, ok := ref.Centroid(enclaveISO)
		if ok && planar.RingContains(hole, centroid) {
			return HoleKeptEnclave
		}
	}

	if RingAreaKm2(hole) < policy.MinHoleAreaKm2 {
		return HoleDropAreaFloor
	}
	if ref.Lakes().OverlapRatio(hole) >= policy.WaterOverlapThreshold {
		return HoleDropWater
	}
	if policy.KeepNonEnclaveHoles {
		return HoleKeptRetained
	}
	return HoleDropNonEnclave
}

// FilterCountryHoles applies the hole policy to every polygon of a
// country. Exterior rings are always retained; holes are normalized and
// kept or dropped per EvaluateHole. The per-outcome counts are returned
// for diagnostics and metrics. Pure aside from read-only index queries.
func FilterCountryHoles(cg model.CountryGeometry, ref *kb.ReferenceData, policy HolePolicy) (model.CountryGeometry, map[HoleOutcome]int) {
	outcomes := make(map[HoleOutcome]int)

	switch cg.Kind {
	case model.GeometryEmpty, model.GeometryUnsupported:
		return cg, outcomes
	case model.GeometryPolygon, model.GeometryMultiPolygon:
	}

	filtered := make(orb.MultiPolygon, 0, len(cg.Polygons))
	for _, poly := range cg.Polygons {
		if len(poly) == 0 {
			continue
		}
		out := orb.Polygon{poly[0]}
		for _, hole := range poly[1:] {
			normalized := NormalizeRing(hole)
			outcome := EvaluateHole(normalized, cg.ISO3, ref, policy)
			outcomes[outcome]++
			if outcome.Kept() {
				out = append(out, normalized)
			}
		}
		filtered = append(filtered, out)
	}
	return cg.WithPolygons(filtered), outcomes
}
