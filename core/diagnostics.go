package core

import (
	"github.com/atlasforge/globemesh/kb"
	"github.com/atlasforge/globemesh/model"
)

// Snapshot computes a country's topology diagnostics from its geometry
// before and after cleaning. It is a pure observer: a degenerate or empty
// geometry produces zeroed fields rather than an error, so diagnostics can
// never take the pipeline down with them.
func Snapshot(before, after model.CountryGeometry, ref *kb.ReferenceData) model.DiagnosticsRecord {
	rec := model.DiagnosticsRecord{
		ISO3:             before.ISO3,
		ExpectedEnclaves: ref.ExpectedEnclaveCount(before.ISO3),
		InitialHoles:     before.HoleCount(),
		FinalHoles:       after.HoleCount(),
		InitialAreaDeg2:  AreaDeg2(before.Polygons),
		FinalAreaDeg2:    AreaDeg2(after.Polygons),
		FinalAreaKm2:     AreaKm2(after.Polygons),
		IslandCount:      after.IslandCount(),
	}
	if rec.InitialAreaDeg2 > 0 {
		rec.AreaDeltaPct = (rec.InitialAreaDeg2 - rec.FinalAreaDeg2) / rec.InitialAreaDeg2 * 100
	}
	return rec
}
