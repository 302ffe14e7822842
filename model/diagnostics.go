package model

// DiagnosticsRecord is a per-country topology snapshot taken around the
// cleaning stages. It is side-channel output for validation reports and is
// never consulted by the pipeline itself.
type DiagnosticsRecord struct {
	ISO3             string  `json:"iso"`
	ExpectedEnclaves int     `json:"expected_enclaves"`
	InitialHoles     int     `json:"initial_holes"`
	FinalHoles       int     `json:"final_holes"`
	InitialAreaDeg2  float64 `json:"initial_area"`
	FinalAreaDeg2    float64 `json:"final_area"`
	FinalAreaKm2     float64 `json:"final_area_km2"`
	AreaDeltaPct     float64 `json:"area_delta_pct"`
	IslandCount      int     `json:"island_count"`
}
