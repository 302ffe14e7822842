package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atlasforge/globemesh/core"
	"github.com/atlasforge/globemesh/internal/logging"
	"github.com/atlasforge/globemesh/internal/observability"
	"github.com/atlasforge/globemesh/kb"
	"github.com/atlasforge/globemesh/model"
)

func main() {
	countriesPath := flag.String("countries", "data/ne_10m_admin_0_countries.shp", "Path to the country polygons shapefile")
	geojsonPath := flag.String("countries-geojson", "", "Load countries from a GeoJSON feature collection instead of a shapefile")
	isoColumn := flag.String("iso-column", "", "Attribute column holding ISO3 codes (default: auto-detect ISO_A3, ADM0_A3)")
	lakesPath := flag.String("lakes", "", "Optional lakes shapefile for the water-overlap hole check")
	outputPath := flag.String("output", "meshes.json", "Where to write the country meshes JSON")
	diagnosticsPath := flag.String("diagnostics", "", "Optional path for the per-country diagnostics JSON")
	isoFilter := flag.String("iso", "", "Comma-separated ISO3 codes to process (default: all)")
	tolerance := flag.Float64("simplify-tolerance", 0.02, "Douglas-Peucker tolerance in degrees")
	radius := flag.Float64("radius", core.DefaultSphereRadius, "Render sphere radius")
	workers := flag.Int("workers", 4, "Concurrent country workers")
	minHoleArea := flag.Float64("min-hole-area-km2", 1.0, "Discard holes smaller than this equal-area size")
	waterOverlap := flag.Float64("water-overlap-threshold", 0.5, "Discard holes whose lake-overlap ratio meets this")
	keepHoles := flag.Bool("keep-non-enclave-holes", false, "Keep holes that pass the area and water checks but match no enclave")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (empty disables)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	var collector *observability.PipelineCollector
	var metricsSrv *http.Server
	if *metricsAddr != "" {
		collector, err = observability.NewPipelineCollector(nil)
		if err != nil {
			log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
			os.Exit(1)
		}
		metricsSrv = serveMetrics(*metricsAddr, collector, log)
	}

	countries, err := loadCountries(ctx, *countriesPath, *geojsonPath, *isoColumn, log)
	if err != nil {
		log.Error(ctx, "failed to load countries", logging.String("error", err.Error()))
		os.Exit(1)
	}
	countries = filterISO(countries, *isoFilter)
	if len(countries) == 0 {
		log.Error(ctx, "no countries to process")
		os.Exit(1)
	}

	ref := kb.NewReferenceData()
	core.BuildCentroidLookup(countries, ref)

	lakes, err := core.LoadLakes(ctx, *lakesPath, log)
	if err != nil {
		log.Error(ctx, "failed to load lakes", logging.String("error", err.Error()))
		os.Exit(1)
	}
	ref.SetLakes(lakes)

	cfg := core.Config{
		SimplifyTolerance: *tolerance,
		SphereRadius:      *radius,
		HolePolicy: core.HolePolicy{
			MinHoleAreaKm2:        *minHoleArea,
			WaterOverlapThreshold: *waterOverlap,
			KeepNonEnclaveHoles:   *keepHoles,
		},
		Workers:        *workers,
		AreaWarningPct: core.DefaultConfig().AreaWarningPct,
	}

	engine := core.NewEngine(cfg, ref, log, collector)

	startedAt := time.Now()
	store, diags, err := engine.Run(ctx, countries)
	if err != nil {
		log.Error(ctx, "pipeline run failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info(ctx, "pipeline complete",
		logging.Int("countries_in", len(countries)),
		logging.Int("meshes_out", store.Len()),
		logging.String("elapsed", time.Since(startedAt).String()))

	if err := writeMeshes(*outputPath, store); err != nil {
		log.Error(ctx, "failed to write meshes", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *diagnosticsPath != "" {
		if err := writeJSON(*diagnosticsPath, diags); err != nil {
			log.Error(ctx, "failed to write diagnostics", logging.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func loadCountries(ctx context.Context, shpPath, geojsonPath, isoColumn string, log logging.Logger) ([]model.CountryGeometry, error) {
	if geojsonPath != "" {
		return core.LoadCountriesGeoJSON(ctx, geojsonPath, log)
	}
	return core.LoadCountries(ctx, shpPath, isoColumn, log)
}

func filterISO(countries []model.CountryGeometry, filter string) []model.CountryGeometry {
	if filter == "" {
		return countries
	}
	wanted := make(map[string]bool)
	for _, iso := range strings.Split(filter, ",") {
		if iso = strings.ToUpper(strings.TrimSpace(iso)); iso != "" {
			wanted[iso] = true
		}
	}
	var out []model.CountryGeometry
	for _, cg := range countries {
		if wanted[cg.ISO3] {
			out = append(out, cg)
		}
	}
	return out
}

// meshJSON is the per-country output shape: a name plus flat vertex and
// face index arrays.
type meshJSON struct {
	Name  string       `json:"name"`
	Verts [][3]float64 `json:"verts"`
	Faces [][3]int     `json:"faces"`
}

func writeMeshes(path string, store *kb.MeshStore) error {
	out := make(map[string]meshJSON, store.Len())
	for iso, mesh := range store.Snapshot() {
		entry := meshJSON{
			Name:  mesh.Name,
			Verts: make([][3]float64, 0, len(mesh.Vertices)),
			Faces: make([][3]int, 0, len(mesh.Faces)),
		}
		for _, v := range mesh.Vertices {
			entry.Verts = append(entry.Verts, [3]float64{v.X, v.Y, v.Z})
		}
		for _, f := range mesh.Faces {
			entry.Faces = append(entry.Faces, [3]int(f))
		}
		out[iso] = entry
	}
	return writeJSON(path, out)
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func serveMetrics(addr string, collector *observability.PipelineCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
