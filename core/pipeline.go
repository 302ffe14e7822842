package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/atlasforge/globemesh/internal/logging"
	"github.com/atlasforge/globemesh/internal/observability"
	"github.com/atlasforge/globemesh/kb"
	"github.com/atlasforge/globemesh/model"
)

// Config holds the tunables of a pipeline run.
type Config struct {
	// SimplifyTolerance is the Douglas-Peucker tolerance in degrees.
	SimplifyTolerance float64
	// SphereRadius scales the projected vertex positions.
	SphereRadius float64
	// HolePolicy decides which interior rings survive cleaning.
	HolePolicy HolePolicy
	// Workers bounds concurrent country processing; values below 1 run
	// sequentially.
	Workers int
	// AreaWarningPct triggers a warning when simplification and repair
	// shed more than this percentage of a country's initial area.
	AreaWarningPct float64
}

// DefaultConfig mirrors the production run parameters.
func DefaultConfig() Config {
	return Config{
		SimplifyTolerance: 0.02,
		SphereRadius:      DefaultSphereRadius,
		HolePolicy:        DefaultHolePolicy(),
		Workers:           4,
		AreaWarningPct:    10,
	}
}

// Engine runs the geometry-to-mesh pipeline over a set of countries.
// Countries are independent, so they are fanned out to a worker pool; all
// shared state (reference data, the mesh store) is either read-only or
// internally synchronized.
type Engine struct {
	cfg     Config
	ref     *kb.ReferenceData
	log     logging.Logger
	metrics *observability.PipelineCollector
}

// NewEngine constructs an Engine. The logger and metrics collector may be
// nil; reference data must not be.
func NewEngine(cfg Config, ref *kb.ReferenceData, log logging.Logger, metrics *observability.PipelineCollector) *Engine {
	if log == nil {
		log = logging.Noop()
	}
	return &Engine{cfg: cfg, ref: ref, log: log, metrics: metrics}
}

// countryResult carries one worker's output back to the collector.
type countryResult struct {
	iso  string
	mesh *model.Mesh
	diag model.DiagnosticsRecord
}

// Run processes every country and returns the stored meshes plus one
// diagnostics record per country, sorted by ISO code. A country that fails
// cleaning or triangulation is logged and skipped; it never aborts the
// run. Run returns early only when the context is cancelled.
func (e *Engine) Run(ctx context.Context, countries []model.CountryGeometry) (*kb.MeshStore, []model.DiagnosticsRecord, error) {
	store := kb.NewMeshStore()
	diags := make([]model.DiagnosticsRecord, 0, len(countries))

	workers := e.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(countries) {
		workers = len(countries)
	}

	jobs := make(chan model.CountryGeometry)
	results := make(chan countryResult)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cg := range jobs {
				mesh, diag := e.processCountry(ctx, cg)
				select {
				case results <- countryResult{iso: cg.ISO3, mesh: mesh, diag: diag}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, cg := range countries {
			select {
			case jobs <- cg:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Keep draining even after an error so workers never block on send.
	var runErr error
	for res := range results {
		diags = append(diags, res.diag)
		if res.mesh == nil {
			e.metrics.CountCountry("skipped")
			continue
		}
		if err := store.Add(res.iso, res.mesh); err != nil {
			if runErr == nil {
				runErr = err
			}
			continue
		}
		e.metrics.CountCountry("meshed")
		e.metrics.AddTriangles(res.mesh.TriangleCount())
	}
	if runErr != nil {
		return nil, nil, runErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(diags, func(i, j int) bool { return diags[i].ISO3 < diags[j].ISO3 })
	return store, diags, nil
}

// processCountry runs the full stage sequence for one country: repair,
// hole filtering, repair, simplification, repair, diagnostics, then
// triangulation. A nil mesh means the country was skipped.
func (e *Engine) processCountry(ctx context.Context, cg model.CountryGeometry) (*model.Mesh, model.DiagnosticsRecord) {
	tracer := otel.Tracer("globemesh/pipeline")
	ctx, span := tracer.Start(ctx, "process_country",
		trace.WithAttributes(attribute.String("iso", cg.ISO3)))
	defer span.End()

	log := logging.WithCountry(e.log, cg.ISO3)
	initial := cg

	start := time.Now()
	repaired, err := Repair(cg)
	e.metrics.ObserveStage("repair", start)
	if err != nil {
		log.Warn(ctx, "country empty after initial repair; skipping")
		return nil, Snapshot(initial, repaired, e.ref)
	}

	start = time.Now()
	filtered, outcomes := FilterCountryHoles(repaired, e.ref, e.cfg.HolePolicy)
	e.metrics.ObserveStage("filter_holes", start)
	for outcome, n := range outcomes {
		e.metrics.CountHoleOutcome(string(outcome), n)
	}

	start = time.Now()
	filtered, err = Repair(filtered)
	e.metrics.ObserveStage("repair", start)
	if err != nil {
		log.Warn(ctx, "country empty after hole filtering; skipping")
		return nil, Snapshot(initial, filtered, e.ref)
	}

	start = time.Now()
	simplified := Simplify(filtered, e.cfg.SimplifyTolerance)
	e.metrics.ObserveStage("simplify", start)

	start = time.Now()
	cleaned, err := Repair(simplified)
	e.metrics.ObserveStage("repair", start)
	if err != nil {
		log.Warn(ctx, "country empty after simplification; skipping")
		return nil, Snapshot(initial, cleaned, e.ref)
	}

	diag := Snapshot(initial, cleaned, e.ref)
	if diag.FinalHoles > diag.ExpectedEnclaves {
		log.Warn(ctx, "more holes kept than expected enclaves",
			logging.Int("holes", diag.FinalHoles),
			logging.Int("expected_enclaves", diag.ExpectedEnclaves))
	}
	if e.cfg.AreaWarningPct > 0 && diag.AreaDeltaPct > e.cfg.AreaWarningPct {
		log.Warn(ctx, "cleaning shed a large fraction of country area",
			logging.Float64("area_delta_pct", diag.AreaDeltaPct))
	}

	start = time.Now()
	mesh, skipped := TriangulateCountry(ctx, cleaned, e.cfg.SphereRadius, log)
	e.metrics.ObserveStage("triangulate", start)
	e.metrics.AddSkippedPolygons(skipped)
	if mesh == nil {
		log.Warn(ctx, "no polygon triangulated; country skipped")
		return nil, diag
	}

	log.Info(ctx, "country meshed",
		logging.Int("vertices", len(mesh.Vertices)),
		logging.Int("triangles", mesh.TriangleCount()),
		logging.Int("islands", diag.IslandCount))
	return mesh, diag
}
