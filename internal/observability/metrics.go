package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineCollector bundles Prometheus metrics for the mesh pipeline and
// provides a ready-to-serve /metrics handler.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	CountriesProcessed *prometheus.CounterVec
	PolygonsSkipped    prometheus.Counter
	TrianglesEmitted   prometheus.Counter
	HoleOutcomes       *prometheus.CounterVec
	StageDurations     *prometheus.HistogramVec
}

// NewPipelineCollector registers pipeline Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	countries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_countries_total",
		Help: "Countries handled by the pipeline, labeled by result (meshed, skipped, failed).",
	}, []string{"result"})
	countries, err := registerCounterVec(reg, countries, "pipeline_countries_total")
	if err != nil {
		return nil, err
	}

	polygons, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_polygons_skipped_total",
		Help: "Island polygons dropped after triangulation failed even without holes.",
	}), "pipeline_polygons_skipped_total")
	if err != nil {
		return nil, err
	}

	triangles, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_triangles_emitted_total",
		Help: "Total triangles written across all country meshes.",
	}), "pipeline_triangles_emitted_total")
	if err != nil {
		return nil, err
	}

	holes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_hole_outcomes_total",
		Help: "Interior rings evaluated by the hole policy, labeled by outcome.",
	}, []string{"outcome"})
	holes, err = registerCounterVec(reg, holes, "pipeline_hole_outcomes_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Per-country stage latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"stage"})
	durations, err = registerHistogramVec(reg, durations, "pipeline_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:           gatherer,
		CountriesProcessed: countries,
		PolygonsSkipped:    polygons,
		TrianglesEmitted:   triangles,
		HoleOutcomes:       holes,
		StageDurations:     durations,
	}, nil
}

// ObserveStage records one stage duration for a country. Safe on a nil
// collector so callers can run unmetered.
func (c *PipelineCollector) ObserveStage(stage string, start time.Time) {
	if c == nil || c.StageDurations == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// CountCountry records a country result (meshed, skipped, failed).
func (c *PipelineCollector) CountCountry(result string) {
	if c == nil || c.CountriesProcessed == nil {
		return
	}
	c.CountriesProcessed.WithLabelValues(result).Inc()
}

// CountHoleOutcome records hole policy decisions by outcome label.
func (c *PipelineCollector) CountHoleOutcome(outcome string, n int) {
	if c == nil || c.HoleOutcomes == nil || n <= 0 {
		return
	}
	c.HoleOutcomes.WithLabelValues(outcome).Add(float64(n))
}

// AddTriangles records triangles emitted into a country mesh.
func (c *PipelineCollector) AddTriangles(n int) {
	if c == nil || c.TrianglesEmitted == nil || n <= 0 {
		return
	}
	c.TrianglesEmitted.Add(float64(n))
}

// AddSkippedPolygons records island polygons dropped during triangulation.
func (c *PipelineCollector) AddSkippedPolygons(n int) {
	if c == nil || c.PolygonsSkipped == nil || n <= 0 {
		return
	}
	c.PolygonsSkipped.Add(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PipelineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
