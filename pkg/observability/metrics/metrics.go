// Package metrics implements the observability hooks with Prometheus
// collectors.
//
//	m := metrics.New()
//	m.Install()
//	mux.Handle("/metrics", m.Handler())
//
// Each Metrics owns its registry, so tests and multiple servers in one
// process do not collide on collector names.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/flowform/pkg/observability"
)

const namespace = "flowform"

var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// Metrics records pipeline, visibility, cache and HTTP events.
type Metrics struct {
	registry *prometheus.Registry

	compiles        *prometheus.CounterVec
	compileDuration prometheus.Histogram
	questions       prometheus.Histogram
	diagnostics     prometheus.Counter
	renders         *prometheus.CounterVec
	renderDuration  prometheus.Histogram

	updates    *prometheus.CounterVec
	iterations prometheus.Histogram

	cacheEvents *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		compiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "compiles_total",
			Help: "Diagram compilations by result.",
		}, []string{"result"}),
		compileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "compile_duration_seconds",
			Help: "Time to compile a diagram.", Buckets: durationBuckets,
		}),
		questions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "compiled_questions",
			Help: "Questions per compiled form.", Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		diagnostics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "diagnostics_total",
			Help: "Diagnostics reported while compiling.",
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "renders_total",
			Help: "Render runs by result.",
		}, []string{"result"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "render_duration_seconds",
			Help: "Time to render all requested formats.", Buckets: durationBuckets,
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "visibility_updates_total",
			Help: "Visibility engine updates by whether they converged.",
		}, []string{"converged"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "visibility_iterations",
			Help: "Fixed-point iterations per update.", Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_events_total",
			Help: "Cache lookups and stores by key type.",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_stored_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help: "HTTP request latency by route.", Buckets: durationBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.compiles, m.compileDuration, m.questions, m.diagnostics,
		m.renders, m.renderDuration,
		m.updates, m.iterations,
		m.cacheEvents, m.cacheBytes,
		m.requests, m.requestDuration,
	)
	return m
}

// Install registers m as every observability hook.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetVisibilityHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) OnCompileStart(context.Context, string) {}

func (m *Metrics) OnCompileComplete(_ context.Context, _ string, stats observability.CompileStats, d time.Duration, err error) {
	m.compiles.WithLabelValues(result(err)).Inc()
	m.compileDuration.Observe(d.Seconds())
	if err == nil {
		m.questions.Observe(float64(stats.Questions))
		m.diagnostics.Add(float64(stats.Diagnostics))
	}
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	m.renders.WithLabelValues(result(err)).Inc()
	m.renderDuration.Observe(d.Seconds())
}

func (m *Metrics) OnUpdate(_ context.Context, _, iterations int, converged bool) {
	m.updates.WithLabelValues(strconv.FormatBool(converged)).Inc()
	m.iterations.Observe(float64(iterations))
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnRequest is a no-op; requests are counted once the status is known.
func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
