// Package server exposes the compiler and the visibility engine over HTTP.
//
// Routes:
//
//	GET  /healthz      liveness probe
//	GET  /version      build information
//	GET  /metrics      Prometheus metrics, when Options.Metrics is set
//	POST /compile      diagram text → compiled form
//	POST /render       diagram text → one artifact (?format=svg)
//	POST /visibility   form + answers → visibility and summary
//
// Every request gets a request id (X-Request-Id), a per-request logger and
// panic recovery. Handlers build fresh visibility state per request, so one
// Server is safe for concurrent use.
package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowform/pkg/buildinfo"
	"github.com/matzehuels/flowform/pkg/observability"
	"github.com/matzehuels/flowform/pkg/pipeline"
)

// Options configures the handlers.
type Options struct {
	// Placeholder and MaxChainDepth are compiler defaults for requests that
	// do not set them.
	Placeholder   string
	MaxChainDepth int

	// MaxIterations bounds each visibility update.
	MaxIterations int

	// Metrics, when set, is served at GET /metrics.
	Metrics http.Handler
}

// Server routes HTTP requests to the pipeline and the visibility engine.
type Server struct {
	router chi.Router
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
}

// New builds a server around runner. A nil logger uses log.Default().
func New(runner *pipeline.Runner, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		router: chi.NewRouter(),
		runner: runner,
		opts:   opts,
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, buildinfo.Get())
	})
	if s.opts.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	s.router.Post("/compile", s.handleCompile)
	s.router.Post("/render", s.handleRender)
	s.router.Post("/visibility", s.handleVisibility)
}

// logRequests logs each request at debug level and reports it to the HTTP
// hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		reqID := middleware.GetReqID(ctx)
		w.Header().Set("X-Request-Id", reqID)
		hooks := observability.HTTP()
		hooks.OnRequest(ctx, r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(withLogger(ctx, s.logger.With("req", reqID))))

		route := "unmatched"
		if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(ctx, r.Method, route, status, time.Since(start))
		s.logger.Debug("request", "req", reqID, "method", r.Method, "route", route,
			"status", status, "dur", time.Since(start), "remote", r.RemoteAddr)
	})
}
