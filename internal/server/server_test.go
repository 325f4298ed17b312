package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowform/pkg/buildinfo"
	"github.com/matzehuels/flowform/pkg/cache"
	"github.com/matzehuels/flowform/pkg/observability"
	"github.com/matzehuels/flowform/pkg/observability/metrics"
	"github.com/matzehuels/flowform/pkg/pipeline"
)

const diagram = `---
title: Planning
---
flowchart TD
A[**1 Intro**]
B{Has deadline?}
A --> B
B -->|Yes| C[Use calendar]
B -->|No| D{Recurring?}
D -->|Weekly| C
D --> E[Ask a colleague]`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	c, err := cache.NewMemoryCache(64)
	require.NoError(t, err)
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(c, nil, logger)
	t.Cleanup(func() { runner.Close() })
	return New(runner, Options{Placeholder: "(select)", MaxChainDepth: 32, MaxIterations: 10}, logger)
}

func do(t *testing.T, s *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestVersion(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/version", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[buildinfo.Info](t, rec)
	assert.Equal(t, buildinfo.Version, info.Version)
}

func TestCompile(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/compile", "text/plain", diagram)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[compileResponse](t, rec)
	assert.NotEmpty(t, first.RunID)
	assert.False(t, first.Cached)
	require.NotNil(t, first.Spec)
	assert.Equal(t, "Planning", first.Spec.Title)
	require.Len(t, first.Spec.Sections, 1)
	assert.Equal(t, []string{"B", "D"}, first.Spec.QuestionIDs())

	rec = do(t, s, http.MethodPost, "/compile", "text/plain", diagram)
	second := decode[compileResponse](t, rec)
	assert.True(t, second.Cached)
	assert.Equal(t, first.SourceHash, second.SourceHash)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestCompilePlaceholder(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/compile?placeholder=(pick)", "text/plain", diagram)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[compileResponse](t, rec)
	q, _, ok := resp.Spec.Question("D")
	require.True(t, ok)
	_, found := q.Answer("(pick)")
	assert.True(t, found, "unlabeled answer should use the placeholder: %+v", q.Answers)

	body, err := json.Marshal(pipeline.Options{Source: diagram, Placeholder: "(json)"})
	require.NoError(t, err)
	rec = do(t, s, http.MethodPost, "/compile", "application/json", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[compileResponse](t, rec)
	q, _, _ = resp.Spec.Question("D")
	_, found = q.Answer("(json)")
	assert.True(t, found)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		status      int
		code        string
	}{
		{"empty body", "/compile", "text/plain", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"no sections", "/compile", "text/plain", "B{Lonely?}", http.StatusUnprocessableEntity, "EMPTY_DIAGRAM"},
		{"bad depth", "/compile?max_chain_depth=-1", "text/plain", diagram, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown json field", "/compile", "application/json", `{"source": "x", "nodes": 1}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"too large", "/compile", "text/plain", strings.Repeat("x", maxBodyBytes+1), http.StatusRequestEntityTooLarge, "SOURCE_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := do(t, s, http.MethodPost, tt.target, tt.contentType, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[errorResponse](t, rec)
			assert.Equal(t, tt.code, string(resp.Code))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestRender(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/render?format=dot", "text/plain", diagram)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/vnd.graphviz")
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "digraph flow {"))
	assert.Contains(t, rec.Body.String(), `label="Planning"`)

	rec = do(t, s, http.MethodPost, "/render?format=DOT", "text/plain", diagram)
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))

	rec = do(t, s, http.MethodPost, "/render?format=dot&detailed=true", "text/plain", diagram)
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), `label="B: Has deadline?"`)
}

func TestRenderUnknownFormat(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/render?format=gif", "text/plain", diagram)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_FORMAT", string(decode[errorResponse](t, rec).Code))
}

func visibilityBody(t *testing.T, answers map[string][]string) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"source": diagram, "answers": answers})
	require.NoError(t, err)
	return string(data)
}

func TestVisibility(t *testing.T) {
	tests := []struct {
		name     string
		answers  map[string][]string
		visible  []string
		hidden   []string
		cleared  []string
		selected map[string][]string
	}{
		{
			name:     "nothing answered hides dependents",
			answers:  nil,
			visible:  []string{"B"},
			hidden:   []string{"D"},
			cleared:  []string{},
			selected: map[string][]string{},
		},
		{
			name:     "matching answer shows dependent",
			answers:  map[string][]string{"B": {"No"}, "D": {"Weekly"}},
			visible:  []string{"B", "D"},
			hidden:   []string{},
			cleared:  []string{},
			selected: map[string][]string{"B": {"No"}, "D": {"Weekly"}},
		},
		{
			name:     "answer on hidden question is cleared",
			answers:  map[string][]string{"B": {"Yes"}, "D": {"Weekly"}},
			visible:  []string{"B"},
			hidden:   []string{"D"},
			cleared:  []string{"D"},
			selected: map[string][]string{"B": {"Yes"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := do(t, s, http.MethodPost, "/visibility", "application/json", visibilityBody(t, tt.answers))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			resp := decode[visibilityResponse](t, rec)
			assert.Equal(t, tt.visible, resp.Visible)
			assert.Equal(t, tt.hidden, resp.Hidden)
			assert.Equal(t, tt.cleared, resp.Cleared)
			assert.Equal(t, tt.selected, map[string][]string(resp.Selection))
			assert.True(t, resp.Converged)
		})
	}
}

func TestVisibilitySummary(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/visibility", "application/json",
		visibilityBody(t, map[string][]string{"B": {"No"}, "D": {"Weekly"}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[visibilityResponse](t, rec)
	require.Len(t, resp.Summary.Sections, 1)
	sec := resp.Summary.Sections[0]
	require.Len(t, sec.Entries, 2)
	assert.Equal(t, "Recurring?", sec.Entries[1].Question)
	assert.Equal(t, []string{"Use calendar"}, sec.Recommendations)
}

func TestVisibilityWithSpec(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/compile", "text/plain", diagram)
	require.Equal(t, http.StatusOK, rec.Code)
	var compiled struct {
		Spec json.RawMessage `json:"spec"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &compiled))

	body, err := json.Marshal(map[string]any{
		"spec":    compiled.Spec,
		"answers": map[string][]string{"B": {"No"}},
	})
	require.NoError(t, err)
	rec = do(t, s, http.MethodPost, "/visibility", "application/json", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"B", "D"}, decode[visibilityResponse](t, rec).Visible)
}

func TestVisibilityErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"no form", `{"answers": {}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"both forms", `{"spec": {"sections": []}, "source": "A[**x**]"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad spec", `{"spec": {"title": "x"}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"malformed", `{"answers": `, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown question", visibilityBody(t, map[string][]string{"Z": {"Yes"}}), http.StatusUnprocessableEntity, "QUESTION_NOT_FOUND"},
		{"unknown answer", visibilityBody(t, map[string][]string{"B": {"Maybe"}}), http.StatusUnprocessableEntity, "INVALID_ANSWER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := do(t, s, http.MethodPost, "/visibility", "application/json", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, string(decode[errorResponse](t, rec).Code))
		})
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	routes []string
	status []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
	h.status = append(h.status, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s := newTestServer(t)
	do(t, s, http.MethodGet, "/healthz", "", "")
	do(t, s, http.MethodPost, "/compile", "text/plain", "")

	assert.Equal(t, []string{"GET /healthz", "POST /compile"}, hooks.routes)
	assert.Equal(t, []int{http.StatusOK, http.StatusBadRequest}, hooks.status)
}

func TestUnmatchedRouteLabel(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/no/such/path", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{"GET unmatched"}, hooks.routes)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Cleanup(observability.Reset)
	m := metrics.New()
	m.Install()

	c, err := cache.NewMemoryCache(8)
	require.NoError(t, err)
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(c, nil, logger)
	t.Cleanup(func() { runner.Close() })
	s := New(runner, Options{Placeholder: "(select)", MaxChainDepth: 32, MaxIterations: 10, Metrics: m.Handler()}, logger)

	rec := do(t, s, http.MethodPost, "/compile", "text/plain", diagram)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `flowform_http_requests_total{method="POST",route="/compile",status="200"} 1`)
	assert.Contains(t, body, `flowform_compiles_total{result="ok"} 1`)
	assert.Contains(t, body, `flowform_cache_events_total{event="miss",key_type="spec"} 1`)
}

func TestNoMetricsRoute(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
