package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowform/pkg/errors"
	"github.com/matzehuels/flowform/pkg/form"
	specio "github.com/matzehuels/flowform/pkg/io"
	"github.com/matzehuels/flowform/pkg/observability"
	"github.com/matzehuels/flowform/pkg/pipeline"
	"github.com/matzehuels/flowform/pkg/summary"
	"github.com/matzehuels/flowform/pkg/visibility"
)

// maxBodyBytes leaves room for JSON escaping around a maximal diagram.
const maxBodyBytes = 2 * errors.MaxSourceBytes

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatPNG:  "image/png",
}

type compileResponse struct {
	RunID      string     `json:"run_id"`
	SourceHash string     `json:"source_hash"`
	Cached     bool       `json:"cached"`
	Spec       *form.Spec `json:"spec"`
}

type visibilityRequest struct {
	// Spec is a compiled form. Source may be sent instead and is compiled.
	Spec   json.RawMessage `json:"spec,omitempty"`
	Source string          `json:"source,omitempty"`

	// Answers maps question ids to checked answer texts.
	Answers map[string][]string `json:"answers"`
	// Text maps free-text question ids to typed values.
	Text map[string]string `json:"text,omitempty"`
}

type visibilityResponse struct {
	Visible    []string             `json:"visible"`
	Hidden     []string             `json:"hidden"`
	Cleared    []string             `json:"cleared"`
	Selection  visibility.Selection `json:"selection"`
	Iterations int                  `json:"iterations"`
	Converged  bool                 `json:"converged"`
	Summary    summary.Summary      `json:"summary"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	opts, err := s.readOptions(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts.Formats = []string{pipeline.FormatJSON}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	loggerFrom(r.Context()).Info("compiled form",
		"run", res.RunID, "sections", res.Stats.Sections, "questions", res.Stats.Questions,
		"diagnostics", len(res.Diagnostics), "cached", res.CacheInfo.CompileHit)

	writeJSON(w, http.StatusOK, compileResponse{
		RunID:      res.RunID,
		SourceHash: res.SourceHash,
		Cached:     res.CacheInfo.CompileHit,
		Spec:       res.Spec,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.readOptions(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Formats = []string{format}
	opts.Detailed = opts.Detailed || r.URL.Query().Get("detailed") == "true"

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Run-Id", res.RunID)
	if res.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := loggerFrom(ctx)

	var req visibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	spec, err := s.requestSpec(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	st := visibility.FromSpec(spec)
	if err := applyAnswers(st, req); err != nil {
		writeError(w, r, err)
		return
	}

	engine := visibility.NewEngine(s.opts.MaxIterations, logger)
	res := engine.Update(st)
	observability.Visibility().OnUpdate(ctx, len(st.Questions()), res.Iterations, res.Converged)
	logger.Debug("visibility updated", "questions", len(st.Questions()),
		"iterations", res.Iterations, "converged", res.Converged, "cleared", len(res.Cleared))

	writeJSON(w, http.StatusOK, visibilityResponse{
		Visible:    orEmpty(st.VisibleQuestions()),
		Hidden:     orEmpty(st.HiddenQuestions()),
		Cleared:    orEmpty(res.Cleared),
		Selection:  res.Selection,
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Summary:    summary.Build(spec, st),
	})
}

// readOptions reads pipeline options from a request. A JSON body is decoded
// as pipeline.Options; any other body is the diagram text, with compiler
// options taken from the query string.
func (s *Server) readOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	if isJSON(r) {
		if err := decodeJSON(w, r, &opts); err != nil {
			return opts, err
		}
	} else {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			return opts, bodyError(err)
		}
		opts.Source = string(body)

		q := r.URL.Query()
		opts.Placeholder = q.Get("placeholder")
		if v := q.Get("max_chain_depth"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return opts, errors.New(errors.ErrCodeInvalidInput, "max_chain_depth must be a positive integer, got %q", v)
			}
			opts.MaxChainDepth = n
		}
		opts.Refresh = q.Get("refresh") == "true"
	}

	if opts.Placeholder == "" {
		opts.Placeholder = s.opts.Placeholder
	}
	if opts.MaxChainDepth == 0 {
		opts.MaxChainDepth = s.opts.MaxChainDepth
	}
	opts.Logger = loggerFrom(r.Context())
	return opts, nil
}

func (s *Server) requestSpec(ctx context.Context, req visibilityRequest) (*form.Spec, error) {
	switch {
	case len(req.Spec) > 0 && req.Source != "":
		return nil, errors.New(errors.ErrCodeInvalidInput, "send either spec or source, not both")
	case len(req.Spec) > 0:
		spec, err := specio.ReadSpec(bytes.NewReader(req.Spec))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid spec")
		}
		return spec, nil
	case req.Source != "":
		res, err := s.runner.Compile(ctx, pipeline.Options{
			Source:        req.Source,
			Placeholder:   s.opts.Placeholder,
			MaxChainDepth: s.opts.MaxChainDepth,
			Logger:        loggerFrom(ctx),
		})
		if err != nil {
			return nil, err
		}
		return res.Spec, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "spec or source is required")
	}
}

// applyAnswers enters the requested answers in form order.
func applyAnswers(st *visibility.State, req visibilityRequest) error {
	known := make(map[string]bool)
	for _, id := range st.Questions() {
		known[id] = true
	}
	for id := range req.Answers {
		if !known[id] {
			return errors.New(errors.ErrCodeQuestionNotFound, "unknown question %s", id)
		}
	}
	for id := range req.Text {
		if !known[id] {
			return errors.New(errors.ErrCodeQuestionNotFound, "unknown question %s", id)
		}
	}

	for _, id := range st.Questions() {
		for _, answer := range req.Answers[id] {
			if err := st.Select(id, answer); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidAnswer, err, "question %s", id)
			}
		}
		if text, ok := req.Text[id]; ok {
			if err := st.SetText(id, text); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidAnswer, err, "question %s", id)
			}
		}
	}
	return nil
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.New(errors.ErrCodeSourceTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

func loggerFrom(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
