package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowform/pkg/cache"
	"github.com/matzehuels/flowform/pkg/compiler"
	"github.com/matzehuels/flowform/pkg/errors"
	"github.com/matzehuels/flowform/pkg/form"
	specio "github.com/matzehuels/flowform/pkg/io"
	"github.com/matzehuels/flowform/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
//
// A Runner holds no per-run state, so one Runner may serve many goroutines
// as long as its Cache is safe for concurrent use.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides cache.SpecTTL and cache.ArtifactTTL when positive.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses cache.DefaultKeyer and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs compile and render with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := newResult(cache.HashString(opts.Source))
	logger := r.Logger.With("run", result.RunID[:8])

	compileStart := time.Now()
	res, compileHit, err := r.CompileWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	compileTime := time.Since(compileStart)

	result.Spec = res.Spec
	result.Diagnostics = res.Spec.Diagnostics
	result.Stats = specStats(res.Spec)
	result.Stats.CompileTime = compileTime
	result.CacheInfo.CompileHit = compileHit

	logger.Info("compiled form",
		"sections", result.Stats.Sections,
		"questions", result.Stats.Questions,
		"diagnostics", len(result.Diagnostics),
		"cached", compileHit,
		"duration", compileTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, res, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// CompileWithCacheInfo compiles opts.Source and reports whether the spec came
// from the cache. A cached result carries the spec but no graph.
func (r *Runner) CompileWithCacheInfo(ctx context.Context, opts Options) (*compiler.Result, bool, error) {
	r.applyLogger(&opts)
	if err := errors.ValidateSource([]byte(opts.Source)); err != nil {
		return nil, false, err
	}
	opts.SetCompileDefaults()

	sourceHash := cache.HashString(opts.Source)
	key := r.Keyer.SpecKey(sourceHash, opts.SpecKeyOpts())
	hooks := observability.Pipeline()

	if !opts.Refresh {
		if spec, ok := r.cachedSpec(ctx, key); ok {
			res := &compiler.Result{Spec: spec}
			res.FrontMatter.Title = spec.Title
			return res, true, nil
		}
	}

	hooks.OnCompileStart(ctx, sourceHash)
	start := time.Now()
	res, err := Compile(opts)
	stats := observability.CompileStats{}
	if res != nil {
		stats = observability.CompileStats{
			Sections:    len(res.Spec.Sections),
			Questions:   res.Spec.QuestionCount(),
			Diagnostics: len(res.Spec.Diagnostics),
		}
	}
	hooks.OnCompileComplete(ctx, sourceHash, stats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	if err := specio.WriteSpec(res.Spec, &buf); err == nil {
		r.store(ctx, "spec", key, buf.Bytes(), r.ttl(cache.SpecTTL))
	}
	return res, false, nil
}

// Compile is CompileWithCacheInfo without the cache hit flag.
func (r *Runner) Compile(ctx context.Context, opts Options) (*compiler.Result, error) {
	res, _, err := r.CompileWithCacheInfo(ctx, opts)
	return res, err
}

// RenderWithCacheInfo renders res in every requested format and reports
// whether all of them came from the cache. When a graph format misses and
// res has no graph, the source is compiled again.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res *compiler.Result, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	opts.SetCompileDefaults()

	sourceHash := cache.HashString(opts.Source)
	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(sourceHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, ok := r.load(ctx, "artifact", key); ok {
				artifacts[format] = data
				continue
			}
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	if res.Graph == nil && needsGraph(missing) {
		fresh, err := Compile(opts)
		if err != nil {
			return nil, false, err
		}
		res = fresh
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, missing)
	start := time.Now()
	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, res, renderOpts)
	hooks.OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(sourceHash, opts.ArtifactKeyOpts(format))
		r.store(ctx, "artifact", key, data, r.ttl(cache.ArtifactTTL))
		artifacts[format] = data
	}
	return artifacts, false, nil
}

// Render is RenderWithCacheInfo without the cache hit flag.
func (r *Runner) Render(ctx context.Context, res *compiler.Result, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, res, opts)
	return artifacts, err
}

// Close releases resources held by the runner's cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) cachedSpec(ctx context.Context, key string) (*form.Spec, bool) {
	data, ok := r.load(ctx, "spec", key)
	if !ok {
		return nil, false
	}
	spec, err := specio.ReadSpec(bytes.NewReader(data))
	if err != nil {
		r.Logger.Debug("discarding unreadable cache entry", "key", key, "err", err)
		return nil, false
	}
	return spec, true
}

// load reads key from the cache. Cache errors count as misses.
func (r *Runner) load(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
