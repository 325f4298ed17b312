// Package observability lets a binary plug metrics or tracing into flowform
// without the libraries depending on a backend.
//
// Libraries emit events through the registered hooks; the defaults do
// nothing. Register implementations once, before serving:
//
//	func main() {
//	    observability.SetPipelineHooks(&promPipelineHooks{})
//	    observability.SetHTTPHooks(&promHTTPHooks{})
//	    // ...
//	}
//
// and emit from library code:
//
//	observability.Pipeline().OnCompileStart(ctx, hash)
//	spec := ...
//	observability.Pipeline().OnCompileComplete(ctx, hash, stats, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// CompileStats summarizes a compiled form for hooks.
type CompileStats struct {
	Sections    int
	Questions   int
	Diagnostics int
}

// PipelineHooks receives compile and render events.
type PipelineHooks interface {
	OnCompileStart(ctx context.Context, sourceHash string)
	OnCompileComplete(ctx context.Context, sourceHash string, stats CompileStats, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// VisibilityHooks receives visibility engine runs.
type VisibilityHooks interface {
	// OnUpdate is called after each engine update.
	OnUpdate(ctx context.Context, questions, iterations int, converged bool)
}

// CacheHooks receives cache events. keyType is "spec" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives requests served by the HTTP API.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, route string)
	OnResponse(ctx context.Context, method, route string, status int, duration time.Duration)
}

// NoopPipelineHooks ignores all events.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnCompileStart(context.Context, string) {}
func (NoopPipelineHooks) OnCompileComplete(context.Context, string, CompileStats, time.Duration, error) {
}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopVisibilityHooks ignores all events.
type NoopVisibilityHooks struct{}

func (NoopVisibilityHooks) OnUpdate(context.Context, int, int, bool) {}

// NoopCacheHooks ignores all events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores all events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

var (
	hooksMu         sync.RWMutex
	pipelineHooks   PipelineHooks   = NoopPipelineHooks{}
	visibilityHooks VisibilityHooks = NoopVisibilityHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
)

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetVisibilityHooks registers visibility hooks. Nil is ignored.
func SetVisibilityHooks(h VisibilityHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		visibilityHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Visibility returns the registered visibility hooks.
func Visibility() VisibilityHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return visibilityHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores the no-op hooks. Tests use it to isolate registrations.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	visibilityHooks = NoopVisibilityHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
