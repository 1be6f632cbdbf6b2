// Package observability provides hooks for metrics and tracing.
//
// Hooks let a binary attach instrumentation to merge runs, cache lookups
// and the HTTP server without the library packages importing any metrics
// backend. Every category has a no-op default.
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetMergeHooks(&myMergeHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Merge().OnMergeStart(ctx, platform, targets)
//	// ... merge ...
//	observability.Merge().OnMergeComplete(ctx, platform, libraries, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// MergeHooks receives events from merge runs, one pair per platform.
type MergeHooks interface {
	OnMergeStart(ctx context.Context, platform string, targets int)
	OnMergeComplete(ctx context.Context, platform string, libraries int, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the status written for a request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// NoopMergeHooks is a no-op implementation of MergeHooks.
type NoopMergeHooks struct{}

func (NoopMergeHooks) OnMergeStart(context.Context, string, int) {}
func (NoopMergeHooks) OnMergeComplete(context.Context, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                         {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

var (
	mergeHooks MergeHooks = NoopMergeHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetMergeHooks registers custom merge hooks. Nil is ignored.
func SetMergeHooks(h MergeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		mergeHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Merge returns the registered merge hooks.
func Merge() MergeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return mergeHooks
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

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	mergeHooks = NoopMergeHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
