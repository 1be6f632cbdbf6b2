package pipeline

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/nativemerge/pkg/cache"
	"github.com/matzehuels/nativemerge/pkg/config"
	mio "github.com/matzehuels/nativemerge/pkg/io"
	"github.com/matzehuels/nativemerge/pkg/observability"
)

// cacheKeyType labels cache events for observability hooks.
const cacheKeyType = "result"

// Runner encapsulates merge execution with caching.
// Both CLI and server use it so caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Concurrency bounds how many platforms merge at once. Zero means no
	// limit.
	Concurrency int
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
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

// Execute merges every selected platform. Any failing platform fails the
// whole run; no partial result is returned.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	start := time.Now()
	configHash := cache.Hash(opts.Config.Canonical())
	reports := make([]*mio.PlatformReport, len(opts.Platforms))
	var (
		mu   sync.Mutex
		hits []string
	)

	g, gctx := errgroup.WithContext(ctx)
	if r.Concurrency > 0 {
		g.SetLimit(r.Concurrency)
	}
	for i, platform := range opts.Platforms {
		g.Go(func() error {
			rep, hit, err := r.mergeWithCache(gctx, opts, configHash, platform)
			if err != nil {
				return err
			}
			reports[i] = rep
			if hit {
				mu.Lock()
				hits = append(hits, platform)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.Sort(hits)
	result := &Result{
		Reports:   reports,
		CacheInfo: CacheInfo{Hits: hits},
	}
	for _, rep := range reports {
		targets, libraries, merged := rep.Summary()
		result.Stats.Targets += targets
		result.Stats.Libraries += libraries
		result.Stats.Merged += merged
	}
	result.Stats.Platforms = len(reports)
	result.Stats.Duration = time.Since(start)

	opts.Logger.Debug("run complete",
		"platforms", result.Stats.Platforms,
		"cache_hits", len(hits),
		"duration", result.Stats.Duration)
	return result, nil
}

// mergeWithCache returns the cached report of platform or computes and
// stores it. Cache failures are logged and never fail the merge.
func (r *Runner) mergeWithCache(ctx context.Context, opts Options, configHash, platform string) (*mio.PlatformReport, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	pg, err := opts.Document.Platform(platform)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.ResultKey(platform, configHash, cache.Hash(pg.Canonical()))

	if !opts.Refresh {
		if rep, ok := r.lookup(ctx, key, opts.Logger); ok {
			opts.Logger.Debug("report served from cache", "platform", platform, "fingerprint", rep.Fingerprint)
			return rep, true, nil
		}
	}

	rep, err := r.merge(ctx, opts.Config, platform, pg, opts.Logger)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(rep); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLResult); err != nil {
			opts.Logger.Warn("cache write failed", "platform", platform, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
		}
	}
	return rep, false, nil
}

func (r *Runner) lookup(ctx context.Context, key string, logger *log.Logger) (*mio.PlatformReport, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	var rep mio.PlatformReport
	if err := json.Unmarshal(data, &rep); err != nil {
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, cacheKeyType)
	return &rep, true
}

func (r *Runner) merge(ctx context.Context, cfg *config.Config, platform string, pg *mio.PlatformGraph, logger *log.Logger) (*mio.PlatformReport, error) {
	hooks := observability.Merge()
	hooks.OnMergeStart(ctx, platform, len(pg.Nodes))
	start := time.Now()

	rep, err := MergePlatform(cfg, platform, pg, logger)

	libraries := 0
	if rep != nil {
		libraries = len(rep.Libraries)
	}
	hooks.OnMergeComplete(ctx, platform, libraries, time.Since(start), err)
	return rep, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
