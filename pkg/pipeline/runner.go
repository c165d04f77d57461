package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenebox/pkg/cache"
	pkgio "github.com/matzehuels/scenebox/pkg/io"
	"github.com/matzehuels/scenebox/pkg/observability"
	"github.com/matzehuels/scenebox/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-kind cache lifetimes when positive.
	TTL time.Duration
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

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	// Stage 1: Load
	result, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	layout, layoutHit, err := r.LayoutWithCacheInfo(ctx, result.Scene, result.SceneHash, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = layout
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Width, result.Stats.Height = layout.Width, layout.Height
	result.Stats.Pruned = len(layout.Pruned)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("solved layout",
		"size", fmt.Sprintf("%dx%d", layout.Width, layout.Height),
		"pruned", len(layout.Pruned),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	if err := CheckCanvas(layout, opts.Formats, opts.Scale); err != nil {
		return nil, err
	}
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Scene, layout, result.SceneHash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load decodes and builds the scene. The returned result has Document,
// Scene, SceneHash and the load statistics set.
func (r *Runner) Load(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	source := opts.source()
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)

	start := time.Now()
	doc, s, err := Load(opts)
	elapsed := time.Since(start)
	if err != nil {
		hooks.OnLoadComplete(ctx, source, 0, elapsed, err)
		return nil, err
	}
	hooks.OnLoadComplete(ctx, source, len(doc.Nodes), elapsed, nil)

	r.Logger.Info("loaded scene",
		"source", source,
		"nodes", len(doc.Nodes),
		"duration", elapsed)

	return &Result{
		Document:  doc,
		Scene:     s,
		SceneHash: SceneHash(doc, opts),
		Artifacts: make(map[string][]byte),
		Stats:     Stats{NodeCount: len(doc.Nodes), LoadTime: elapsed},
	}, nil
}

// LayoutWithCacheInfo solves the scene layout with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, s *scene.Scene, sceneHash string, opts Options) (*pkgio.Layout, bool, error) {
	cacheKey := r.Keyer.LayoutKey(sceneHash, opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		var cached pkgio.Layout
		err := cache.GetJSON(ctx, r.Cache, cacheKey, &cached)
		switch {
		case err == nil:
			observability.Cache().OnCacheHit(ctx, "layout")
			return &cached, true, nil
		case errors.Is(err, cache.ErrCacheMiss):
			observability.Cache().OnCacheMiss(ctx, "layout")
		default:
			r.Logger.Warn("cache read failed", "key", cacheKey, "err", err)
		}
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(s.IDs()))
	start := time.Now()
	layout, err := Solve(s)
	if err != nil {
		hooks.OnLayoutComplete(ctx, 0, 0, 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnLayoutComplete(ctx, layout.Width, layout.Height, len(layout.Pruned), time.Since(start), nil)

	r.store(ctx, "layout", cacheKey, layout, r.ttl(cache.TTLLayout))
	return layout, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// Only the formats missing from the cache are rendered.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *scene.Scene, layout *pkgio.Layout, sceneHash string, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = data
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil // All artifacts from cache
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, missing)
	start := time.Now()
	rendered, err := RenderFormats(s, layout, missing, opts)
	hooks.OnRenderComplete(ctx, missing, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		key := r.Keyer.ArtifactKey(sceneHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return artifacts, false, nil
}

func (r *Runner) store(ctx context.Context, keyType, key string, v any, ttl time.Duration) {
	if err := cache.SetJSON(ctx, r.Cache, key, v, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, 0)
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
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
