package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/d3fig/pkg/cache"
	"github.com/matzehuels/d3fig/pkg/dataset"
	"github.com/matzehuels/d3fig/pkg/observability"
	"github.com/matzehuels/d3fig/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
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
		logger = log.New(io.Discard)
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.ArtifactTTL,
	}
}

// cachedResult is the cached form of a run.
type cachedResult struct {
	Documents []*scene.Document   `json:"documents"`
	Figures   []map[string][]byte `json:"figures"`
	Calls     int                 `json:"calls"`
	Registry  dataset.Stats       `json:"registry"`
}

// Execute runs the complete parse → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, traceData []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{TraceHash: cache.Hash(traceData)}
	result.CacheInfo.Key = r.Keyer.ArtifactKey(result.TraceHash, opts.ArtifactKeyOpts())

	if !opts.Refresh {
		if cached, ok := r.lookup(ctx, result.CacheInfo.Key); ok {
			result.fill(cached)
			result.CacheInfo.Hit = true
			opts.Logger.Debug("artifact cache hit", "key", result.CacheInfo.Key)
			return result, nil
		}
	}

	// Stage 1: Parse
	parseStart := time.Now()
	t, err := Parse(ctx, traceData)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.Calls = len(t.Calls)

	opts.Logger.Debug("parsed trace",
		"calls", len(t.Calls),
		"duration", result.Stats.ParseTime)

	// Stage 2: Build
	buildStart := time.Now()
	docs, regStats, err := Build(ctx, t, result.TraceHash, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	docs, err = selectFigures(docs, opts.Figure)
	if err != nil {
		return nil, err
	}
	result.Documents = docs
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Registry = regStats
	result.countDocuments()

	opts.Logger.Info("built figures",
		"figures", result.Stats.Figures,
		"datasets", result.Stats.Datasets,
		"duration", result.Stats.BuildTime)

	// Stage 3: Render
	renderStart := time.Now()
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	result.Figures = make([]map[string][]byte, 0, len(docs))
	for i, doc := range docs {
		artifacts, err := Render(ctx, doc, i, opts)
		if err != nil {
			hooks.OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
			return nil, fmt.Errorf("figure %s: %w", doc.ID, err)
		}
		result.Figures = append(result.Figures, artifacts)
	}
	result.Stats.RenderTime = time.Since(renderStart)
	hooks.OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, nil)

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	r.store(ctx, result.CacheInfo.Key, result)
	return result, nil
}

func (r *Runner) lookup(ctx context.Context, key string) (*cachedResult, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
		return nil, false
	}
	var cached cachedResult
	if err := json.Unmarshal(data, &cached); err != nil {
		// Stale or corrupt entry; fall through to recompute.
		observability.Cache().OnCacheMiss(ctx, "artifact")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "artifact")
	return &cached, true
}

func (r *Runner) store(ctx context.Context, key string, res *Result) {
	data, err := json.Marshal(cachedResult{
		Documents: res.Documents,
		Figures:   res.Figures,
		Calls:     res.Stats.Calls,
		Registry:  res.Stats.Registry,
	})
	if err != nil {
		r.Logger.Warn("cache encode failed", "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "artifact", len(data))
}

func (res *Result) fill(c *cachedResult) {
	res.Documents = c.Documents
	res.Figures = c.Figures
	res.Stats.Calls = c.Calls
	res.Stats.Registry = c.Registry
	res.countDocuments()
}

func (res *Result) countDocuments() {
	res.Stats.Figures = len(res.Documents)
	res.Stats.Datasets = 0
	for _, d := range res.Documents {
		res.Stats.Datasets += len(d.Data)
	}
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
