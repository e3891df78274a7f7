package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/chunkmaze/pkg/cache"
	"github.com/matzehuels/chunkmaze/pkg/catalog"
	mio "github.com/matzehuels/chunkmaze/pkg/io"
	"github.com/matzehuels/chunkmaze/pkg/observability"
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

// Execute runs the complete catalog → generate → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		ID:        uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Catalog
	lib, libHash, err := r.LoadCatalog(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	// Stage 2: Generate
	genStart := time.Now()
	layout, layoutHit, err := r.GenerateWithCacheInfo(ctx, lib, libHash, opts)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	layout.ID = result.ID
	result.Layout = layout
	result.Stats.GenerateTime = time.Since(genStart)
	result.Stats.Chunks = len(layout.Chunks)
	result.Stats.DeadEnds = len(layout.DeadEnds)
	result.Stats.Anomalies = len(layout.Anomalies)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("generated layout",
		"seed", opts.Seed,
		"chunks", result.Stats.Chunks,
		"budget", layout.Budget,
		"cached", layoutHit,
		"duration", result.Stats.GenerateTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, hash, renderHit, err := r.RenderWithCacheInfo(ctx, layout, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.LayoutHash = hash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Batch runs n pipelines with seeds opts.Seed, opts.Seed+1, … concurrently,
// at most limit at a time. Results are returned in seed order. The first
// failure cancels the remaining runs.
func (r *Runner) Batch(ctx context.Context, opts Options, n, limit int) ([]*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	results := make([]*Result, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range n {
		run := opts
		run.Seed = opts.Seed + uint64(i)
		g.Go(func() error {
			res, err := r.Execute(ctx, run)
			if err != nil {
				return fmt.Errorf("seed %d: %w", run.Seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// LoadCatalog loads the template library named by opts.Catalog, or the
// built-in library, and returns it with its content hash.
func (r *Runner) LoadCatalog(ctx context.Context, opts Options) (*catalog.Library, string, error) {
	start := time.Now()
	source := opts.Catalog
	var lib *catalog.Library
	var err error
	if source == "" {
		source = "builtin"
		lib = catalog.Default()
	} else {
		lib, err = catalog.Load(opts.Catalog)
	}
	observability.Pipeline().OnCatalogLoad(ctx, source, libLen(lib), time.Since(start), err)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := catalog.Encode(&buf, lib, catalog.FormatJSON); err != nil {
		return nil, "", fmt.Errorf("hash catalog: %w", err)
	}
	r.Logger.Debug("loaded catalog", "source", source, "templates", lib.Len())
	return lib, cache.Hash(buf.Bytes()), nil
}

func libLen(lib *catalog.Library) int {
	if lib == nil {
		return 0
	}
	return lib.Len()
}

// GenerateWithCacheInfo generates a layout with caching and returns cache hit info.
func (r *Runner) GenerateWithCacheInfo(ctx context.Context, lib *catalog.Library, libHash string, opts Options) (*mio.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForGenerate(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.LayoutKey(libHash, opts.LayoutKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if l, err := mio.UnmarshalLayout(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return l, true, nil
			}
			// If deserialization fails, fall through to regenerate
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	layout, err := r.Generate(ctx, lib, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := mio.MarshalLayout(layout); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err != nil {
			r.Logger.Warn("cache layout", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return layout, false, nil
}

// Generate runs a first pass plus opts.Rounds regenerations without caching.
func (r *Runner) Generate(ctx context.Context, lib *catalog.Library, opts Options) (*mio.Layout, error) {
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnGenerateStart(ctx, opts.Seed, opts.Budget)

	s, err := NewSession(lib, opts, opts.Logger)
	if err != nil {
		hooks.OnGenerateComplete(ctx, 0, time.Since(start), err)
		return nil, err
	}
	layout, err := s.Generate(ctx)
	for i := 0; err == nil && i < opts.Rounds; i++ {
		layout, err = s.Regenerate(ctx)
	}
	hooks.OnGenerateComplete(ctx, len(layout.Chunks), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return layout, nil
}

// RenderWithCacheInfo renders the requested formats with caching. It
// returns the artifacts, the layout hash the artifacts are keyed by, and
// whether every artifact came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *mio.Layout, opts Options) (map[string][]byte, string, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, "", false, err
	}

	// The run ID is not part of the content.
	keyed := *l
	keyed.ID = ""
	data, err := mio.MarshalLayout(&keyed)
	if err != nil {
		return nil, "", false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(data)

	artifacts := make(map[string][]byte)
	allCached := true
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			artifacts[format] = data
			continue
		}
		allCached = false
		break
	}
	if allCached {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return withID(artifacts, l), layoutHash, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	rendered, err := Render(ctx, &keyed, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, "", false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return withID(rendered, l), layoutHash, false, nil
}

// withID re-renders the JSON artifact when the layout carries a run ID, so
// cached JSON never leaks the ID of the run that produced it.
func withID(artifacts map[string][]byte, l *mio.Layout) map[string][]byte {
	if _, ok := artifacts[FormatJSON]; !ok || l.ID == "" {
		return artifacts
	}
	var buf bytes.Buffer
	if err := mio.WriteJSON(l, &buf); err == nil {
		artifacts[FormatJSON] = buf.Bytes()
	}
	return artifacts
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
