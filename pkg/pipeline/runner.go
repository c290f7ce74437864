package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dialoguegraph/pkg/cache"
	"github.com/matzehuels/dialoguegraph/pkg/graph"
	"github.com/matzehuels/dialoguegraph/pkg/observability"
	"github.com/matzehuels/dialoguegraph/pkg/render"
	"github.com/matzehuels/dialoguegraph/pkg/render/nodelink"
)

// Runner executes exports with caching.
//
// The Runner holds no per-export state, so one Runner may serve
// concurrent exports.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// renderSVG lays DOT out. Tests replace it to avoid Graphviz.
	renderSVG func(ctx context.Context, dot string) ([]byte, error)
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
		Cache:     c,
		Keyer:     keyer,
		Logger:    logger,
		renderSVG: nodelink.RenderSVG,
	}
}

// Execute exports doc in every requested format.
func (r *Runner) Execute(ctx context.Context, doc graph.Document, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}

	loadStart := time.Now()
	g, err := graph.FromSerializable(doc)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	canonical := graph.ToSerializable(g)
	canonical.Layout = doc.Layout

	result := &Result{
		Graph:     g,
		DocHash:   DocumentHash(canonical, opts.Pinned),
		Artifacts: make(map[string][]byte, len(opts.Formats)),
	}
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Stats.LoadTime = time.Since(loadStart)

	dotOpts := nodelink.Options{Detailed: opts.Detailed}
	if opts.Pinned {
		dotOpts.Layout = doc.Layout
	}
	dot := nodelink.ToDOT(g, dotOpts)

	renderStart := time.Now()
	for _, format := range opts.Formats {
		observability.Export().OnExportStart(ctx, format, g.NodeCount())
		start := time.Now()
		data, hit, err := r.export(ctx, format, canonical, dot, result.DocHash, opts)
		observability.Export().OnExportComplete(ctx, format, time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", format, err)
		}
		result.Artifacts[format] = data
		if hit {
			result.CacheHits = append(result.CacheHits, format)
		}
	}
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Debug("exported dialogue",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"formats", opts.Formats,
		"cached", result.CacheHits,
		"duration", result.Stats.RenderTime)

	return result, nil
}

func (r *Runner) export(ctx context.Context, format string, doc graph.Document, dot, docHash string, opts Options) ([]byte, bool, error) {
	switch format {
	case render.FormatJSON:
		data, err := graph.Marshal(doc)
		return data, false, err
	case render.FormatDOT:
		return []byte(dot), false, nil
	case render.FormatSVG:
		return r.cached(ctx, r.Keyer.ExportKey(docHash, opts.keyOpts(format)), opts.Refresh, func() ([]byte, error) {
			return r.renderSVG(ctx, dot)
		})
	}
	return r.cached(ctx, r.Keyer.ExportKey(docHash, opts.keyOpts(format)), opts.Refresh, func() ([]byte, error) {
		svg, _, err := r.export(ctx, render.FormatSVG, doc, dot, docHash, opts)
		if err != nil {
			return nil, err
		}
		return render.Convert(svg, format, opts.Scale)
	})
}

// cached returns the value under key, computing and storing it on a miss.
// Cache failures only cost a recomputation.
func (r *Runner) cached(ctx context.Context, key string, refresh bool, compute func() ([]byte, error)) ([]byte, bool, error) {
	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "export")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "export")
	}

	data, err := compute()
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLExport); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "export", len(data))
	}
	return data, false, nil
}

// DocumentHash is the content hash used in export cache keys. The layout
// only counts when the export is pinned to it.
func DocumentHash(doc graph.Document, pinned bool) string {
	if !pinned {
		doc.Layout = nil
	}
	data, err := graph.Marshal(doc)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
