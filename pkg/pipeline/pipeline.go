// Package pipeline exports saved dialogues as diagrams.
//
// The CLI `export` command and the HTTP API both go through a [Runner], so
// both share one cache and produce identical output for the same dialogue.
//
// # Stages
//
//  1. Load: rebuild the dialogue graph from its [graph.Document]. This
//     validates the document the same way the editor does.
//  2. Describe: generate Graphviz DOT for the graph.
//  3. Render: lay the DOT out to SVG, then convert to PDF or PNG if asked.
//
// Rendered SVG, PDF and PNG are cached under a key derived from the
// canonical document and the options that change output. DOT and JSON are
// cheap and never cached.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, doc, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dialoguegraph/pkg/cache"
	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	"github.com/matzehuels/dialoguegraph/pkg/render"
)

// DefaultFormat is exported when Options.Formats is empty.
const DefaultFormat = render.FormatSVG

// Options configures an export.
type Options struct {
	// Formats to produce; see render.Formats.
	Formats []string

	// Detailed prefixes diagram labels with node IDs and types.
	Detailed bool

	// Pinned places nodes at their editor positions instead of letting
	// Graphviz lay the dialogue out.
	Pinned bool

	// Scale is the PNG zoom factor. Zero means 1.
	Scale float64

	// Refresh bypasses cached renders; fresh results are still stored.
	Refresh bool

	Logger *log.Logger
}

// ValidateAndSetDefaults checks formats and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	return nil
}

// ValidateFormats checks that every format is known.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := render.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func (o Options) keyOpts(format string) cache.ExportKeyOpts {
	k := cache.ExportKeyOpts{Format: format, Detailed: o.Detailed, Pinned: o.Pinned}
	if format == render.FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

// Result is the outcome of an export.
type Result struct {
	Graph *dialogue.Graph

	// DocHash is the content hash of the canonical document.
	DocHash string

	// Artifacts maps each requested format to its bytes.
	Artifacts map[string][]byte

	// CacheHits lists formats served from the cache.
	CacheHits []string

	Stats Stats
}

// Stats reports export timing and size.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	RenderTime time.Duration
}
