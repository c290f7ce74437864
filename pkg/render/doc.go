// Package render provides diagram export for dialogue graphs.
//
// # Overview
//
// Dialogues are exported as node-link diagrams (in the [nodelink]
// subpackage) rendered by Graphviz. This package adds generic format
// conversion on top.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/dialoguegraph/pkg/render/nodelink
package render
