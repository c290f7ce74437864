// Package nodelink renders dialogue graphs as node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz. Each
// node type has its own shape: START and END are circles, branches are
// diamonds, function calls are component boxes and sub-dialogues are 3D
// boxes. Choice and branch edges carry the label of the option they leave.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Passing the saved layout keeps the diagram close to what the designer sees
// in the editor:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Layout: doc.Layout})
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion lives in the parent render package and
// requires librsvg (rsvg-convert).
package nodelink
