package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	"github.com/matzehuels/dialoguegraph/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed prefixes labels with the node ID and type.
	Detailed bool

	// Layout pins nodes to their editor positions. When empty, Graphviz
	// lays the dialogue out left to right.
	Layout map[int]graph.Position

	// MaxLabel truncates node text to this many runes. Zero means 40.
	MaxLabel int
}

// pointsPerUnit scales editor coordinates to Graphviz points.
const pointsPerUnit = 1.0

// nodeStyles holds the Graphviz attributes of each node type.
var nodeStyles = map[dialogue.NodeType]string{
	dialogue.NodeStart:       `shape=circle, style=filled, fillcolor="#b7e4c7"`,
	dialogue.NodeEnd:         `shape=doublecircle, style=filled, fillcolor="#f4a5a5"`,
	dialogue.NodeText:        `shape=box, style="rounded,filled", fillcolor=white`,
	dialogue.NodeChoice:      `shape=box, style="rounded,filled", fillcolor="#ffe8a3"`,
	dialogue.NodeBranch:      `shape=diamond, style=filled, fillcolor="#cde3f7"`,
	dialogue.NodeFunction:    `shape=component, style=filled, fillcolor="#e6d5f5"`,
	dialogue.NodeSubdialogue: `shape=box3d, style=filled, fillcolor="#e0e0e0"`,
}

// ToDOT converts a dialogue graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Choice and branch edges are labeled with the option text of their slot.
func ToDOT(g *dialogue.Graph, opts Options) string {
	if opts.MaxLabel <= 0 {
		opts.MaxLabel = 40
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if len(opts.Layout) > 0 {
		buf.WriteString("  layout=neato;\n")
		buf.WriteString("  splines=true;\n")
	} else {
		buf.WriteString("  rankdir=LR;\n")
		buf.WriteString("  ranksep=0.6;\n")
		buf.WriteString("  nodesep=0.3;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts)), nodeStyles[n.Type]}
		if p, ok := opts.Layout[n.ID()]; ok {
			// Graphviz y grows upwards.
			attrs = append(attrs, fmt.Sprintf("pos=\"%.0f,%.0f!\"", p.X*pointsPerUnit, -p.Y*pointsPerUnit))
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		src, _ := g.Node(e.Source)
		if e.IsChoice() {
			opt, _ := src.Option(e.Option)
			fmt.Fprintf(&buf, "  n%d -> n%d [label=%q];\n", e.Source, e.Target, truncate(optionLabel(opt), opts.MaxLabel))
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *dialogue.Node, opts Options) string {
	text := truncate(n.Text, opts.MaxLabel)
	switch {
	case n.Type == dialogue.NodeStart || n.Type == dialogue.NodeEnd:
		text = strings.ToUpper(n.Type.String())
	case n.Type == dialogue.NodeFunction && text != "":
		text = text + "()"
	case text == "":
		text = "(" + n.Type.String() + ")"
	}
	if !opts.Detailed {
		return text
	}
	return fmt.Sprintf("#%d %s\n%s", n.ID(), n.Type, text)
}

func optionLabel(opt dialogue.Option) string {
	if opt.Text != "" {
		return opt.Text
	}
	return strconv.Itoa(opt.ID)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [render.Convert].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag so the diagram scales with its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
