package graph

import (
	"cmp"
	"slices"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	"github.com/matzehuels/dialoguegraph/pkg/errors"
)

// Document is the serialized form of a dialogue graph plus its layout.
type Document struct {
	Nodes  []Node           `json:"nodes"`
	Edges  []Edge           `json:"edges"`
	Layout map[int]Position `json:"layout,omitempty"`
}

// Node is a serialized dialogue node.
type Node struct {
	ID      int      `json:"id"`
	Type    string   `json:"type"`
	Text    string   `json:"text,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// Option is a serialized choice or branch option.
type Option struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Edge is a serialized edge. Option is nil for plain edges.
type Edge struct {
	Source int  `json:"source"`
	Target int  `json:"target"`
	Option *int `json:"option,omitempty"`
}

// Position is a layout position.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PositionOf returns the stored position of node id, or fallback.
func (d Document) PositionOf(id int, fallback Position) Position {
	if p, ok := d.Layout[id]; ok {
		return p
	}
	return fallback
}

// =============================================================================
// Graph ↔ Document Conversion
// =============================================================================

// ToSerializable converts g to a Document without layout.
// Nodes are sorted by ID; edges keep graph order.
func ToSerializable(g *dialogue.Graph) Document {
	nodes := g.Nodes()
	slices.SortFunc(nodes, func(a, b *dialogue.Node) int { return cmp.Compare(a.ID(), b.ID()) })

	doc := Document{
		Nodes: make([]Node, len(nodes)),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for i, n := range nodes {
		doc.Nodes[i] = nodeFromDialogue(n)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, edgeFromDialogue(e))
	}
	return doc
}

// FromSerializable rebuilds a graph from doc, preserving node identifiers.
// Nodes are restored first, then edges in document order.
func FromSerializable(doc Document) (*dialogue.Graph, error) {
	g := dialogue.New()

	for _, nd := range doc.Nodes {
		n, err := nodeToDialogue(nd)
		if err != nil {
			return nil, err
		}
		if err := g.Restore(nd.ID, n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "node %d", nd.ID)
		}
	}

	for _, ed := range doc.Edges {
		if err := restoreEdge(g, ed); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Validate rebuilds doc like FromSerializable and additionally requires
// exactly one START node, the shape every editable dialogue has.
func Validate(doc Document) (*dialogue.Graph, error) {
	g, err := FromSerializable(doc)
	if err != nil {
		return nil, err
	}
	starts := 0
	for _, n := range g.Nodes() {
		if n.Type == dialogue.NodeStart {
			starts++
		}
	}
	if starts != 1 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "dialogue has %d start nodes, want exactly 1", starts)
	}
	return g, nil
}

func restoreEdge(g *dialogue.Graph, ed Edge) error {
	src, ok := g.Node(ed.Source)
	if !ok {
		return errors.New(errors.ErrCodeUnknownReference, "edge %s: unknown source node %d", ed, ed.Source)
	}
	if _, ok := g.Node(ed.Target); !ok {
		return errors.New(errors.ErrCodeUnknownReference, "edge %s: unknown target node %d", ed, ed.Target)
	}

	var err error
	if ed.Option != nil {
		if _, ok := src.Option(*ed.Option); !ok {
			return errors.New(errors.ErrCodeUnknownReference, "edge %s: node %d has no option %d", ed, ed.Source, *ed.Option)
		}
		err = g.AddChoiceEdge(ed.Source, *ed.Option, ed.Target)
	} else {
		err = g.AddEdge(ed.Source, ed.Target)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "edge %s", ed)
	}
	return nil
}

// String formats the edge like dialogue.Edge.
func (e Edge) String() string { return e.toDialogue().String() }

func (e Edge) toDialogue() dialogue.Edge {
	out := dialogue.Edge{Source: e.Source, Target: e.Target, Option: dialogue.NoOption}
	if e.Option != nil {
		out.Option = *e.Option
	}
	return out
}

// =============================================================================
// Internal Helpers
// =============================================================================

func nodeFromDialogue(n *dialogue.Node) Node {
	out := Node{ID: n.ID(), Type: n.Type.String(), Text: n.Text}
	if n.Type.OptionKeyed() {
		out.Options = make([]Option, len(n.Options))
		for i, o := range n.Options {
			out.Options[i] = Option{ID: o.ID, Text: o.Text}
		}
	}
	return out
}

func edgeFromDialogue(e dialogue.Edge) Edge {
	out := Edge{Source: e.Source, Target: e.Target}
	if e.IsChoice() {
		opt := e.Option
		out.Option = &opt
	}
	return out
}

func nodeToDialogue(nd Node) (*dialogue.Node, error) {
	typ, err := dialogue.ParseNodeType(nd.Type)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "node %d", nd.ID)
	}

	n := &dialogue.Node{Type: typ, Text: nd.Text}
	if !typ.OptionKeyed() {
		return n, nil
	}
	if typ == dialogue.NodeBranch && len(nd.Options) == 0 {
		n.Options = dialogue.NewBranchNode("").Options
		return n, nil
	}

	seen := make(map[int]bool, len(nd.Options))
	for _, o := range nd.Options {
		if seen[o.ID] || o.ID < 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "node %d: invalid or duplicate option id %d", nd.ID, o.ID)
		}
		seen[o.ID] = true
		n.Options = append(n.Options, dialogue.Option{ID: o.ID, Text: o.Text})
	}
	return n, nil
}
