package editor

import (
	"fmt"
	"time"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	"github.com/matzehuels/dialoguegraph/pkg/graph"
	"github.com/matzehuels/dialoguegraph/pkg/observability"
	"github.com/matzehuels/dialoguegraph/pkg/view"
)

// Scaffold positions of a new session.
var (
	scaffoldStart = view.Point{X: 50, Y: 200}
	scaffoldText  = view.Point{X: 350, Y: 200}
	scaffoldEnd   = view.Point{X: 650, Y: 200}
)

// NewSession creates a controller holding the default scaffold
// START -> TEXT -> END.
func NewSession(opts Options) *Controller {
	c := New(opts)
	c.Scaffold()
	return c
}

// Scaffold replaces the graph with START -> TEXT -> END and clears the dirty flag.
func (c *Controller) Scaffold() {
	g := dialogue.New()
	layout := make(map[int]graph.Position, 3)
	var ids []int
	for _, step := range []struct {
		t   dialogue.NodeType
		pos view.Point
	}{
		{dialogue.NodeStart, scaffoldStart},
		{dialogue.NodeText, scaffoldText},
		{dialogue.NodeEnd, scaffoldEnd},
	} {
		n, err := c.opts.Nodes.New(step.t)
		if err != nil {
			c.opts.Logger.Debug("scaffold uses default constructor", "type", step.t, "err", err)
			if n, err = dialogue.DefaultFactories().New(step.t); err != nil {
				panic(fmt.Sprintf("editor: scaffold: %v", err))
			}
		}
		id := g.AddNode(n)
		layout[id] = toPosition(step.pos)
		ids = append(ids, id)
	}
	// Fresh nodes with free slots.
	for i := 1; i < len(ids); i++ {
		if err := g.AddEdge(ids[i-1], ids[i]); err != nil {
			panic(fmt.Sprintf("editor: scaffold: %v", err))
		}
	}
	c.replace(g, layout)
}

// Save returns the graph together with the live view positions and clears
// the dirty flag.
func (c *Controller) Save() graph.Document {
	doc := graph.ToSerializable(c.graph)
	positions := c.views.Positions()
	doc.Layout = make(map[int]graph.Position, len(positions))
	for id, p := range positions {
		doc.Layout[id] = toPosition(p)
	}
	c.dirty = false
	observability.Editor().OnSave(len(doc.Nodes), len(doc.Edges))
	return doc
}

// Load replaces the graph and all views with doc and clears the dirty flag.
// The document must hold exactly one START node. A rejected document
// leaves the controller unchanged.
func (c *Controller) Load(doc graph.Document) error {
	start := time.Now()
	g, err := graph.Validate(doc)
	if err != nil {
		observability.Editor().OnLoad(0, 0, time.Since(start), err)
		c.opts.Logger.Debug("load rejected", "err", err)
		return err
	}
	c.replace(g, doc.Layout)
	observability.Editor().OnLoad(g.NodeCount(), g.EdgeCount(), time.Since(start), nil)
	c.opts.Logger.Debug("loaded dialogue", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return nil
}

// replace swaps in g and rebuilds every view from scratch: node views at
// their layout position (or the fallback), then edge views. The controller
// subscribes to g only after the rebuild.
func (c *Controller) replace(g *dialogue.Graph, layout map[int]graph.Position) {
	c.Close()
	for _, ev := range c.views.Edges() {
		c.opts.Renderer.Detach(ev)
	}
	for _, v := range c.views.Nodes() {
		c.opts.Renderer.Detach(v)
	}
	c.views.Clear()
	c.pending = nil
	c.graph = g

	fallback := toPosition(*c.opts.Fallback)
	for _, n := range g.Nodes() {
		p := toPoint(graph.Document{Layout: layout}.PositionOf(n.ID(), fallback))
		c.placeAt = &p
		c.onNodeAdded(n)
	}
	c.placeAt = nil
	for _, e := range g.Edges() {
		c.onEdgeAdded(e)
	}

	c.unsubscribe = g.Subscribe(c.handle)
	c.dirty = false
}

func toPosition(p view.Point) graph.Position { return graph.Position{X: p.X, Y: p.Y} }
func toPoint(p graph.Position) view.Point    { return view.Point{X: p.X, Y: p.Y} }
