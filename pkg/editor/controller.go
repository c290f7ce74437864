package editor

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	"github.com/matzehuels/dialoguegraph/pkg/observability"
	"github.com/matzehuels/dialoguegraph/pkg/view"
)

// DefaultFallback is where nodes without a stored or pointer position go.
var DefaultFallback = view.Point{X: 100, Y: 100}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Renderer Renderer
	Dragger  Dragger
	Pointer  Pointer

	Nodes dialogue.Factories // default dialogue.DefaultFactories()
	Views view.Factories     // default view.DefaultFactories()

	// Fallback is the position of nodes placed without pointer or layout
	// information. Nil selects DefaultFallback.
	Fallback *view.Point

	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.Renderer == nil {
		o.Renderer = NoopRenderer{}
	}
	if o.Dragger == nil {
		o.Dragger = noDrag{}
	}
	if o.Nodes == nil {
		o.Nodes = dialogue.DefaultFactories()
	}
	if o.Views == nil {
		o.Views = view.DefaultFactories()
	}
	if o.Fallback == nil {
		p := DefaultFallback
		o.Fallback = &p
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Controller keeps a dialogue graph and its views in sync and turns user
// gestures into graph mutations.
type Controller struct {
	opts Options

	graph       *dialogue.Graph
	views       *view.Registry
	unsubscribe func()

	dirty   bool
	pending *view.ConnectionPoint
	placeAt *view.Point
}

// New creates a controller over an empty graph.
func New(opts Options) *Controller {
	opts.setDefaults()
	c := &Controller{
		opts:  opts,
		graph: dialogue.New(),
		views: view.NewRegistry(),
	}
	c.unsubscribe = c.graph.Subscribe(c.handle)
	return c
}

// Graph returns the live graph. Callers must not mutate it while a
// notification is being delivered.
func (c *Controller) Graph() *dialogue.Graph { return c.graph }

// Views returns the view registry.
func (c *Controller) Views() *view.Registry { return c.views }

// Dirty reports whether the graph changed since the last save or load.
func (c *Controller) Dirty() bool { return c.dirty }

// Pending returns the armed output point, or nil.
func (c *Controller) Pending() *view.ConnectionPoint { return c.pending }

// Close detaches the controller from its graph.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// =============================================================================
// Event Handling
// =============================================================================

// handle runs inside graph notifications: it may only touch views and
// controller state, never the graph.
func (c *Controller) handle(ev dialogue.Event) {
	switch ev.Kind {
	case dialogue.NodeAdded:
		c.onNodeAdded(ev.Node)
	case dialogue.NodeRemoved:
		c.onNodeRemoved(ev.NodeID)
	case dialogue.EdgeAdded:
		c.onEdgeAdded(ev.Edge)
	case dialogue.EdgeRemoved:
		c.onEdgeRemoved(ev.Edge)
	}
	c.dirty = true
	observability.Editor().OnMutation(ev.Kind.String())
}

func (c *Controller) onNodeAdded(n *dialogue.Node) {
	v, err := c.opts.Views.New(n, c.placement())
	if err != nil {
		invariant(err)
	}
	c.wire(v)
	if err := c.views.AddNode(v); err != nil {
		invariant(err)
	}
	c.opts.Renderer.Attach(v)
	c.opts.Dragger.MakeDraggable(v)
}

func (c *Controller) onNodeRemoved(id int) {
	v, err := c.views.RemoveNode(id)
	if err != nil {
		invariant(err)
	}
	v.Closable = false
	if c.pending != nil && c.pending.NodeID() == id {
		c.pending = nil
	}
	c.retire(v)
}

func (c *Controller) onEdgeAdded(e dialogue.Edge) {
	src, err := c.views.Node(e.Source)
	if err != nil {
		invariant(err)
	}
	dst, err := c.views.Node(e.Target)
	if err != nil {
		invariant(err)
	}
	out, err := src.Output(e.Option)
	if err != nil {
		invariant(err)
	}
	in := dst.Input()
	out.ConnectTo(in)

	ev := &view.EdgeView{Edge: e, Source: out, Target: in}
	if err := c.views.AddEdge(ev); err != nil {
		invariant(err)
	}
	c.opts.Renderer.Attach(ev)
}

func (c *Controller) onEdgeRemoved(e dialogue.Edge) {
	ev, err := c.views.RemoveEdge(e)
	if err != nil {
		invariant(err)
	}
	ev.Source.Disconnect()
	c.retire(ev)
}

// retire animates v out and detaches it afterwards.
func (c *Controller) retire(v view.Element) {
	r := c.opts.Renderer
	r.Animate(v, RemoveAnimation, func() { r.Detach(v) })
}

// placement picks the position of a node being added: an explicit position
// during load or scaffolding, else the pointer, else the fallback.
func (c *Controller) placement() view.Point {
	switch {
	case c.placeAt != nil:
		return *c.placeAt
	case c.opts.Pointer != nil:
		return c.opts.Pointer.Position()
	}
	return *c.opts.Fallback
}

// wire installs the gesture handlers of a node view.
func (c *Controller) wire(v *view.NodeView) {
	id := v.NodeID()
	v.OnClose = func() {
		if err := c.RemoveNode(id); err != nil {
			c.rejected("remove", err)
		}
	}
	v.OnMove = func(view.Point) { c.dirty = true }
	if in := v.Input(); in != nil {
		in.OnClick = func(view.Button) {
			if err := c.completeLink(in); err != nil {
				c.rejected("connect", err)
			}
		}
	}
	for _, out := range v.Outputs() {
		c.wireOutput(out)
	}
}

func (c *Controller) wireOutput(out *view.ConnectionPoint) {
	out.OnClick = func(b view.Button) {
		if err := c.clickOutput(out, b); err != nil {
			c.rejected("disconnect", err)
		}
	}
}

func (c *Controller) rejected(gesture string, err error) {
	c.opts.Logger.Debug("gesture rejected", "gesture", gesture, "err", err)
	observability.Editor().OnGestureRejected(gesture, err)
}

// invariant aborts on a view lookup that cannot fail while graph and
// registry are in sync.
func invariant(err error) {
	panic(fmt.Sprintf("editor: views out of sync with graph: %v", err))
}
