package dialogue

import (
	"fmt"
	"slices"

	"github.com/matzehuels/dialoguegraph/pkg/errors"
)

// Edge is a directed connection between two nodes. Option is NoOption for a
// plain edge, or the option ID of the source's keyed output for a choice edge.
type Edge struct {
	Source int
	Target int
	Option int
}

// IsChoice reports whether the edge leaves a keyed output.
func (e Edge) IsChoice() bool { return e.Option != NoOption }

func (e Edge) String() string {
	if e.IsChoice() {
		return fmt.Sprintf("%d[%d]->%d", e.Source, e.Option, e.Target)
	}
	return fmt.Sprintf("%d->%d", e.Source, e.Target)
}

// Graph is the observable dialogue graph.
//
// The zero value is not usable - use New.
type Graph struct {
	nodes  map[int]*Node
	order  []int // insertion order of node IDs
	edges  []Edge
	nextID int

	observers []subscription
	nextToken int
	emitting  int
}

// New creates an empty graph. The first assigned node ID is 1.
func New() *Graph {
	return &Graph{
		nodes:  make(map[int]*Node),
		nextID: 1,
	}
}

// =============================================================================
// Subscriptions
// =============================================================================

// Subscribe registers fn for every subsequent event and returns a function
// that removes the registration.
func (g *Graph) Subscribe(fn Observer) (unsubscribe func()) {
	token := g.nextToken
	g.nextToken++
	g.observers = append(g.observers, subscription{token: token, fn: fn})
	return func() {
		g.observers = slices.DeleteFunc(g.observers, func(s subscription) bool { return s.token == token })
	}
}

func (g *Graph) emit(ev Event) {
	if len(g.observers) == 0 {
		return
	}
	subs := slices.Clone(g.observers)
	g.emitting++
	defer func() { g.emitting-- }()
	for _, s := range subs {
		s.fn(ev)
	}
}

func (g *Graph) checkMutable() {
	if g.emitting > 0 {
		panic("dialogue: graph mutated from inside an event observer")
	}
}

// =============================================================================
// Nodes
// =============================================================================

// AddNode assigns the next unused identifier to n, inserts it and emits
// NodeAdded. It panics if n already belongs to a graph.
func (g *Graph) AddNode(n *Node) int {
	g.checkMutable()
	if n == nil {
		panic("dialogue: AddNode(nil)")
	}
	if n.graph != nil {
		panic(fmt.Sprintf("dialogue: node %d already belongs to a graph", n.id))
	}
	id := g.nextID
	g.insert(id, n)
	return id
}

// Restore inserts n under an explicit identifier and emits NodeAdded.
// It is used when rebuilding a saved dialogue, where identifiers must be
// preserved. Later calls to AddNode never reuse id.
func (g *Graph) Restore(id int, n *Node) error {
	g.checkMutable()
	if n == nil || n.graph != nil {
		return errors.New(errors.ErrCodeInvalidInput, "node %d: already attached", id)
	}
	if id < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "node id %d must be positive", id)
	}
	if _, exists := g.nodes[id]; exists {
		return errors.New(errors.ErrCodeInvalidInput, "duplicate node id %d", id)
	}
	g.insert(id, n)
	return nil
}

func (g *Graph) insert(id int, n *Node) {
	n.id = id
	n.graph = g
	g.nodes[id] = n
	g.order = append(g.order, id)
	if id >= g.nextID {
		g.nextID = id + 1
	}
	g.emit(Event{Kind: NodeAdded, NodeID: id, Node: n})
}

// RemoveNode removes n and every edge incident to it. Each edge removal
// emits EdgeRemoved before the final NodeRemoved.
// Returns a NOT_FOUND error if n is not part of this graph.
func (g *Graph) RemoveNode(n *Node) error {
	id := g.FindNodeID(n)
	if id == NoID {
		return errors.New(errors.ErrCodeNotFound, "node is not part of this graph")
	}
	return g.RemoveNodeID(id)
}

// RemoveNodeID is RemoveNode addressed by identifier.
func (g *Graph) RemoveNodeID(id int) error {
	g.checkMutable()
	n, ok := g.nodes[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "node %d not found", id)
	}

	var incident []Edge
	for _, e := range g.edges {
		if e.Source == id || e.Target == id {
			incident = append(incident, e)
		}
	}
	for _, e := range incident {
		g.deleteEdge(e)
	}

	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(x int) bool { return x == id })
	g.emit(Event{Kind: NodeRemoved, NodeID: id, Node: n})
	n.graph = nil
	return nil
}

// FindNodeID returns the identifier of n in this graph, or NoID.
func (g *Graph) FindNodeID(n *Node) int {
	if n == nil || n.graph != g {
		return NoID
	}
	return n.id
}

// Node returns the node with the given identifier.
func (g *Graph) Node(id int) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Start returns the first START node in insertion order.
func (g *Graph) Start() (*Node, bool) {
	for _, id := range g.order {
		if n := g.nodes[id]; n.Type == NodeStart {
			return n, true
		}
	}
	return nil, false
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// =============================================================================
// Edges
// =============================================================================

// AddEdge connects the plain output of source to the input of target and
// emits EdgeAdded.
//
// Returns INVALID_EDGE if either node is unknown or the slot types do not
// fit, and OCCUPIED_SLOT if the output or the input already carries an edge.
// The graph is unchanged on error.
func (g *Graph) AddEdge(source, target int) error {
	return g.connect(Edge{Source: source, Target: target, Option: NoOption})
}

// AddChoiceEdge connects the output keyed by option on source to the input
// of target and emits EdgeAdded. Errors as for AddEdge, plus INVALID_EDGE
// when source has no such option.
func (g *Graph) AddChoiceEdge(source, option, target int) error {
	if option == NoOption {
		return errors.New(errors.ErrCodeInvalidEdge, "choice edge from node %d needs an option id", source)
	}
	return g.connect(Edge{Source: source, Target: target, Option: option})
}

func (g *Graph) connect(e Edge) error {
	g.checkMutable()
	src, ok := g.nodes[e.Source]
	if !ok {
		return errors.New(errors.ErrCodeInvalidEdge, "edge %s: unknown source node %d", e, e.Source)
	}
	dst, ok := g.nodes[e.Target]
	if !ok {
		return errors.New(errors.ErrCodeInvalidEdge, "edge %s: unknown target node %d", e, e.Target)
	}
	if e.Source == e.Target {
		return errors.New(errors.ErrCodeInvalidEdge, "edge %s: node cannot connect to itself", e)
	}
	if !dst.Type.HasInput() {
		return errors.New(errors.ErrCodeInvalidEdge, "edge %s: %s node has no input", e, dst.Type)
	}
	if e.IsChoice() {
		if !src.Type.OptionKeyed() {
			return errors.New(errors.ErrCodeInvalidEdge, "edge %s: %s node has no keyed outputs", e, src.Type)
		}
		if _, ok := src.Option(e.Option); !ok {
			return errors.New(errors.ErrCodeInvalidEdge, "edge %s: node %d has no option %d", e, e.Source, e.Option)
		}
	} else if !src.Type.HasPlainOutput() {
		return errors.New(errors.ErrCodeInvalidEdge, "edge %s: %s node has no plain output", e, src.Type)
	}

	if existing, ok := g.OutputEdge(e.Source, e.Option); ok {
		return errors.New(errors.ErrCodeOccupiedSlot, "edge %s: output already connected by %s", e, existing)
	}
	if existing, ok := g.Incoming(e.Target); ok {
		return errors.New(errors.ErrCodeOccupiedSlot, "edge %s: input already connected by %s", e, existing)
	}

	g.edges = append(g.edges, e)
	g.emit(Event{Kind: EdgeAdded, Edge: e})
	return nil
}

// RemoveEdge removes the plain edge source->target and emits EdgeRemoved.
// Returns NOT_FOUND if no such edge exists.
func (g *Graph) RemoveEdge(source, target int) error {
	return g.disconnect(Edge{Source: source, Target: target, Option: NoOption})
}

// RemoveChoiceEdge removes the choice edge source[option]->target and emits
// EdgeRemoved. Returns NOT_FOUND if no such edge exists.
func (g *Graph) RemoveChoiceEdge(source, option, target int) error {
	return g.disconnect(Edge{Source: source, Target: target, Option: option})
}

func (g *Graph) disconnect(e Edge) error {
	g.checkMutable()
	if !slices.Contains(g.edges, e) {
		return errors.New(errors.ErrCodeNotFound, "edge %s not found", e)
	}
	g.deleteEdge(e)
	return nil
}

func (g *Graph) deleteEdge(e Edge) {
	g.edges = slices.DeleteFunc(g.edges, func(x Edge) bool { return x == e })
	g.emit(Event{Kind: EdgeRemoved, Edge: e})
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// HasEdge reports whether exactly e is present.
func (g *Graph) HasEdge(e Edge) bool { return slices.Contains(g.edges, e) }

// Outgoing returns the edges leaving node id in insertion order.
func (g *Graph) Outgoing(id int) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// OutputEdge returns the edge occupying the output slot (id, option).
func (g *Graph) OutputEdge(id, option int) (Edge, bool) {
	for _, e := range g.edges {
		if e.Source == id && e.Option == option {
			return e, true
		}
	}
	return Edge{}, false
}

// Incoming returns the edge occupying the input of node id.
func (g *Graph) Incoming(id int) (Edge, bool) {
	for _, e := range g.edges {
		if e.Target == id {
			return e, true
		}
	}
	return Edge{}, false
}
