package view

import (
	"slices"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	"github.com/matzehuels/dialoguegraph/pkg/errors"
)

// Registry resolves between dialogue entities and their views. It holds at
// most one live view per node and per edge, and never owns domain data.
//
// A failed lookup returns a NOT_FOUND error. Callers treat it as an
// invariant violation: every live node and edge is expected to have a view.
type Registry struct {
	nodes map[int]*NodeView
	order []int
	edges []*EdgeView
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[int]*NodeView)}
}

// AddNode registers v. It returns INTERNAL_ERROR if the node already has a view.
func (r *Registry) AddNode(v *NodeView) error {
	if _, exists := r.nodes[v.nodeID]; exists {
		return errors.New(errors.ErrCodeInternal, "node %d already has a view", v.nodeID)
	}
	r.nodes[v.nodeID] = v
	r.order = append(r.order, v.nodeID)
	return nil
}

// RemoveNode unregisters and returns the view of node id.
func (r *Registry) RemoveNode(id int) (*NodeView, error) {
	v, err := r.Node(id)
	if err != nil {
		return nil, err
	}
	delete(r.nodes, id)
	r.order = slices.DeleteFunc(r.order, func(x int) bool { return x == id })
	return v, nil
}

// Node returns the view of node id.
func (r *Registry) Node(id int) (*NodeView, error) {
	v, ok := r.nodes[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no view for node %d", id)
	}
	return v, nil
}

// NodeOf returns the view of n.
func (r *Registry) NodeOf(n *dialogue.Node) (*NodeView, error) {
	return r.Node(n.ID())
}

// Nodes returns all node views in registration order.
func (r *Registry) Nodes() []*NodeView {
	out := make([]*NodeView, len(r.order))
	for i, id := range r.order {
		out[i] = r.nodes[id]
	}
	return out
}

// AddEdge registers v. It returns INTERNAL_ERROR if the edge already has a view.
func (r *Registry) AddEdge(v *EdgeView) error {
	if _, err := r.Edge(v.Edge); err == nil {
		return errors.New(errors.ErrCodeInternal, "edge %s already has a view", v.Edge)
	}
	r.edges = append(r.edges, v)
	return nil
}

// Edge returns the view of e. Matching includes the option ID, so several
// edges leaving the same choice node resolve independently.
func (r *Registry) Edge(e dialogue.Edge) (*EdgeView, error) {
	for _, v := range r.edges {
		if v.Edge == e {
			return v, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "no view for edge %s", e)
}

// RemoveEdge unregisters and returns the view of e.
func (r *Registry) RemoveEdge(e dialogue.Edge) (*EdgeView, error) {
	v, err := r.Edge(e)
	if err != nil {
		return nil, err
	}
	r.edges = slices.DeleteFunc(r.edges, func(x *EdgeView) bool { return x == v })
	return v, nil
}

// Edges returns all edge views in registration order.
func (r *Registry) Edges() []*EdgeView { return slices.Clone(r.edges) }

// Positions returns the current position of every node view keyed by node ID.
func (r *Registry) Positions() map[int]Point {
	out := make(map[int]Point, len(r.nodes))
	for id, v := range r.nodes {
		out[id] = v.Position
	}
	return out
}

// Clear unregisters every view.
func (r *Registry) Clear() {
	clear(r.nodes)
	r.order = nil
	r.edges = nil
}
