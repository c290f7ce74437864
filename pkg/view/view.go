package view

import (
	"math"
	"slices"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	"github.com/matzehuels/dialoguegraph/pkg/errors"
)

// Point is a 2D screen position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Element is a view object handed to the rendering layer: a *NodeView or
// an *EdgeView.
type Element interface {
	element()
}

// Button identifies which pointer button triggered a click.
type Button int

const (
	Primary Button = iota
	Secondary
)

// =============================================================================
// ConnectionPoint
// =============================================================================

// ConnectionPoint is one endpoint slot of a node view: its input, or one of
// its outputs. Output points carry the option ID of the slot they represent
// (dialogue.NoOption for plain outputs).
type ConnectionPoint struct {
	// OnClick is invoked by Click. Installed by the controller.
	OnClick func(Button)

	nodeID int
	option int
	input  bool
	peer   *ConnectionPoint
}

// NodeID returns the identifier of the owning node.
func (p *ConnectionPoint) NodeID() int { return p.nodeID }

// Option returns the option ID of an output point, or dialogue.NoOption.
func (p *ConnectionPoint) Option() int { return p.option }

// IsInput reports whether this is the input point of its node.
func (p *ConnectionPoint) IsInput() bool { return p.input }

// IsConnected reports whether the point is linked to a peer.
func (p *ConnectionPoint) IsConnected() bool { return p.peer != nil }

// Peer returns the point on the other end of the link, or nil.
func (p *ConnectionPoint) Peer() *ConnectionPoint { return p.peer }

// ConnectTo links p and q to each other.
func (p *ConnectionPoint) ConnectTo(q *ConnectionPoint) {
	p.peer = q
	q.peer = p
}

// Disconnect unlinks p and its peer.
func (p *ConnectionPoint) Disconnect() {
	if p.peer != nil {
		p.peer.peer = nil
		p.peer = nil
	}
}

// Click forwards a pointer click to the installed handler.
func (p *ConnectionPoint) Click(b Button) {
	if p.OnClick != nil {
		p.OnClick(b)
	}
}

// =============================================================================
// NodeView
// =============================================================================

// NodeView is the on-screen representation of one dialogue node.
type NodeView struct {
	Type     dialogue.NodeType
	Position Point

	// Closable reports whether the delete affordance is enabled.
	Closable bool

	// OnClose and OnMove are invoked by Close and MoveTo.
	OnClose func()
	OnMove  func(Point)

	nodeID  int
	input   *ConnectionPoint
	outputs []*ConnectionPoint
}

// NewNodeView creates a view for n at pos with one output point per output
// slot and an input point when the node type has one.
func NewNodeView(n *dialogue.Node, pos Point) *NodeView {
	v := &NodeView{
		Type:     n.Type,
		Position: pos,
		Closable: true,
		nodeID:   n.ID(),
	}
	if n.Type.HasInput() {
		v.input = &ConnectionPoint{nodeID: v.nodeID, option: dialogue.NoOption, input: true}
	}
	for _, key := range n.Outputs() {
		v.AddOutput(key)
	}
	return v
}

func (*NodeView) element() {}

// NodeID returns the identifier of the displayed node.
func (v *NodeView) NodeID() int { return v.nodeID }

// Input returns the input point, or nil for START nodes.
func (v *NodeView) Input() *ConnectionPoint { return v.input }

// Outputs returns the output points in slot order.
func (v *NodeView) Outputs() []*ConnectionPoint { return slices.Clone(v.outputs) }

// AddOutput appends an output point for the given slot key.
func (v *NodeView) AddOutput(option int) *ConnectionPoint {
	p := &ConnectionPoint{nodeID: v.nodeID, option: option}
	v.outputs = append(v.outputs, p)
	return p
}

// Output returns the output point for a slot key. Plain edges use
// dialogue.NoOption and resolve to the sole output point.
func (v *NodeView) Output(option int) (*ConnectionPoint, error) {
	for _, p := range v.outputs {
		if p.option == option {
			return p, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "node %d has no output point for option %d", v.nodeID, option)
}

// Close triggers the delete affordance if it is enabled.
func (v *NodeView) Close() {
	if v.Closable && v.OnClose != nil {
		v.OnClose()
	}
}

// MoveTo updates the position and notifies the move handler.
func (v *NodeView) MoveTo(p Point) {
	v.Position = p
	if v.OnMove != nil {
		v.OnMove(p)
	}
}

// =============================================================================
// EdgeView
// =============================================================================

// EdgeView is the on-screen representation of one dialogue edge.
type EdgeView struct {
	Edge   dialogue.Edge
	Source *ConnectionPoint
	Target *ConnectionPoint
}

func (*EdgeView) element() {}

// minControlOffset keeps short or backwards edges visibly curved.
const minControlOffset = 50

// ControlPoints derives the two cubic Bézier control points of an edge drawn
// from src to dst, leaving the output horizontally to the right and entering
// the input from the left.
func ControlPoints(src, dst Point) (Point, Point) {
	dx := math.Max(math.Abs(dst.X-src.X)/2, minControlOffset)
	return Point{X: src.X + dx, Y: src.Y}, Point{X: dst.X - dx, Y: dst.Y}
}

// CurvePoint evaluates the edge curve from src to dst at t in [0, 1].
func CurvePoint(src, dst Point, t float64) Point {
	c1, c2 := ControlPoints(src, dst)
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*src.X + b*c1.X + c*c2.X + d*dst.X,
		Y: a*src.Y + b*c1.Y + c*c2.Y + d*dst.Y,
	}
}

// =============================================================================
// Constructors
// =============================================================================

// Factory builds the view of a node at a position.
type Factory func(n *dialogue.Node, pos Point) *NodeView

// Factories maps each node type to its view constructor.
type Factories map[dialogue.NodeType]Factory

// DefaultFactories returns NewNodeView for every node type. START views
// are created without the delete affordance.
func DefaultFactories() Factories {
	f := make(Factories, len(dialogue.NodeTypes()))
	for _, t := range dialogue.NodeTypes() {
		f[t] = NewNodeView
	}
	f[dialogue.NodeStart] = func(n *dialogue.Node, pos Point) *NodeView {
		v := NewNodeView(n, pos)
		v.Closable = false
		return v
	}
	return f
}

// New builds the view of n at pos.
func (f Factories) New(n *dialogue.Node, pos Point) (*NodeView, error) {
	fn, ok := f[n.Type]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "no view constructor for node type %s", n.Type)
	}
	return fn(n, pos), nil
}
