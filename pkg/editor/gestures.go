package editor

import (
	"strings"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	"github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/view"
)

// =============================================================================
// Linking
// =============================================================================

// clickOutput arms out as the pending link source on a primary click, and
// disconnects it on a secondary click.
func (c *Controller) clickOutput(out *view.ConnectionPoint, b view.Button) error {
	if b == view.Secondary {
		if out.IsConnected() {
			return c.disconnect(out)
		}
		return nil
	}
	c.pending = out
	return nil
}

// completeLink connects the pending output to in. The pending selection is
// cleared whatever the outcome. An occupied input or a self loop is rejected
// before the pending output loses its current edge.
func (c *Controller) completeLink(in *view.ConnectionPoint) error {
	out := c.pending
	if out == nil {
		return nil
	}
	c.pending = nil

	if in.IsConnected() {
		return errors.New(errors.ErrCodeOccupiedSlot, "input of node %d is occupied", in.NodeID())
	}
	if in.NodeID() == out.NodeID() {
		return errors.New(errors.ErrCodeInvalidEdge, "node %d cannot link to itself", in.NodeID())
	}
	if out.IsConnected() {
		if err := c.disconnect(out); err != nil {
			return err
		}
	}
	if out.Option() != dialogue.NoOption {
		return c.graph.AddChoiceEdge(out.NodeID(), out.Option(), in.NodeID())
	}
	return c.graph.AddEdge(out.NodeID(), in.NodeID())
}

func (c *Controller) disconnect(out *view.ConnectionPoint) error {
	peer := out.Peer()
	if out.Option() != dialogue.NoOption {
		return c.graph.RemoveChoiceEdge(out.NodeID(), out.Option(), peer.NodeID())
	}
	return c.graph.RemoveEdge(out.NodeID(), peer.NodeID())
}

// Connect links output option of source to target, exactly as clicking the
// output point and then the input point would. Use dialogue.NoOption for
// plain outputs.
func (c *Controller) Connect(source, option, target int) error {
	src, err := c.views.Node(source)
	if err != nil {
		return err
	}
	out, err := src.Output(option)
	if err != nil {
		return err
	}
	dst, err := c.views.Node(target)
	if err != nil {
		return err
	}
	in := dst.Input()
	if in == nil {
		return errors.New(errors.ErrCodeInvalidEdge, "node %d has no input", target)
	}
	c.pending = out
	return c.completeLink(in)
}

// Disconnect removes the edge leaving output option of source.
func (c *Controller) Disconnect(source, option int) error {
	src, err := c.views.Node(source)
	if err != nil {
		return err
	}
	out, err := src.Output(option)
	if err != nil {
		return err
	}
	if !out.IsConnected() {
		return errors.New(errors.ErrCodeNotFound, "output %d of node %d is not connected", option, source)
	}
	return c.disconnect(out)
}

// =============================================================================
// Nodes
// =============================================================================

// AddNode adds a node of type t at the pointer position.
// A second START node is refused with IMMUTABLE_NODE.
func (c *Controller) AddNode(t dialogue.NodeType) (int, error) {
	return c.addNode(t, nil)
}

// AddNodeAt adds a node of type t at p.
func (c *Controller) AddNodeAt(t dialogue.NodeType, p view.Point) (int, error) {
	return c.addNode(t, &p)
}

func (c *Controller) addNode(t dialogue.NodeType, at *view.Point) (int, error) {
	if t == dialogue.NodeStart {
		if _, ok := c.graph.Start(); ok {
			return dialogue.NoID, errors.New(errors.ErrCodeImmutableNode, "dialogue already has a start node")
		}
	}
	n, err := c.opts.Nodes.New(t)
	if err != nil {
		return dialogue.NoID, err
	}
	c.placeAt = at
	defer func() { c.placeAt = nil }()
	return c.graph.AddNode(n), nil
}

// RemoveNode removes node id and its edges. The START node is refused with
// IMMUTABLE_NODE.
func (c *Controller) RemoveNode(id int) error {
	n, ok := c.graph.Node(id)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "node %d not found", id)
	}
	if n.Type == dialogue.NodeStart {
		return errors.New(errors.ErrCodeImmutableNode, "the start node cannot be removed")
	}
	return c.graph.RemoveNodeID(id)
}

// MoveNode moves the view of node id to p.
func (c *Controller) MoveNode(id int, p view.Point) error {
	v, err := c.views.Node(id)
	if err != nil {
		return err
	}
	v.MoveTo(p)
	return nil
}

// BackgroundDrag reports whether a drag on the canvas background should pan
// the camera. It does not while a node is being dragged.
func (c *Controller) BackgroundDrag() bool {
	return !c.opts.Dragger.Dragging()
}

// RegisterMenu adds an "Add <Type>" entry to m for every node type except START.
func (c *Controller) RegisterMenu(m Menu) {
	for _, t := range dialogue.NodeTypes() {
		if t == dialogue.NodeStart {
			continue
		}
		m.AddItem("Add "+title(t.String()), func() {
			if _, err := c.AddNode(t); err != nil {
				c.rejected("add", err)
			}
		})
	}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// =============================================================================
// Content
// =============================================================================

// SetText replaces the content of node id.
func (c *Controller) SetText(id int, text string) error {
	if err := errors.ValidateText(text); err != nil {
		return err
	}
	n, ok := c.graph.Node(id)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "node %d not found", id)
	}
	n.Text = text
	c.dirty = true
	return nil
}

// AddChoiceOption appends an option to CHOICE node id and gives its view a
// matching output point.
func (c *Controller) AddChoiceOption(id int, text string) (dialogue.Option, error) {
	if err := errors.ValidateText(text); err != nil {
		return dialogue.Option{}, err
	}
	n, ok := c.graph.Node(id)
	if !ok {
		return dialogue.Option{}, errors.New(errors.ErrCodeNotFound, "node %d not found", id)
	}
	if n.Type != dialogue.NodeChoice {
		return dialogue.Option{}, errors.New(errors.ErrCodeInvalidInput, "node %d is a %s node, not a choice", id, n.Type)
	}
	v, err := c.views.Node(id)
	if err != nil {
		return dialogue.Option{}, err
	}
	opt := n.AddOption(text)
	c.wireOutput(v.AddOutput(opt.ID))
	c.dirty = true
	return opt, nil
}

// SetOptionText relabels an option of node id.
func (c *Controller) SetOptionText(id, option int, text string) error {
	if err := errors.ValidateText(text); err != nil {
		return err
	}
	n, ok := c.graph.Node(id)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "node %d not found", id)
	}
	for i := range n.Options {
		if n.Options[i].ID == option {
			n.Options[i].Text = text
			c.dirty = true
			return nil
		}
	}
	return errors.New(errors.ErrCodeNotFound, "node %d has no option %d", id, option)
}
