package dialogue

import (
	"fmt"
	"slices"

	"github.com/matzehuels/dialoguegraph/pkg/errors"
)

// NodeType is the closed set of dialogue node kinds.
type NodeType int

const (
	NodeStart NodeType = iota
	NodeEnd
	NodeText
	NodeChoice
	NodeBranch
	NodeFunction
	NodeSubdialogue
)

var nodeTypeNames = [...]string{
	NodeStart:       "start",
	NodeEnd:         "end",
	NodeText:        "text",
	NodeChoice:      "choice",
	NodeBranch:      "branch",
	NodeFunction:    "function",
	NodeSubdialogue: "subdialogue",
}

// NodeTypes returns every node type in declaration order.
func NodeTypes() []NodeType {
	return []NodeType{NodeStart, NodeEnd, NodeText, NodeChoice, NodeBranch, NodeFunction, NodeSubdialogue}
}

// String returns the lowercase type tag used in saved dialogues.
func (t NodeType) String() string {
	if t.Valid() {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Valid reports whether t is one of the declared node types.
func (t NodeType) Valid() bool { return t >= NodeStart && t <= NodeSubdialogue }

// HasInput reports whether nodes of this type accept an incoming edge.
func (t NodeType) HasInput() bool { return t != NodeStart }

// HasPlainOutput reports whether nodes of this type have a single unkeyed output.
func (t NodeType) HasPlainOutput() bool {
	switch t {
	case NodeEnd, NodeChoice, NodeBranch:
		return false
	}
	return true
}

// OptionKeyed reports whether outputs of this type are keyed by option ID.
func (t NodeType) OptionKeyed() bool { return t == NodeChoice || t == NodeBranch }

// ParseNodeType converts a type tag back into a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	for i, name := range nodeTypeNames {
		if name == s {
			return NodeType(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown node type %q", s)
}

// Sentinel identifiers.
const (
	// NoID is returned for nodes that are not part of a graph.
	NoID = -1
	// NoOption marks a plain (unkeyed) edge or output slot.
	NoOption = -1
)

// Branch output keys.
const (
	BranchTrue  = 0
	BranchFalse = 1
)

// Option is one keyed output of a choice or branch node.
type Option struct {
	ID   int
	Text string
}

// Node is a typed dialogue vertex.
//
// Text holds the type-specific content: the spoken line for TEXT, the prompt
// for CHOICE, the condition for BRANCH, the call expression for FUNCTION and
// the referenced dialogue name for SUBDIALOGUE. Options is only meaningful
// for CHOICE and BRANCH nodes.
//
// The identifier is assigned when the node is inserted into a [Graph].
type Node struct {
	Type    NodeType
	Text    string
	Options []Option

	id    int
	graph *Graph
}

// ID returns the identifier assigned by the owning graph, or NoID.
func (n *Node) ID() int {
	if n == nil || n.graph == nil {
		return NoID
	}
	return n.id
}

// Option returns the option with the given ID.
func (n *Node) Option(id int) (Option, bool) {
	i := slices.IndexFunc(n.Options, func(o Option) bool { return o.ID == id })
	if i < 0 {
		return Option{}, false
	}
	return n.Options[i], true
}

// AddOption appends an option with the next free option ID and returns it.
func (n *Node) AddOption(text string) Option {
	next := 0
	for _, o := range n.Options {
		if o.ID >= next {
			next = o.ID + 1
		}
	}
	o := Option{ID: next, Text: text}
	n.Options = append(n.Options, o)
	return o
}

// Outputs returns the output slot keys of the node: a single NoOption for
// plain outputs, one option ID per keyed output, or nil for END.
func (n *Node) Outputs() []int {
	switch {
	case n.Type.OptionKeyed():
		keys := make([]int, len(n.Options))
		for i, o := range n.Options {
			keys[i] = o.ID
		}
		return keys
	case n.Type.HasPlainOutput():
		return []int{NoOption}
	}
	return nil
}

// =============================================================================
// Constructors
// =============================================================================

// NewStartNode creates the entry node of a dialogue.
func NewStartNode() *Node { return &Node{Type: NodeStart} }

// NewEndNode creates a terminal node.
func NewEndNode() *Node { return &Node{Type: NodeEnd} }

// NewTextNode creates a node that speaks a single line.
func NewTextNode(text string) *Node { return &Node{Type: NodeText, Text: text} }

// NewChoiceNode creates a node offering the given options, numbered from 0.
func NewChoiceNode(prompt string, options ...string) *Node {
	n := &Node{Type: NodeChoice, Text: prompt}
	for _, o := range options {
		n.AddOption(o)
	}
	return n
}

// NewBranchNode creates a node that follows BranchTrue or BranchFalse
// depending on condition.
func NewBranchNode(condition string) *Node {
	return &Node{
		Type: NodeBranch,
		Text: condition,
		Options: []Option{
			{ID: BranchTrue, Text: "true"},
			{ID: BranchFalse, Text: "false"},
		},
	}
}

// NewFunctionNode creates a node that invokes a game function.
func NewFunctionNode(call string) *Node { return &Node{Type: NodeFunction, Text: call} }

// NewSubdialogueNode creates a node that runs another dialogue by name.
func NewSubdialogueNode(name string) *Node { return &Node{Type: NodeSubdialogue, Text: name} }

// NodeFactory creates a fresh, unattached node.
type NodeFactory func() *Node

// Factories maps each node type to the constructor used by the editor when
// the designer adds a node of that type.
type Factories map[NodeType]NodeFactory

// DefaultFactories returns constructors with placeholder content.
func DefaultFactories() Factories {
	return Factories{
		NodeStart:       NewStartNode,
		NodeEnd:         NewEndNode,
		NodeText:        func() *Node { return NewTextNode("") },
		NodeChoice:      func() *Node { return NewChoiceNode("", "Option 1", "Option 2") },
		NodeBranch:      func() *Node { return NewBranchNode("") },
		NodeFunction:    func() *Node { return NewFunctionNode("") },
		NodeSubdialogue: func() *Node { return NewSubdialogueNode("") },
	}
}

// New creates a node of type t. A constructor that returns nil or a node of
// another type yields INTERNAL_ERROR.
func (f Factories) New(t NodeType) (*Node, error) {
	fn, ok := f[t]
	if !ok || fn == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "no constructor for node type %s", t)
	}
	n := fn()
	switch {
	case n == nil:
		return nil, errors.New(errors.ErrCodeInternal, "constructor for %s returned nil", t)
	case n.Type != t:
		return nil, errors.New(errors.ErrCodeInternal, "constructor for %s returned a %s node", t, n.Type)
	}
	return n, nil
}
