package dialogue

import "fmt"

// EventKind identifies a granular structural change.
type EventKind int

const (
	NodeAdded EventKind = iota
	NodeRemoved
	EdgeAdded
	EdgeRemoved
)

func (k EventKind) String() string {
	switch k {
	case NodeAdded:
		return "node-added"
	case NodeRemoved:
		return "node-removed"
	case EdgeAdded:
		return "edge-added"
	case EdgeRemoved:
		return "edge-removed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event describes one structural change. Node events carry Node and NodeID;
// edge events carry Edge.
type Event struct {
	Kind   EventKind
	NodeID int
	Node   *Node
	Edge   Edge
}

// Observer receives graph events synchronously.
type Observer func(Event)

type subscription struct {
	token int
	fn    Observer
}
