package dialogue

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/matzehuels/dialoguegraph/pkg/errors"
)

// recorder collects every event delivered by a graph.
type recorder struct {
	events []Event
}

func (r *recorder) observe(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

type snapshot struct {
	nodes []int
	edges []Edge
}

func snap(g *Graph) snapshot {
	var s snapshot
	for _, n := range g.Nodes() {
		s.nodes = append(s.nodes, n.ID())
	}
	s.edges = g.Edges()
	return s
}

func (s snapshot) equal(o snapshot) bool {
	return slices.Equal(s.nodes, o.nodes) && slices.Equal(s.edges, o.edges)
}

func TestAddNodeAssignsIncreasingIDs(t *testing.T) {
	g := New()
	rec := &recorder{}
	g.Subscribe(rec.observe)

	start := NewStartNode()
	text := NewTextNode("hi")
	if id := g.AddNode(start); id != 1 {
		t.Errorf("first id = %d, want 1", id)
	}
	if id := g.AddNode(text); id != 2 {
		t.Errorf("second id = %d, want 2", id)
	}
	if start.ID() != 1 || text.ID() != 2 {
		t.Errorf("node IDs = %d,%d, want 1,2", start.ID(), text.ID())
	}
	if g.FindNodeID(text) != 2 {
		t.Errorf("FindNodeID = %d, want 2", g.FindNodeID(text))
	}
	if got := rec.kinds(); !slices.Equal(got, []EventKind{NodeAdded, NodeAdded}) {
		t.Errorf("events = %v", got)
	}
	if rec.events[1].NodeID != 2 || rec.events[1].Node != text {
		t.Errorf("event = %+v, want node 2", rec.events[1])
	}
}

func TestFindNodeIDUnknown(t *testing.T) {
	g := New()
	other := New()
	n := NewTextNode("")
	other.AddNode(n)

	if id := g.FindNodeID(n); id != NoID {
		t.Errorf("FindNodeID(foreign) = %d, want %d", id, NoID)
	}
	if id := g.FindNodeID(NewEndNode()); id != NoID {
		t.Errorf("FindNodeID(detached) = %d, want %d", id, NoID)
	}
	if id := g.FindNodeID(nil); id != NoID {
		t.Errorf("FindNodeID(nil) = %d, want %d", id, NoID)
	}
}

func TestAddNodeTwicePanics(t *testing.T) {
	g := New()
	n := NewTextNode("")
	g.AddNode(n)
	defer func() {
		if recover() == nil {
			t.Error("AddNode of attached node did not panic")
		}
	}()
	New().AddNode(n)
}

func TestRestorePreservesIDs(t *testing.T) {
	g := New()
	if err := g.Restore(7, NewStartNode()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if err := g.Restore(3, NewEndNode()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if id := g.AddNode(NewTextNode("")); id != 8 {
		t.Errorf("next id = %d, want 8", id)
	}

	if err := g.Restore(3, NewTextNode("")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("duplicate Restore err = %v, want INVALID_INPUT", err)
	}
	if err := g.Restore(0, NewTextNode("")); err == nil {
		t.Error("Restore(0) should fail")
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	g := New()
	start := g.AddNode(NewStartNode())
	a := g.AddNode(NewTextNode("a"))
	choice := g.AddNode(NewChoiceNode("pick", "x", "y"))
	b := g.AddNode(NewTextNode("b"))
	c := g.AddNode(NewTextNode("c"))
	mustNil(t, g.AddEdge(start, a))
	mustNil(t, g.AddEdge(a, choice))
	mustNil(t, g.AddChoiceEdge(choice, 0, b))
	mustNil(t, g.AddChoiceEdge(choice, 1, c))

	rec := &recorder{}
	g.Subscribe(rec.observe)

	if err := g.RemoveNodeID(choice); err != nil {
		t.Fatalf("RemoveNodeID: %v", err)
	}

	want := []EventKind{EdgeRemoved, EdgeRemoved, EdgeRemoved, NodeRemoved}
	if got := rec.kinds(); !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if got := g.Edges(); !slices.Equal(got, []Edge{{Source: start, Target: a, Option: NoOption}}) {
		t.Errorf("edges = %v, want only %d->%d", got, start, a)
	}
	if _, ok := g.Node(choice); ok {
		t.Error("choice node still present")
	}
}

func TestRemoveNodeNotFound(t *testing.T) {
	g := New()
	if err := g.RemoveNodeID(42); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
	if err := g.RemoveNode(NewTextNode("")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestRemovedNodeLosesID(t *testing.T) {
	g := New()
	n := NewTextNode("")
	g.AddNode(n)

	var idDuringEvent int
	g.Subscribe(func(ev Event) {
		if ev.Kind == NodeRemoved {
			idDuringEvent = ev.Node.ID()
		}
	})
	mustNil(t, g.RemoveNode(n))

	if idDuringEvent != 1 {
		t.Errorf("ID during NodeRemoved = %d, want 1", idDuringEvent)
	}
	if n.ID() != NoID {
		t.Errorf("ID after removal = %d, want NoID", n.ID())
	}
}

func TestAddEdgeRejections(t *testing.T) {
	tests := []struct {
		name string
		run  func(g *Graph, ids map[string]int) error
		code errors.Code
	}{
		{
			name: "output occupied",
			run:  func(g *Graph, ids map[string]int) error { return g.AddEdge(ids["start"], ids["b"]) },
			code: errors.ErrCodeOccupiedSlot,
		},
		{
			name: "input occupied",
			run:  func(g *Graph, ids map[string]int) error { return g.AddEdge(ids["b"], ids["a"]) },
			code: errors.ErrCodeOccupiedSlot,
		},
		{
			name: "unknown source",
			run:  func(g *Graph, ids map[string]int) error { return g.AddEdge(99, ids["b"]) },
			code: errors.ErrCodeInvalidEdge,
		},
		{
			name: "unknown target",
			run:  func(g *Graph, ids map[string]int) error { return g.AddEdge(ids["b"], 99) },
			code: errors.ErrCodeInvalidEdge,
		},
		{
			name: "into start",
			run:  func(g *Graph, ids map[string]int) error { return g.AddEdge(ids["b"], ids["start"]) },
			code: errors.ErrCodeInvalidEdge,
		},
		{
			name: "from end",
			run:  func(g *Graph, ids map[string]int) error { return g.AddEdge(ids["end"], ids["b"]) },
			code: errors.ErrCodeInvalidEdge,
		},
		{
			name: "self loop",
			run:  func(g *Graph, ids map[string]int) error { return g.AddEdge(ids["b"], ids["b"]) },
			code: errors.ErrCodeInvalidEdge,
		},
		{
			name: "plain edge from choice",
			run:  func(g *Graph, ids map[string]int) error { return g.AddEdge(ids["choice"], ids["b"]) },
			code: errors.ErrCodeInvalidEdge,
		},
		{
			name: "choice edge from text",
			run:  func(g *Graph, ids map[string]int) error { return g.AddChoiceEdge(ids["b"], 0, ids["end"]) },
			code: errors.ErrCodeInvalidEdge,
		},
		{
			name: "unknown option",
			run:  func(g *Graph, ids map[string]int) error { return g.AddChoiceEdge(ids["choice"], 5, ids["b"]) },
			code: errors.ErrCodeInvalidEdge,
		},
		{
			name: "choice edge without option",
			run:  func(g *Graph, ids map[string]int) error { return g.AddChoiceEdge(ids["choice"], NoOption, ids["b"]) },
			code: errors.ErrCodeInvalidEdge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			ids := map[string]int{
				"start":  g.AddNode(NewStartNode()),
				"a":      g.AddNode(NewTextNode("a")),
				"b":      g.AddNode(NewTextNode("b")),
				"choice": g.AddNode(NewChoiceNode("?", "yes")),
				"end":    g.AddNode(NewEndNode()),
			}
			mustNil(t, g.AddEdge(ids["start"], ids["a"]))

			rec := &recorder{}
			g.Subscribe(rec.observe)
			before := snap(g)

			err := tt.run(g, ids)
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
			if !snap(g).equal(before) {
				t.Errorf("graph changed after failed call: %+v -> %+v", before, snap(g))
			}
			if len(rec.events) != 0 {
				t.Errorf("events emitted on failure: %v", rec.kinds())
			}
		})
	}
}

func TestChoiceOptionSlotOccupied(t *testing.T) {
	g := New()
	g.AddNode(NewStartNode())
	g.AddNode(NewTextNode(""))
	choice := g.AddNode(NewChoiceNode("pick", "first", "second"))
	g.AddNode(NewTextNode(""))
	five := g.AddNode(NewTextNode("five"))
	six := g.AddNode(NewTextNode("six"))
	if choice != 3 || five != 5 || six != 6 {
		t.Fatalf("ids = %d,%d,%d, want 3,5,6", choice, five, six)
	}

	mustNil(t, g.AddChoiceEdge(3, 0, 5))
	before := snap(g)
	err := g.AddChoiceEdge(3, 0, 6)
	if !errors.Is(err, errors.ErrCodeOccupiedSlot) {
		t.Fatalf("second AddChoiceEdge err = %v, want OCCUPIED_SLOT", err)
	}
	if !snap(g).equal(before) {
		t.Error("graph changed after rejected choice edge")
	}
	if !g.HasEdge(Edge{Source: 3, Target: 5, Option: 0}) {
		t.Error("first choice edge (3,0,5) lost")
	}

	// The other option slot is still free.
	mustNil(t, g.AddChoiceEdge(3, 1, 6))
}

func TestRemoveEdgeExactMatch(t *testing.T) {
	g := New()
	s := g.AddNode(NewStartNode())
	c := g.AddNode(NewChoiceNode("", "a", "b"))
	x := g.AddNode(NewTextNode(""))
	mustNil(t, g.AddEdge(s, c))
	mustNil(t, g.AddChoiceEdge(c, 1, x))

	if err := g.RemoveEdge(c, x); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("RemoveEdge(plain) on choice edge err = %v, want NOT_FOUND", err)
	}
	if err := g.RemoveChoiceEdge(c, 0, x); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("RemoveChoiceEdge(wrong option) err = %v, want NOT_FOUND", err)
	}

	rec := &recorder{}
	g.Subscribe(rec.observe)
	mustNil(t, g.RemoveChoiceEdge(c, 1, x))
	mustNil(t, g.RemoveEdge(s, c))

	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0", g.EdgeCount())
	}
	if got := rec.kinds(); !slices.Equal(got, []EventKind{EdgeRemoved, EdgeRemoved}) {
		t.Errorf("events = %v", got)
	}
	if rec.events[0].Edge != (Edge{Source: c, Target: x, Option: 1}) {
		t.Errorf("first event edge = %v", rec.events[0].Edge)
	}
}

func TestBranchUsesKeyedOutputs(t *testing.T) {
	g := New()
	b := g.AddNode(NewBranchNode("has_key"))
	yes := g.AddNode(NewTextNode("open"))
	no := g.AddNode(NewTextNode("locked"))

	mustNil(t, g.AddChoiceEdge(b, BranchTrue, yes))
	mustNil(t, g.AddChoiceEdge(b, BranchFalse, no))
	if err := g.AddEdge(b, yes); !errors.Is(err, errors.ErrCodeInvalidEdge) {
		t.Errorf("plain edge from branch err = %v, want INVALID_EDGE", err)
	}
}

func TestObserversSeeConsistentGraph(t *testing.T) {
	g := New()
	s := g.AddNode(NewStartNode())
	a := g.AddNode(NewTextNode(""))
	b := g.AddNode(NewTextNode(""))
	mustNil(t, g.AddEdge(s, a))
	mustNil(t, g.AddEdge(a, b))

	g.Subscribe(func(ev Event) {
		for _, e := range g.Edges() {
			if _, ok := g.Node(e.Source); !ok {
				t.Errorf("during %s: edge %s has dangling source", ev.Kind, e)
			}
			if _, ok := g.Node(e.Target); !ok {
				t.Errorf("during %s: edge %s has dangling target", ev.Kind, e)
			}
		}
		if ev.Kind == EdgeRemoved && g.HasEdge(ev.Edge) {
			t.Errorf("edge %s still present during its removal event", ev.Edge)
		}
		if ev.Kind == EdgeAdded && !g.HasEdge(ev.Edge) {
			t.Errorf("edge %s missing during its add event", ev.Edge)
		}
	})

	mustNil(t, g.RemoveNodeID(a))
}

func TestMutationInsideObserverPanics(t *testing.T) {
	g := New()
	g.Subscribe(func(ev Event) {
		if ev.Kind == NodeAdded && ev.Node.Type == NodeStart {
			g.AddNode(NewEndNode())
		}
	})

	defer func() {
		if recover() == nil {
			t.Error("reentrant mutation did not panic")
		}
	}()
	g.AddNode(NewStartNode())
}

func TestUnsubscribe(t *testing.T) {
	g := New()
	first, second := &recorder{}, &recorder{}
	unsubscribe := g.Subscribe(first.observe)
	g.Subscribe(second.observe)

	g.AddNode(NewStartNode())
	unsubscribe()
	g.AddNode(NewEndNode())

	if len(first.events) != 1 {
		t.Errorf("unsubscribed observer got %d events, want 1", len(first.events))
	}
	if len(second.events) != 2 {
		t.Errorf("observer got %d events, want 2", len(second.events))
	}
}

// TestRandomMutationsNeverDangle drives random add/remove sequences and checks
// that surviving edges only reference existing nodes and that a removal drops
// exactly the incident edges.
func TestRandomMutationsNeverDangle(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := New()
	g.AddNode(NewStartNode())

	for step := 0; step < 2000; step++ {
		nodes := g.Nodes()
		switch op := rng.Intn(4); {
		case op == 0 || len(nodes) < 3:
			types := NodeTypes()[1:]
			n, _ := DefaultFactories().New(types[rng.Intn(len(types))])
			g.AddNode(n)
		case op == 1:
			victim := nodes[rng.Intn(len(nodes))]
			id := victim.ID()
			before := g.Edges()
			mustNil(t, g.RemoveNode(victim))
			var want []Edge
			for _, e := range before {
				if e.Source != id && e.Target != id {
					want = append(want, e)
				}
			}
			if got := g.Edges(); !slices.Equal(got, want) {
				t.Fatalf("step %d: removing %d left %v, want %v", step, id, got, want)
			}
		default:
			src := nodes[rng.Intn(len(nodes))]
			dst := nodes[rng.Intn(len(nodes))]
			if outs := src.Outputs(); len(outs) > 0 {
				key := outs[rng.Intn(len(outs))]
				if key == NoOption {
					_ = g.AddEdge(src.ID(), dst.ID())
				} else {
					_ = g.AddChoiceEdge(src.ID(), key, dst.ID())
				}
			}
		}

		for _, e := range g.Edges() {
			if _, ok := g.Node(e.Source); !ok {
				t.Fatalf("step %d: edge %s has dangling source", step, e)
			}
			if _, ok := g.Node(e.Target); !ok {
				t.Fatalf("step %d: edge %s has dangling target", step, e)
			}
		}
	}
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
