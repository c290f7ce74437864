package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/dialoguegraph/pkg/dialogue"
	"github.com/matzehuels/dialoguegraph/pkg/errors"
)

func intPtr(v int) *int { return &v }

func sampleGraph(t *testing.T) *dialogue.Graph {
	t.Helper()
	g := dialogue.New()
	start := g.AddNode(dialogue.NewStartNode())
	choice := g.AddNode(dialogue.NewChoiceNode("Stay?", "Yes", "No"))
	yes := g.AddNode(dialogue.NewTextNode("Welcome back"))
	end := g.AddNode(dialogue.NewEndNode())
	mustNil(t, g.AddEdge(start, choice))
	mustNil(t, g.AddChoiceEdge(choice, 0, yes))
	mustNil(t, g.AddChoiceEdge(choice, 1, end))
	mustNil(t, g.AddEdge(yes, end))
	return g
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestToSerializable(t *testing.T) {
	tests := []struct {
		name      string
		build     func(t *testing.T) *dialogue.Graph
		wantNodes int
		wantEdges int
		check     func(t *testing.T, doc Document)
	}{
		{
			name:      "Empty",
			build:     func(*testing.T) *dialogue.Graph { return dialogue.New() },
			wantNodes: 0,
			wantEdges: 0,
		},
		{
			name:      "ChoiceDialogue",
			build:     sampleGraph,
			wantNodes: 4,
			wantEdges: 4,
			check: func(t *testing.T, doc Document) {
				if doc.Nodes[1].Type != "choice" {
					t.Errorf("type = %q, want choice", doc.Nodes[1].Type)
				}
				if len(doc.Nodes[1].Options) != 2 {
					t.Errorf("options = %d, want 2", len(doc.Nodes[1].Options))
				}
				if doc.Edges[0].Option != nil {
					t.Errorf("plain edge has option %d", *doc.Edges[0].Option)
				}
				if doc.Edges[1].Option == nil || *doc.Edges[1].Option != 0 {
					t.Errorf("choice edge option = %v, want 0", doc.Edges[1].Option)
				}
				if doc.Layout != nil {
					t.Errorf("layout = %v, want nil", doc.Layout)
				}
			},
		},
		{
			name: "SortsByID",
			build: func(t *testing.T) *dialogue.Graph {
				g := dialogue.New()
				mustNil(t, g.Restore(7, dialogue.NewEndNode()))
				mustNil(t, g.Restore(2, dialogue.NewStartNode()))
				mustNil(t, g.Restore(4, dialogue.NewTextNode("mid")))
				return g
			},
			wantNodes: 3,
			check: func(t *testing.T, doc Document) {
				for i, want := range []int{2, 4, 7} {
					if doc.Nodes[i].ID != want {
						t.Errorf("Nodes[%d].ID = %d, want %d", i, doc.Nodes[i].ID, want)
					}
				}
			},
		},
		{
			name: "PlainNodesOmitOptions",
			build: func(*testing.T) *dialogue.Graph {
				g := dialogue.New()
				g.AddNode(dialogue.NewFunctionNode("give_gold(5)"))
				return g
			},
			wantNodes: 1,
			check: func(t *testing.T, doc Document) {
				if doc.Nodes[0].Options != nil {
					t.Errorf("options = %v, want nil", doc.Nodes[0].Options)
				}
				if doc.Nodes[0].Text != "give_gold(5)" {
					t.Errorf("text = %q", doc.Nodes[0].Text)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := ToSerializable(tt.build(t))
			if len(doc.Nodes) != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", len(doc.Nodes), tt.wantNodes)
			}
			if len(doc.Edges) != tt.wantEdges {
				t.Errorf("edges = %d, want %d", len(doc.Edges), tt.wantEdges)
			}
			if tt.check != nil {
				tt.check(t, doc)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	g := sampleGraph(t)
	doc := ToSerializable(g)

	data, err := Marshal(doc)
	mustNil(t, err)
	decoded, err := Unmarshal(data)
	mustNil(t, err)
	restored, err := FromSerializable(decoded)
	mustNil(t, err)

	if restored.NodeCount() != g.NodeCount() {
		t.Errorf("NodeCount = %d, want %d", restored.NodeCount(), g.NodeCount())
	}
	for _, e := range g.Edges() {
		if !restored.HasEdge(e) {
			t.Errorf("missing edge %s", e)
		}
	}
	for _, n := range g.Nodes() {
		got, ok := restored.Node(n.ID())
		if !ok {
			t.Fatalf("missing node %d", n.ID())
		}
		if got.Type != n.Type || got.Text != n.Text {
			t.Errorf("node %d = %s %q, want %s %q", n.ID(), got.Type, got.Text, n.Type, n.Text)
		}
		if len(got.Options) != len(n.Options) {
			t.Errorf("node %d options = %d, want %d", n.ID(), len(got.Options), len(n.Options))
		}
	}

	// New nodes never reuse a restored identifier.
	if id := restored.AddNode(dialogue.NewEndNode()); id != 5 {
		t.Errorf("next id = %d, want 5", id)
	}
}

func TestRoundTripVerbatimText(t *testing.T) {
	long := strings.Repeat("x", 5000)
	g := dialogue.New()
	start := g.AddNode(dialogue.NewStartNode())
	text := g.AddNode(dialogue.NewTextNode("a\r\nb"))
	choice := g.AddNode(dialogue.NewChoiceNode(long, "tab\there", long))
	mustNil(t, g.AddEdge(start, text))
	mustNil(t, g.AddEdge(text, choice))

	data, err := Marshal(ToSerializable(g))
	mustNil(t, err)
	decoded, err := Unmarshal(data)
	mustNil(t, err)
	restored, err := FromSerializable(decoded)
	mustNil(t, err)

	for _, n := range g.Nodes() {
		got, _ := restored.Node(n.ID())
		if got.Text != n.Text {
			t.Errorf("node %d text = %q, want %q", n.ID(), summarizeText(got.Text), summarizeText(n.Text))
		}
		for i, o := range n.Options {
			if got.Options[i] != o {
				t.Errorf("node %d option %d = %q, want %q", n.ID(), o.ID, summarizeText(got.Options[i].Text), summarizeText(o.Text))
			}
		}
	}
}

func summarizeText(s string) string {
	if len(s) > 20 {
		return s[:20] + "..."
	}
	return s
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []Node
		wantCode errors.Code
	}{
		{"OneStart", []Node{{ID: 1, Type: "start"}, {ID: 2, Type: "end"}}, ""},
		{"NoStart", []Node{{ID: 1, Type: "text"}, {ID: 2, Type: "end"}}, errors.ErrCodeInvalidFormat},
		{"TwoStarts", []Node{{ID: 1, Type: "start"}, {ID: 2, Type: "start"}}, errors.ErrCodeInvalidFormat},
		{"Empty", nil, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{Nodes: tt.nodes}
			g, err := Validate(doc)
			if tt.wantCode == "" {
				mustNil(t, err)
				if g.NodeCount() != len(tt.nodes) {
					t.Errorf("NodeCount = %d, want %d", g.NodeCount(), len(tt.nodes))
				}
				return
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %s, want %s (%v)", got, tt.wantCode, err)
			}
			if g != nil {
				t.Error("graph returned with error")
			}

			// The plain conversion stays type-agnostic.
			if _, err := FromSerializable(doc); err != nil {
				t.Errorf("FromSerializable: %v", err)
			}
		})
	}
}

func TestFromSerializable(t *testing.T) {
	base := func() Document {
		return Document{
			Nodes: []Node{
				{ID: 1, Type: "start"},
				{ID: 2, Type: "choice", Text: "Go?", Options: []Option{{ID: 0, Text: "Yes"}}},
				{ID: 3, Type: "end"},
			},
			Edges: []Edge{{Source: 1, Target: 2}},
		}
	}

	tests := []struct {
		name     string
		mutate   func(d *Document)
		wantCode errors.Code
	}{
		{
			name:   "Valid",
			mutate: func(d *Document) {},
		},
		{
			name:     "UnknownSource",
			mutate:   func(d *Document) { d.Edges = append(d.Edges, Edge{Source: 9, Target: 3}) },
			wantCode: errors.ErrCodeUnknownReference,
		},
		{
			name:     "UnknownTarget",
			mutate:   func(d *Document) { d.Edges = append(d.Edges, Edge{Source: 2, Target: 9, Option: intPtr(0)}) },
			wantCode: errors.ErrCodeUnknownReference,
		},
		{
			name:     "UnknownOption",
			mutate:   func(d *Document) { d.Edges = append(d.Edges, Edge{Source: 2, Target: 3, Option: intPtr(4)}) },
			wantCode: errors.ErrCodeUnknownReference,
		},
		{
			name:     "UnknownType",
			mutate:   func(d *Document) { d.Nodes[2].Type = "teleport" },
			wantCode: errors.ErrCodeInvalidFormat,
		},
		{
			name:     "DuplicateID",
			mutate:   func(d *Document) { d.Nodes = append(d.Nodes, Node{ID: 3, Type: "text"}) },
			wantCode: errors.ErrCodeInvalidFormat,
		},
		{
			name:     "NonPositiveID",
			mutate:   func(d *Document) { d.Nodes = append(d.Nodes, Node{ID: 0, Type: "text"}) },
			wantCode: errors.ErrCodeInvalidFormat,
		},
		{
			name: "DuplicateOption",
			mutate: func(d *Document) {
				d.Nodes[1].Options = append(d.Nodes[1].Options, Option{ID: 0, Text: "Again"})
			},
			wantCode: errors.ErrCodeInvalidFormat,
		},
		{
			name:     "OccupiedInput",
			mutate:   func(d *Document) { d.Edges = append(d.Edges, Edge{Source: 1, Target: 2}) },
			wantCode: errors.ErrCodeInvalidFormat,
		},
		{
			name:     "PlainEdgeFromChoice",
			mutate:   func(d *Document) { d.Edges = append(d.Edges, Edge{Source: 2, Target: 3}) },
			wantCode: errors.ErrCodeInvalidFormat,
		},
		{
			name:   "RawText",
			mutate: func(d *Document) { d.Nodes[1].Text = "line\r\nbreak\ttab" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := base()
			tt.mutate(&doc)
			g, err := FromSerializable(doc)
			if tt.wantCode == "" {
				mustNil(t, err)
				if g.NodeCount() != len(doc.Nodes) {
					t.Errorf("NodeCount = %d, want %d", g.NodeCount(), len(doc.Nodes))
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s error", tt.wantCode)
			}
			if g != nil {
				t.Errorf("graph = %v, want nil on error", g)
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %s, want %s (%v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestFromSerializableBranchDefaults(t *testing.T) {
	doc := Document{
		Nodes: []Node{
			{ID: 1, Type: "branch", Text: "has_key"},
			{ID: 2, Type: "end"},
			{ID: 3, Type: "end"},
		},
		Edges: []Edge{
			{Source: 1, Target: 2, Option: intPtr(dialogue.BranchTrue)},
			{Source: 1, Target: 3, Option: intPtr(dialogue.BranchFalse)},
		},
	}
	g, err := FromSerializable(doc)
	mustNil(t, err)
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", g.EdgeCount())
	}
}

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "Valid", input: `{"nodes":[{"id":1,"type":"start"}],"edges":[]}`},
		{name: "WithLayout", input: `{"nodes":[],"edges":[],"layout":{"1":{"x":5,"y":6}}}`},
		{name: "Malformed", input: `{"nodes":`, wantErr: true},
		{name: "WrongShape", input: `{"nodes":"oops"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("code = %s, want INVALID_FORMAT", errors.GetCode(err))
			}
		})
	}
}

func TestLayoutPreserved(t *testing.T) {
	doc := ToSerializable(sampleGraph(t))
	doc.Layout = map[int]Position{1: {X: 50, Y: 200}, 2: {X: 350, Y: 200}}

	var buf bytes.Buffer
	mustNil(t, Write(doc, &buf))
	got, err := Read(&buf)
	mustNil(t, err)

	if p := got.PositionOf(2, Position{}); p != (Position{X: 350, Y: 200}) {
		t.Errorf("PositionOf(2) = %v, want {350 200}", p)
	}
	fallback := Position{X: 100, Y: 100}
	if p := got.PositionOf(4, fallback); p != fallback {
		t.Errorf("PositionOf(4) = %v, want fallback %v", p, fallback)
	}
}

func TestWriteOmitsPlainOption(t *testing.T) {
	doc := Document{
		Nodes: []Node{{ID: 1, Type: "start"}, {ID: 2, Type: "end"}},
		Edges: []Edge{{Source: 1, Target: 2}},
	}
	data, err := Marshal(doc)
	mustNil(t, err)
	if strings.Contains(string(data), `"option"`) {
		t.Errorf("plain edge serialized an option key:\n%s", data)
	}
	if strings.Contains(string(data), `"layout"`) {
		t.Errorf("empty layout serialized:\n%s", data)
	}
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intro.dialogue.json")
	doc := ToSerializable(sampleGraph(t))

	mustNil(t, WriteFile(doc, path))
	got, err := ReadFile(path)
	mustNil(t, err)
	if len(got.Nodes) != 4 || len(got.Edges) != 4 {
		t.Errorf("read %d nodes %d edges, want 4 and 4", len(got.Nodes), len(got.Edges))
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	mustNil(t, os.WriteFile(bad, []byte("not json"), 0o644))
	if _, err := ReadFile(bad); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ReadFile(bad) = %v, want INVALID_FORMAT", err)
	}
}
