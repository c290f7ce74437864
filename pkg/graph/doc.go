// Package graph provides the persistence format for dialogue graphs.
//
// This package sits at the serialization boundary between the live
// [dialogue.Graph] and external storage (JSON files, the HTTP API, session
// stores). It is a pure conversion layer: it never touches views.
//
// # Format
//
// A [Document] holds node records, edge records and a separate layout map
// from node ID to a 2D position. Layout is view-only metadata; the editor
// fills it from live view positions on save and falls back to a fixed
// position for nodes missing from it on load.
//
//	{
//	  "nodes": [
//	    {"id": 1, "type": "start"},
//	    {"id": 2, "type": "choice", "text": "Stay?", "options": [{"id": 0, "text": "Yes"}]}
//	  ],
//	  "edges": [
//	    {"source": 1, "target": 2},
//	    {"source": 2, "target": 3, "option": 0}
//	  ],
//	  "layout": {"1": {"x": 50, "y": 200}}
//	}
//
// # Conversion
//
//	doc := graph.ToSerializable(g)          // Graph → Document (no layout)
//	g, err := graph.FromSerializable(doc)   // Document → Graph, IDs preserved
//
// FromSerializable is all-or-nothing: it returns either a complete graph or
// an error, never a graph with dangling references. References to unknown
// nodes or options yield UNKNOWN_REFERENCE; anything else that cannot be
// rebuilt yields INVALID_FORMAT. Node text is restored verbatim.
//
// FromSerializable accepts any mix of node types. [Validate] also requires
// exactly one START node and is what the editor, the HTTP API and the store
// commands load through.
//
// # Files
//
//	doc, err := graph.ReadFile("intro.dialogue.json")
//	err := graph.WriteFile(doc, "intro.dialogue.json")
package graph
