// Package pkg provides the libraries behind dialoguegraph, a node-graph
// editor for branching game dialogue.
//
// # Overview
//
// A dialogue is a directed graph of typed nodes (START, TEXT, CHOICE, END
// and friends) whose edges leave a node's output slots and enter its single
// input slot. The pkg directory is organized into four areas:
//
//  1. Model: [dialogue] holds the graph and its change events, [view] the
//     visual counterparts of nodes, slots and edges.
//  2. Editing: [editor] turns user gestures into graph mutations and keeps
//     the views in step with the graph's events.
//  3. Persistence: [graph] is the JSON document format, [session] stores
//     named documents in files, Redis, MongoDB or PostgreSQL, [cache]
//     holds rendered exports.
//  4. Output: [pipeline] and [render] turn documents into DOT, SVG, PDF
//     and PNG; [server] serves all of it over HTTP.
//
// # Data Flow
//
//	user gesture (TUI or HTTP)
//	         ↓
//	    [editor] Controller (policy checks)
//	         ↓
//	    [dialogue] Graph ──events──▶ [view] Registry
//	         ↓
//	    [graph] Document (JSON) ──▶ [session] Store
//	         ↓
//	    [pipeline] Runner ──▶ DOT / SVG / PDF / PNG
//
// # Quick Start
//
//	ctrl := editor.NewSession(editor.Options{})
//	defer ctrl.Close()
//
//	id, _ := ctrl.AddNode(dialogue.NodeChoice)
//	_, _ = ctrl.AddChoiceOption(id, "Accept the quest")
//
//	doc := ctrl.Save()
//	_ = graph.WriteFile(doc, "intro.json")
//
// Errors throughout carry a machine-readable code from [errors]; hooks in
// [observability] report mutations, store operations and exports.
package pkg
