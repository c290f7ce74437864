// Package dialogue provides the observable graph model behind the dialogue
// editor: typed nodes, directed edges between their connection slots, and
// synchronous change notifications.
//
// # Overview
//
// A dialogue is a directed graph whose vertices are typed [Node]s (start, end,
// text, choice, branch, function, sub-dialogue) and whose edges describe
// narrative flow. The [Graph] is the single source of truth for a dialogue:
// views and controllers derive their state from it and change it only
// through its mutation methods.
//
// # Slots
//
// Every node exposes connection slots determined by its [NodeType]:
//
//   - START, TEXT, FUNCTION and SUBDIALOGUE have a single plain output.
//   - CHOICE has one output per [Option], keyed by the option ID.
//   - BRANCH has two keyed outputs, [BranchTrue] and [BranchFalse].
//   - END has no output.
//   - Every type except START has exactly one input.
//
// A slot carries at most one edge. Plain outputs connect with
// [Graph.AddEdge]; keyed outputs connect with [Graph.AddChoiceEdge].
//
// # Basic Usage
//
//	g := dialogue.New()
//	start := g.AddNode(dialogue.NewStartNode())
//	hello := g.AddNode(dialogue.NewTextNode("Hello, traveller."))
//	if err := g.AddEdge(start, hello); err != nil {
//	    return err
//	}
//
// # Notifications
//
// [Graph.Subscribe] registers an [Observer] that receives one [Event] per
// granular change (node added/removed, edge added/removed) before the
// mutating call returns. Removing a node first removes each incident edge,
// emitting one EdgeRemoved event per edge, then emits NodeRemoved. Observers
// always see a consistent graph.
//
// Observers must not mutate the graph from inside a callback; doing so panics.
// Issue new mutations from top-level code instead.
//
// # Identity
//
// Node identifiers are positive integers assigned by [Graph.AddNode] in
// increasing order. [Graph.Restore] inserts a node under an explicit
// identifier when rebuilding a saved dialogue.
//
// # Concurrency
//
// A Graph is not safe for concurrent use. The editor drives it from a single
// interaction goroutine.
package dialogue
