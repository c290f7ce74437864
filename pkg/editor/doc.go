// Package editor mediates between a live dialogue graph, its views and the
// designer's gestures.
//
// A [Controller] owns one [dialogue.Graph] per editing session. It subscribes
// to the graph's events and keeps a [view.Registry] in step: one node view per
// node, one edge view per edge. Gestures arrive as clicks on connection points
// and close requests on node views; the controller turns them into graph
// mutations and never touches views directly from a gesture. Views change only
// in response to the resulting events.
//
// # Collaborators
//
// Drawing, animation, drag handling and context menus live outside this
// package behind small interfaces:
//
//   - [Renderer]: attaches and detaches views, animates removal, schedules
//     deferred callbacks
//   - [Dragger]: makes node views draggable and reports drag state
//   - [Pointer]: current pointer position, used to place new nodes
//   - [Menu]: receives "Add <type>" entries from [Controller.RegisterMenu]
//
// All collaborators are optional. [NoopRenderer] completes animations and
// deferred callbacks immediately, which is what tests and headless tools want.
//
// # Persistence
//
//	doc := c.Save()          // graph + live view positions, clears dirty flag
//	err := c.Load(doc)       // replaces graph and views, clears dirty flag
//
// Load is all-or-nothing: when the document is rejected the current graph and
// views stay untouched.
//
// # Concurrency
//
// A Controller is not safe for concurrent use. All calls are expected on the
// goroutine that drives the user interface.
package editor
