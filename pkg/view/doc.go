// Package view holds the interactive counterparts of dialogue nodes and
// edges, and the registry that resolves between the two.
//
// Views never own domain data. A [NodeView] stores the identifier of the
// node it displays together with presentation state (position) and its
// connection points; an [EdgeView] stores the [dialogue.Edge] key and
// the two connection points it joins. Views are created and destroyed by the
// editor controller in response to graph events, never the other way round.
//
// Interaction affordances are plain callbacks (NodeView.OnClose,
// NodeView.OnMove, ConnectionPoint.OnClick) installed by the controller. A
// front-end only needs to call [NodeView.Close], [NodeView.MoveTo] and
// [ConnectionPoint.Click].
package view
