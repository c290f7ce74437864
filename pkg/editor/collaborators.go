package editor

import (
	"time"

	"github.com/matzehuels/dialoguegraph/pkg/view"
)

// Animation describes a transition of a view towards a target scale and
// opacity.
type Animation struct {
	Scale    float64
	Opacity  float64
	Duration time.Duration
}

// RemoveAnimation shrinks and fades a view before it is detached.
var RemoveAnimation = Animation{Scale: 0, Opacity: 0, Duration: 250 * time.Millisecond}

// Renderer displays views.
type Renderer interface {
	// Attach starts displaying v.
	Attach(v view.Element)
	// Detach stops displaying v.
	Detach(v view.Element)
	// Animate runs a on v and calls done once it finishes.
	Animate(v view.Element, a Animation, done func())
	// After calls fn once d has elapsed.
	After(d time.Duration, fn func())
}

// Dragger makes node views draggable by pointer.
type Dragger interface {
	MakeDraggable(v *view.NodeView)
	// Dragging reports whether a node drag is in progress.
	Dragging() bool
}

// Pointer reports the current pointer position.
type Pointer interface {
	Position() view.Point
}

// Menu is a context menu the controller can add entries to.
type Menu interface {
	AddItem(label string, action func())
}

// NoopRenderer displays nothing and completes animations and deferred
// callbacks synchronously.
type NoopRenderer struct{}

func (NoopRenderer) Attach(view.Element)                              {}
func (NoopRenderer) Detach(view.Element)                              {}
func (NoopRenderer) Animate(_ view.Element, _ Animation, done func()) { done() }
func (NoopRenderer) After(_ time.Duration, fn func())                 { fn() }

type noDrag struct{}

func (noDrag) MakeDraggable(*view.NodeView) {}
func (noDrag) Dragging() bool               { return false }
