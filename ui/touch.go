package ui

import "tinygo.org/x/drivers/touch"

// TouchInput turns raw touch samples into widget events. A press and a
// release on the same widget produce a click.
type TouchInput struct {
	ptr touch.Pointer
	hit func(x, y int) WidgetID

	down    bool
	pressed WidgetID
	x, y    int
}

// NewTouchInput returns a TouchInput reading ptr and hit testing with hit.
func NewTouchInput(ptr touch.Pointer, hit func(x, y int) WidgetID) *TouchInput {
	return &TouchInput{ptr: ptr, hit: hit}
}

// Poll samples the pointer once and passes any resulting events to emit.
func (t *TouchInput) Poll(emit func(Event)) {
	pt := t.ptr.ReadTouchPoint()
	if pt.Z > 0 {
		t.x, t.y = pt.X, pt.Y
		if t.down {
			return
		}
		t.down = true
		t.pressed = t.hit(t.x, t.y)
		if t.pressed != WidgetNone {
			emit(Event{Widget: t.pressed, Kind: EventPressed, X: t.x, Y: t.y})
		}
		return
	}
	if !t.down {
		return
	}
	t.down = false
	if t.pressed == WidgetNone {
		return
	}
	// The release sample carries no position; use the last one seen.
	emit(Event{Widget: t.pressed, Kind: EventReleased, X: t.x, Y: t.y})
	if t.hit(t.x, t.y) == t.pressed {
		emit(Event{Widget: t.pressed, Kind: EventClicked, X: t.x, Y: t.y})
	}
	t.pressed = WidgetNone
}

// Down reports whether the panel is currently touched.
func (t *TouchInput) Down() bool { return t.down }
