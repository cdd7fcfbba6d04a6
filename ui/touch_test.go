package ui

import (
	"testing"

	"tinygo.org/x/drivers/touch"
)

type fakePointer struct {
	pt touch.Point
}

func (p *fakePointer) ReadTouchPoint() touch.Point { return p.pt }

// hitLeft makes x < 100 widget A, 100 <= x < 200 widget B.
func hitLeft(x, y int) WidgetID {
	switch {
	case x < 100:
		return WidgetSettingsButton
	case x < 200:
		return WidgetClock
	default:
		return WidgetNone
	}
}

func collect(in *TouchInput) []Event {
	var out []Event
	in.Poll(func(ev Event) { out = append(out, ev) })
	return out
}

func TestTouchPressReleaseClicks(t *testing.T) {
	p := &fakePointer{}
	in := NewTouchInput(p, hitLeft)

	p.pt = touch.Point{X: 10, Y: 10, Z: 1}
	evs := collect(in)
	if len(evs) != 1 || evs[0].Kind != EventPressed || evs[0].Widget != WidgetSettingsButton {
		t.Fatalf("press events = %+v", evs)
	}
	// Holding produces nothing new.
	p.pt = touch.Point{X: 12, Y: 11, Z: 1}
	if evs := collect(in); len(evs) != 0 {
		t.Fatalf("hold events = %+v, want none", evs)
	}

	p.pt = touch.Point{}
	evs = collect(in)
	if len(evs) != 2 || evs[0].Kind != EventReleased || evs[1].Kind != EventClicked {
		t.Fatalf("release events = %+v, want released+clicked", evs)
	}
	if evs[1].X != 12 || evs[1].Y != 11 {
		t.Fatalf("click at (%d,%d), want last sample (12,11)", evs[1].X, evs[1].Y)
	}
	if in.Down() {
		t.Fatalf("Down() = true after release")
	}
}

func TestTouchDragOffCancelsClick(t *testing.T) {
	p := &fakePointer{}
	in := NewTouchInput(p, hitLeft)

	p.pt = touch.Point{X: 10, Y: 0, Z: 1}
	collect(in)
	p.pt = touch.Point{X: 150, Y: 0, Z: 1}
	collect(in)
	p.pt = touch.Point{}
	evs := collect(in)
	if len(evs) != 1 || evs[0].Kind != EventReleased || evs[0].Widget != WidgetSettingsButton {
		t.Fatalf("events = %+v, want released on the pressed widget only", evs)
	}
}

func TestTouchOutsideWidgetsIsSilent(t *testing.T) {
	p := &fakePointer{pt: touch.Point{X: 500, Y: 0, Z: 1}}
	in := NewTouchInput(p, hitLeft)
	if evs := collect(in); len(evs) != 0 {
		t.Fatalf("press events = %+v", evs)
	}
	p.pt = touch.Point{}
	if evs := collect(in); len(evs) != 0 {
		t.Fatalf("release events = %+v", evs)
	}
}
