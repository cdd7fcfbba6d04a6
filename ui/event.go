// Package ui is the clock's widget layer: a fixed set of widgets, a touch
// event source and an explicit (widget, kind) handler table.
//
// Everything here runs in the scheduling-pass context; nothing is locked.
package ui

import "fmt"

// EventKind tags a touch event.
type EventKind uint8

const (
	EventNone EventKind = iota
	EventPressed
	EventReleased
	EventClicked

	eventKindCount
)

func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "none"
	case EventPressed:
		return "pressed"
	case EventReleased:
		return "released"
	case EventClicked:
		return "clicked"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// MaxNetworkRows is the number of network rows in the settings panel.
const MaxNetworkRows = 4

// WidgetID names a widget.
type WidgetID uint8

const (
	WidgetNone WidgetID = iota
	WidgetClock
	WidgetSettingsButton
	WidgetSettingsClose
	WidgetToggle24h
	WidgetToggleSeconds
	WidgetToggleDay
	WidgetToggleDate
	WidgetPopupClose
	WidgetEntryShift
	WidgetEntryDelete
	WidgetEntryCancel
	WidgetEntryConnect
	WidgetNetworkRow0

	// WidgetKey0 is the first on-screen key; KeyCount keys follow.
	WidgetKey0  = WidgetNetworkRow0 + MaxNetworkRows
	widgetCount = WidgetKey0 + WidgetID(KeyCount)
)

// keyLayout is the password keyboard, keyColumns keys per row.
const (
	keyLayout  = "1234567890qwertyuiopasdfghjkl-zxcvbnm_.@"
	keyColumns = 10

	// KeyCount is the number of on-screen keys.
	KeyCount = len(keyLayout)
)

var widgetNames = [...]string{
	WidgetNone:           "none",
	WidgetClock:          "clock",
	WidgetSettingsButton: "settings",
	WidgetSettingsClose:  "settings-close",
	WidgetToggle24h:      "toggle-24h",
	WidgetToggleSeconds:  "toggle-seconds",
	WidgetToggleDay:      "toggle-day",
	WidgetToggleDate:     "toggle-date",
	WidgetPopupClose:     "popup-close",
	WidgetEntryShift:     "entry-shift",
	WidgetEntryDelete:    "entry-delete",
	WidgetEntryCancel:    "entry-cancel",
	WidgetEntryConnect:   "entry-connect",
}

func (w WidgetID) String() string {
	if i, ok := w.NetworkRow(); ok {
		return fmt.Sprintf("network-row-%d", i)
	}
	if r, ok := w.Key(); ok {
		return fmt.Sprintf("key-%c", r)
	}
	if int(w) < len(widgetNames) {
		return widgetNames[w]
	}
	return fmt.Sprintf("WidgetID(%d)", w)
}

// NetworkRowWidget returns the widget for settings row i.
func NetworkRowWidget(i int) WidgetID {
	if i < 0 || i >= MaxNetworkRows {
		return WidgetNone
	}
	return WidgetNetworkRow0 + WidgetID(i)
}

// NetworkRow returns the row index of a network row widget.
func (w WidgetID) NetworkRow() (int, bool) {
	if w >= WidgetNetworkRow0 && w < WidgetKey0 {
		return int(w - WidgetNetworkRow0), true
	}
	return 0, false
}

// KeyWidget returns the widget for key i of the keyboard.
func KeyWidget(i int) WidgetID {
	if i < 0 || i >= KeyCount {
		return WidgetNone
	}
	return WidgetKey0 + WidgetID(i)
}

// KeyWidgetFor returns the key that types r unshifted, or WidgetNone.
func KeyWidgetFor(r rune) WidgetID {
	for i, k := range keyLayout {
		if k == r {
			return KeyWidget(i)
		}
	}
	return WidgetNone
}

// Key returns the unshifted rune of a key widget.
func (w WidgetID) Key() (rune, bool) {
	if w >= WidgetKey0 && w < widgetCount {
		return rune(keyLayout[w-WidgetKey0]), true
	}
	return 0, false
}

// Event is one touch event delivered to a widget.
type Event struct {
	Widget WidgetID
	Kind   EventKind
	X, Y   int
}

// Handler reacts to an event.
type Handler func(Event)

// Dispatcher routes events through a table indexed by widget and kind.
type Dispatcher struct {
	table [widgetCount][eventKindCount]Handler
}

// Handle installs h for (w, k), replacing any previous handler.
func (d *Dispatcher) Handle(w WidgetID, k EventKind, h Handler) {
	if w >= widgetCount || k >= eventKindCount {
		panic(fmt.Sprintf("ui: no slot for %v/%v", w, k))
	}
	d.table[w][k] = h
}

// Dispatch calls the handler registered for the event, if any, and reports
// whether there was one.
func (d *Dispatcher) Dispatch(ev Event) bool {
	if ev.Widget >= widgetCount || ev.Kind >= eventKindCount {
		return false
	}
	h := d.table[ev.Widget][ev.Kind]
	if h == nil {
		return false
	}
	h(ev)
	return true
}
