package ui

import "testing"

func TestDispatchCallsOnlyRegisteredHandler(t *testing.T) {
	var d Dispatcher
	var got []string
	d.Handle(WidgetSettingsButton, EventClicked, func(ev Event) { got = append(got, "settings-clicked") })
	d.Handle(WidgetSettingsButton, EventPressed, func(ev Event) { got = append(got, "settings-pressed") })
	d.Handle(WidgetPopupClose, EventClicked, func(ev Event) { got = append(got, "popup-clicked") })

	if !d.Dispatch(Event{Widget: WidgetSettingsButton, Kind: EventClicked}) {
		t.Fatalf("Dispatch() = false for registered pair")
	}
	if d.Dispatch(Event{Widget: WidgetSettingsButton, Kind: EventReleased}) {
		t.Fatalf("Dispatch() = true for unregistered kind")
	}
	if d.Dispatch(Event{Widget: WidgetClock, Kind: EventClicked}) {
		t.Fatalf("Dispatch() = true for unregistered widget")
	}
	if len(got) != 1 || got[0] != "settings-clicked" {
		t.Fatalf("handlers called = %v, want [settings-clicked]", got)
	}
}

func TestHandleReplaces(t *testing.T) {
	var d Dispatcher
	n := 0
	d.Handle(WidgetClock, EventClicked, func(Event) { n += 1 })
	d.Handle(WidgetClock, EventClicked, func(Event) { n += 10 })
	d.Dispatch(Event{Widget: WidgetClock, Kind: EventClicked})
	if n != 10 {
		t.Fatalf("n = %d, want 10", n)
	}
}

func TestDispatchOutOfRange(t *testing.T) {
	var d Dispatcher
	if d.Dispatch(Event{Widget: widgetCount, Kind: EventClicked}) {
		t.Fatalf("Dispatch(out of range widget) = true")
	}
}

func TestNetworkRowWidgets(t *testing.T) {
	for i := 0; i < MaxNetworkRows; i++ {
		w := NetworkRowWidget(i)
		if got, ok := w.NetworkRow(); !ok || got != i {
			t.Fatalf("NetworkRowWidget(%d).NetworkRow() = %d, %v", i, got, ok)
		}
	}
	if NetworkRowWidget(MaxNetworkRows) != WidgetNone {
		t.Fatalf("NetworkRowWidget(MaxNetworkRows) != WidgetNone")
	}
	if _, ok := WidgetClock.NetworkRow(); ok {
		t.Fatalf("WidgetClock.NetworkRow() ok")
	}
	if got := NetworkRowWidget(2).String(); got != "network-row-2" {
		t.Fatalf("String() = %q", got)
	}
	if got := WidgetSettingsButton.String(); got != "settings" {
		t.Fatalf("String() = %q", got)
	}
}

func TestKeyWidgets(t *testing.T) {
	for i := 0; i < KeyCount; i++ {
		w := KeyWidget(i)
		r, ok := w.Key()
		if !ok || r != rune(keyLayout[i]) {
			t.Fatalf("KeyWidget(%d).Key() = %q, %v", i, r, ok)
		}
		if KeyWidgetFor(r) != w {
			t.Fatalf("KeyWidgetFor(%q) = %v, want %v", r, KeyWidgetFor(r), w)
		}
		if _, ok := w.NetworkRow(); ok {
			t.Fatalf("%v.NetworkRow() ok", w)
		}
	}
	if KeyWidget(KeyCount) != WidgetNone || KeyWidgetFor('#') != WidgetNone {
		t.Fatalf("out of range key did not map to WidgetNone")
	}
	if _, ok := NetworkRowWidget(MaxNetworkRows - 1).Key(); ok {
		t.Fatalf("last network row reports a key")
	}
	if got := KeyWidgetFor('q').String(); got != "key-q" {
		t.Fatalf("String() = %q", got)
	}
	if got := WidgetEntryConnect.String(); got != "entry-connect" {
		t.Fatalf("String() = %q", got)
	}
}
