package display

import (
	"errors"
	"testing"
	"time"
)

func TestFlushRejectsPartialArea(t *testing.T) {
	p := newFakePanel(4, 3)
	rv := NewRendezvous()
	f := NewFlusher(p, rv)

	for _, a := range []Area{
		{0, 0, 1, 1},
		{1, 0, 3, 2},
		{0, 0, 4, 3},
	} {
		if err := f.Flush(a, p.fbs[1]); !errors.Is(err, ErrPartialFlush) {
			t.Fatalf("Flush(%v) = %v, want ErrPartialFlush", a, err)
		}
	}
	if rv.pending() {
		t.Fatalf("partial flush touched the handshake")
	}
	if len(p.drawCalls()) != 0 {
		t.Fatalf("partial flush reached the panel")
	}
}

func TestFlushDrawsAfterVsync(t *testing.T) {
	p := newFakePanel(4, 3)
	rv := NewRendezvous()
	p.RegisterVsync(rv.VsyncHandler(), nil)
	f := NewFlusher(p, rv)

	errc := make(chan error, 1)
	go func() { errc <- f.Flush(FullArea(4, 3), p.fbs[1]) }()

	waitFor(t, "render-ready", rv.pending)
	if len(p.drawCalls()) != 0 {
		t.Fatalf("DrawBitmap called before vsync")
	}
	p.vsync()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Flush() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Flush() did not return after vsync")
	}

	calls := p.drawCalls()
	if len(calls) != 1 {
		t.Fatalf("DrawBitmap calls = %d, want 1", len(calls))
	}
	c := calls[0]
	if c.x1 != 0 || c.y1 != 0 || c.x2 != 4 || c.y2 != 3 {
		t.Fatalf("DrawBitmap(%d,%d,%d,%d), want (0,0,4,3)", c.x1, c.y1, c.x2, c.y2)
	}
	if &c.buf[0] != &p.fbs[1][0] {
		t.Fatalf("DrawBitmap got a copy, want the panel buffer")
	}
}
