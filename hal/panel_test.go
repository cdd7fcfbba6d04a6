package hal

import (
	"errors"
	"os"
	"testing"
)

func TestMemPanelDrawBitmapSelectsOwnBuffer(t *testing.T) {
	p := newMemPanel(4, 2)
	_, b := p.FrameBuffers()
	b[0] = 0xAB

	if err := p.DrawBitmap(0, 0, 4, 2, b); err != nil {
		t.Fatalf("DrawBitmap() = %v", err)
	}
	scan := make([]byte, len(b))
	p.vsync(scan)
	if scan[0] != 0xAB {
		t.Fatalf("scan[0] = %#x, want 0xab", scan[0])
	}
}

func TestMemPanelDrawBitmapCopiesForeignBuffer(t *testing.T) {
	p := newMemPanel(2, 2)
	buf := make([]byte, p.StrideBytes()*p.Height())
	buf[len(buf)-1] = 0x7F

	if err := p.DrawBitmap(0, 0, 2, 2, buf); err != nil {
		t.Fatalf("DrawBitmap() = %v", err)
	}
	buf[len(buf)-1] = 0
	scan := make([]byte, len(buf))
	p.vsync(scan)
	if scan[len(scan)-1] != 0x7F {
		t.Fatalf("scan tail = %#x, want 0x7f", scan[len(scan)-1])
	}
}

func TestMemPanelDrawBitmapRejectsPartial(t *testing.T) {
	p := newMemPanel(4, 4)
	a, _ := p.FrameBuffers()
	if err := p.DrawBitmap(0, 0, 2, 2, a); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("DrawBitmap(partial) = %v, want os.ErrInvalid", err)
	}
}

func TestMemPanelVsyncRunsCallback(t *testing.T) {
	p := newMemPanel(1, 1)
	var got []uint64
	p.RegisterVsync(func(_ Panel, ev *VsyncEvent, user any) bool {
		got = append(got, ev.Frame)
		return user.(bool)
	}, true)

	if woke := p.vsync(nil); !woke {
		t.Fatalf("vsync() = false, want true")
	}
	p.vsync(nil)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("frames = %v, want [1 2]", got)
	}
	if p.frames() != 2 {
		t.Fatalf("frames() = %d, want 2", p.frames())
	}
}
