package display

import (
	"sync"

	"wallclock/hal"
)

type drawCall struct {
	x1, y1, x2, y2 int
	buf            []byte
}

// fakePanel records DrawBitmap calls. Vsync is driven by the test.
type fakePanel struct {
	mu    sync.Mutex
	w, h  int
	fbs   [2][]byte
	draws []drawCall
	fn    hal.VsyncFunc
	user  any
	ev    hal.VsyncEvent
}

func newFakePanel(w, h int) *fakePanel {
	return &fakePanel{
		w: w, h: h,
		fbs: [2][]byte{make([]byte, w*h*2), make([]byte, w*h*2)},
	}
}

func (p *fakePanel) Width() int                  { return p.w }
func (p *fakePanel) Height() int                 { return p.h }
func (p *fakePanel) Format() hal.PixelFormat     { return hal.PixelFormatRGB565 }
func (p *fakePanel) StrideBytes() int            { return p.w * 2 }
func (p *fakePanel) FrameBuffers() (a, b []byte) { return p.fbs[0], p.fbs[1] }

func (p *fakePanel) RegisterVsync(fn hal.VsyncFunc, user any) {
	p.fn, p.user = fn, user
}

func (p *fakePanel) DrawBitmap(x1, y1, x2, y2 int, buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draws = append(p.draws, drawCall{x1, y1, x2, y2, buf})
	return nil
}

func (p *fakePanel) vsync() bool {
	p.ev.Frame++
	if p.fn == nil {
		return false
	}
	return p.fn(p, &p.ev, p.user)
}

func (p *fakePanel) drawCalls() []drawCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]drawCall(nil), p.draws...)
}
