package hal

import (
	"fmt"
	"os"
	"sync"
)

// memPanel is a double-buffered panel whose frame buffers live in RAM.
//
// Scan-out is emulated by vsync, which latches the front buffer and then
// runs the registered callback the way the RGB peripheral interrupt would.
type memPanel struct {
	mu     sync.Mutex
	width  int
	height int
	stride int
	fbs    [2][]byte
	front  int

	ev   VsyncEvent
	fn   VsyncFunc
	user any
}

func newMemPanel(width, height int) *memPanel {
	stride := width * 2
	return &memPanel{
		width:  width,
		height: height,
		stride: stride,
		fbs: [2][]byte{
			make([]byte, stride*height),
			make([]byte, stride*height),
		},
	}
}

func (p *memPanel) Width() int          { return p.width }
func (p *memPanel) Height() int         { return p.height }
func (p *memPanel) Format() PixelFormat { return PixelFormatRGB565 }
func (p *memPanel) StrideBytes() int    { return p.stride }

func (p *memPanel) FrameBuffers() (a, b []byte) { return p.fbs[0], p.fbs[1] }

func (p *memPanel) RegisterVsync(fn VsyncFunc, user any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fn = fn
	p.user = user
}

func (p *memPanel) DrawBitmap(x1, y1, x2, y2 int, buf []byte) error {
	if x1 != 0 || y1 != 0 || x2 != p.width || y2 != p.height {
		return fmt.Errorf("draw bitmap (%d,%d)-(%d,%d): %w", x1, y1, x2, y2, os.ErrInvalid)
	}
	if len(buf) < p.stride*p.height {
		return fmt.Errorf("draw bitmap: buffer %d bytes, want %d: %w", len(buf), p.stride*p.height, os.ErrInvalid)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.fbs {
		if &p.fbs[i][0] == &buf[0] {
			p.front = i
			return nil
		}
	}
	back := 1 - p.front
	copy(p.fbs[back], buf)
	p.front = back
	return nil
}

// vsync emulates one vertical-sync interrupt. The front buffer is copied into
// scan (if non-nil) before the callback runs, so the renderer released by the
// callback can never race the scan-out copy.
func (p *memPanel) vsync(scan []byte) bool {
	p.mu.Lock()
	if scan != nil {
		copy(scan, p.fbs[p.front])
	}
	p.ev.Frame++
	fn, user := p.fn, p.user
	p.mu.Unlock()

	if fn == nil {
		return false
	}
	return fn(p, &p.ev, user)
}

// frames returns the number of vsync events emitted so far.
func (p *memPanel) frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ev.Frame
}
