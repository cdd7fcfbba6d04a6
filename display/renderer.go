package display

import "wallclock/hal"

// DrawFunc paints a complete frame.
type DrawFunc func(fb *Framebuffer)

// Renderer draws full frames into whichever panel buffer is not being
// scanned out and presents them through a Flusher.
type Renderer struct {
	flusher *Flusher
	fbs     [2]*Framebuffer
	area    Area
	back    int
	frames  uint64
}

// NewRenderer returns a Renderer over both of p's frame buffers. The panel
// scans out buffer 0 after reset, so drawing starts in buffer 1.
func NewRenderer(p hal.Panel, f *Flusher) *Renderer {
	a, b := p.FrameBuffers()
	w, h := p.Width(), p.Height()
	return &Renderer{
		flusher: f,
		fbs:     [2]*Framebuffer{NewFramebuffer(a, w, h), NewFramebuffer(b, w, h)},
		area:    FullArea(w, h),
		back:    1,
	}
}

// Render runs draw over the back buffer, blocks until vsync releases it and
// swaps buffers. On error the buffers are not swapped.
func (r *Renderer) Render(draw DrawFunc) error {
	fb := r.fbs[r.back]
	draw(fb)
	if err := r.flusher.Flush(r.area, fb.buf); err != nil {
		return err
	}
	r.back ^= 1
	r.frames++
	return nil
}

// Frames returns the number of frames presented.
func (r *Renderer) Frames() uint64 { return r.frames }

// Back returns the buffer the next Render will draw into.
func (r *Renderer) Back() *Framebuffer { return r.fbs[r.back] }
