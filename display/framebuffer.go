package display

import (
	"errors"
	"image/color"

	"wallclock/hal"

	"tinygo.org/x/drivers"
)

var errNoRotation = errors.New("display: rotation not supported")

// Framebuffer draws RGB565 pixels into a byte slice. It satisfies
// drivers.Displayer and the wider interface tinyterm needs, so fonts and the
// terminal can draw straight into a panel buffer or an off-screen canvas.
type Framebuffer struct {
	buf    []byte
	w, h   int16
	stride int
}

var _ drivers.Displayer = (*Framebuffer)(nil)

// NewFramebuffer wraps buf, which must hold at least w*h pixels.
func NewFramebuffer(buf []byte, w, h int) *Framebuffer {
	if len(buf) < w*h*2 {
		panic("display: framebuffer too small")
	}
	return &Framebuffer{buf: buf, w: int16(w), h: int16(h), stride: w * 2}
}

// NewCanvas allocates an off-screen framebuffer.
func NewCanvas(w, h int) *Framebuffer {
	return NewFramebuffer(make([]byte, w*h*2), w, h)
}

// Bytes returns the underlying pixel buffer.
func (f *Framebuffer) Bytes() []byte { return f.buf }

func (f *Framebuffer) Size() (x, y int16) { return f.w, f.h }

func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return
	}
	f.put(int(x), int(y), hal.RGB565(c.R, c.G, c.B))
}

// Display is a no-op: pixels land in the buffer immediately.
func (f *Framebuffer) Display() error { return nil }

func (f *Framebuffer) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+width, f.w), min(y+height, f.h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}
	p := hal.RGB565(c.R, c.G, c.B)
	lo, hi := byte(p), byte(p>>8)
	for yy := int(y0); yy < int(y1); yy++ {
		row := f.buf[yy*f.stride:]
		for xx := int(x0); xx < int(x1); xx++ {
			row[xx*2] = lo
			row[xx*2+1] = hi
		}
	}
	return nil
}

// Fill paints the whole buffer.
func (f *Framebuffer) Fill(c color.RGBA) {
	_ = f.FillRectangle(0, 0, f.w, f.h, c)
}

// ScrollUp shifts the contents up by lines rows and clears the exposed
// bottom rows.
func (f *Framebuffer) ScrollUp(lines int16, bg color.RGBA) error {
	if lines <= 0 {
		return nil
	}
	if lines >= f.h {
		f.Fill(bg)
		return nil
	}
	n, end := int(lines)*f.stride, int(f.h)*f.stride
	copy(f.buf[:end-n], f.buf[n:end])
	return f.FillRectangle(0, f.h-lines, f.w, lines, bg)
}

// SetScroll is ignored; terminals drawing here must use software scroll.
func (f *Framebuffer) SetScroll(line int16) {}

func (f *Framebuffer) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return errNoRotation
	}
	return nil
}

// Pixel returns the RGB565 value at (x, y), or 0 outside the buffer.
func (f *Framebuffer) Pixel(x, y int) uint16 {
	if x < 0 || y < 0 || x >= int(f.w) || y >= int(f.h) {
		return 0
	}
	i := y*f.stride + x*2
	return uint16(f.buf[i]) | uint16(f.buf[i+1])<<8
}

// Blit copies src into f with its top-left corner at (x, y), clipping to f.
func (f *Framebuffer) Blit(x, y int, src *Framebuffer) {
	for sy := 0; sy < int(src.h); sy++ {
		dy := y + sy
		if dy < 0 || dy >= int(f.h) {
			continue
		}
		sx0, dx0 := 0, x
		if dx0 < 0 {
			sx0 = -dx0
			dx0 = 0
		}
		n := min(int(src.w)-sx0, int(f.w)-dx0)
		if n <= 0 {
			continue
		}
		copy(f.buf[dy*f.stride+dx0*2:dy*f.stride+(dx0+n)*2],
			src.buf[sy*src.stride+sx0*2:])
	}
}

func (f *Framebuffer) put(x, y int, p uint16) {
	i := y*f.stride + x*2
	f.buf[i] = byte(p)
	f.buf[i+1] = byte(p >> 8)
}
