package display

import (
	"errors"
	"fmt"

	"wallclock/hal"
)

// ErrPartialFlush is returned for flush areas that do not cover the whole
// panel. The two-buffer scheme only works with full-frame redraws.
var ErrPartialFlush = errors.New("display: partial flush")

// Area is a flush rectangle with inclusive corners.
type Area struct {
	X1, Y1 int
	X2, Y2 int
}

// FullArea returns the area covering a w x h panel.
func FullArea(w, h int) Area {
	return Area{X1: 0, Y1: 0, X2: w - 1, Y2: h - 1}
}

func (a Area) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", a.X1, a.Y1, a.X2, a.Y2)
}

// Flusher hands finished frames to the panel once vsync has released them.
type Flusher struct {
	panel hal.Panel
	rv    *Rendezvous
}

// NewFlusher returns a Flusher for p synchronised through rv.
func NewFlusher(p hal.Panel, rv *Rendezvous) *Flusher {
	return &Flusher{panel: p, rv: rv}
}

// Flush waits for the next vsync and then passes buf to the panel. buf must
// be one of the panel's frame buffers holding a complete frame. Partial areas
// are rejected before the handshake.
func (f *Flusher) Flush(area Area, buf []byte) error {
	if area != FullArea(f.panel.Width(), f.panel.Height()) {
		return fmt.Errorf("flush %v: %w", area, ErrPartialFlush)
	}
	f.rv.Wait()
	// The panel takes exclusive end coordinates.
	if err := f.panel.DrawBitmap(area.X1, area.Y1, area.X2+1, area.Y2+1, buf); err != nil {
		return fmt.Errorf("flush %v: %w", area, err)
	}
	return nil
}
