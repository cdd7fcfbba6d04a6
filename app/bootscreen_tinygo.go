//go:build tinygo && bootdebug

package app

import (
	"image/color"

	"wallclock/display"
	"wallclock/hal"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
)

// bootStep records msg as the current boot step and paints it straight into
// the buffer the panel scans out after reset.
func bootStep(h hal.HAL, msg string) {
	bootDiagStart(h)
	bootDiagSetStep(msg)

	p := h.Panel()
	buf, _ := p.FrameBuffers()
	fb := display.NewFramebuffer(buf, p.Width(), p.Height())
	fb.Fill(color.RGBA{A: 0xFF})

	fg := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	tinyfont.WriteLine(fb, &freemono.Regular9pt7b, 0, 14, "Wall clock boot", fg)
	tinyfont.WriteLine(fb, &freemono.Regular9pt7b, 0, 32, msg, fg)
}
