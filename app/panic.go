package app

import (
	"fmt"
	"image/color"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"wallclock/display"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
)

var (
	crashBackground = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	crashForeground = color.RGBA{A: 0xFF}
)

const (
	crashFontHeight = 18
	crashFontOffset = 13
)

// crash logs a recovered panic with its stack and replaces the screen with
// it. The returned error ends Run.
func (s *System) crash(v any) error {
	lines := crashLines(v, debug.Stack())
	l := s.h.Logger()
	for _, line := range lines {
		l.WriteLineString(line)
	}
	if err := s.renderer.Render(func(fb *display.Framebuffer) { drawCrash(fb, lines) }); err != nil {
		l.WriteLineString("crash screen: " + err.Error())
	}
	return fmt.Errorf("app: panic in timer callback: %v", v)
}

func crashLines(v any, stack []byte) []string {
	lines := []string{
		"Wall clock panic:",
		fmt.Sprintf("panic: %v", v),
	}
	if len(stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	lines = append(lines, "stack:")
	for _, line := range strings.Split(string(stack), "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, strings.ReplaceAll(line, "\t", "  "))
	}
	return lines
}

func drawCrash(fb *display.Framebuffer, lines []string) {
	fb.Fill(crashBackground)

	font := &freemono.Regular9pt7b
	_, outbox := tinyfont.LineWidth(font, "0")
	fontWidth := int16(outbox)
	if fontWidth <= 0 {
		return
	}
	maxW, maxH := fb.Size()
	cols := maxW / fontWidth
	if cols <= 0 {
		cols = 1
	}

	y := int16(0)
	for _, line := range lines {
		for len(line) > 0 {
			if y+crashFontHeight > maxH {
				return
			}
			chunk, rest := takeRunes(line, cols)
			drawTextLine(fb, font, fontWidth, 0, y, chunk, crashForeground)
			y += crashFontHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
}

// drawTextLine lays s out on a fixed character grid with its top at y0.
func drawTextLine(fb *display.Framebuffer, font tinyfont.Fonter, fontWidth, x0, y0 int16, s string, fg color.RGBA) {
	x := x0
	for _, r := range s {
		tinyfont.DrawChar(fb, font, x, y0+crashFontOffset, r, fg)
		x += fontWidth
	}
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if len(s) <= int(n) {
		return s, ""
	}
	var i int
	var count int16
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], s[i:]
}
