package hal

import (
	"context"
	"errors"
	"time"

	"tinygo.org/x/drivers/touch"
	"tinygo.org/x/tinyfs"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// ErrOffline is returned by network collaborators when no link is available.
var ErrOffline = errors.New("network offline")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp little-endian: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// VsyncEvent is the event data handed to a vsync callback.
type VsyncEvent struct {
	Frame uint64
}

// VsyncFunc runs in interrupt context at the start of every scan-out cycle.
// It must not block or allocate. The result reports whether a blocked task
// was woken.
type VsyncFunc func(p Panel, ev *VsyncEvent, user any) bool

// Panel is a parallel RGB panel that scans out one of two panel-owned frame
// buffers.
type Panel interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int

	// FrameBuffers returns the two scan-out buffers.
	FrameBuffers() (a, b []byte)

	// DrawBitmap hands buf to the panel for the region [x1,x2) x [y1,y2).
	// Passing one of the panel's own frame buffers selects it for scan-out
	// without copying.
	DrawBitmap(x1, y1, x2, y2 int, buf []byte) error

	// RegisterVsync installs the vsync callback. Only one is kept.
	RegisterVsync(fn VsyncFunc, user any)
}

// Flash is the persistent block device holding the key/value store.
type Flash = tinyfs.BlockDevice

// TickFunc is the periodic tick interrupt handler.
type TickFunc func(periodMs uint32)

// TickSource calls fn every periodMs milliseconds until stop is called.
type TickSource interface {
	Start(periodMs uint32, fn TickFunc) (stop func())
}

// Backlight controls the panel backlight.
type Backlight interface {
	SetBrightness(percent int) error
}

// WiFi associates with an access point.
type WiFi interface {
	Connect(ctx context.Context, ssid, password string) error
	// Scan lists the SSIDs in range. Radios that cannot scan return
	// ErrNotImplemented.
	Scan(ctx context.Context) ([]string, error)
}

// TimeSource fetches wall-clock time from one of the given servers.
type TimeSource interface {
	Now(ctx context.Context, servers []string) (time.Time, error)
}

// HAL provides the only contact point between the firmware and the outside world.
type HAL interface {
	Logger() Logger
	Panel() Panel
	Touch() touch.Pointer
	Flash() Flash
	Ticker() TickSource
	Backlight() Backlight
	WiFi() WiFi
	TimeSource() TimeSource
}
