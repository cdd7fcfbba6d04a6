//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"

	"tinygo.org/x/drivers/touch"
)

// HostConfig configures the host HAL.
type HostConfig struct {
	Width  int
	Height int

	// FlashPath is the file backing the persistent store. Empty selects
	// $WALLCLOCK_NVS_PATH, then hostFlashDefaultPath.
	FlashPath string

	// Offline makes the WiFi collaborator refuse every access point.
	Offline bool
}

type hostHAL struct {
	logger    *hostLogger
	panel     *memPanel
	touch     *hostTouch
	flash     *hostFlash
	ticker    hostTicker
	backlight *hostBacklight
	wifi      *hostWiFi
	ntp       hostTimeSource
}

// New returns a host HAL implementation.
func New(cfg HostConfig) HAL {
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	logger := &hostLogger{w: os.Stdout}
	return &hostHAL{
		logger:    logger,
		panel:     newMemPanel(cfg.Width, cfg.Height),
		touch:     &hostTouch{},
		flash:     newHostFlash(cfg.FlashPath),
		backlight: &hostBacklight{logger: logger},
		wifi:      &hostWiFi{offline: cfg.Offline},
		ntp:       hostTimeSource{offline: cfg.Offline},
	}
}

func (h *hostHAL) Logger() Logger         { return h.logger }
func (h *hostHAL) Panel() Panel           { return h.panel }
func (h *hostHAL) Touch() touch.Pointer   { return h.touch }
func (h *hostHAL) Flash() Flash           { return h.flash }
func (h *hostHAL) Ticker() TickSource     { return h.ticker }
func (h *hostHAL) Backlight() Backlight   { return h.backlight }
func (h *hostHAL) WiFi() WiFi             { return h.wifi }
func (h *hostHAL) TimeSource() TimeSource { return h.ntp }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostBacklight struct {
	mu      sync.Mutex
	percent int
	logger  *hostLogger
}

func (b *hostBacklight) SetBrightness(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("backlight %d%%: %w", percent, os.ErrInvalid)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.percent = percent
	b.logger.WriteLineString(fmt.Sprintf("backlight: %d%%", percent))
	return nil
}

// hostTouch holds the latest pointer sample taken by the window loop.
type hostTouch struct {
	mu sync.Mutex
	pt touch.Point
}

func (t *hostTouch) ReadTouchPoint() touch.Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pt
}

func (t *hostTouch) set(pt touch.Point) {
	t.mu.Lock()
	t.pt = pt
	t.mu.Unlock()
}
