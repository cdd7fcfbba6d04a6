//go:build tinygo && baremetal

package hal

import (
	"context"
	"fmt"
	"machine"
	"sync"
	"time"

	"tinygo.org/x/drivers/touch"
)

const (
	panelWidth  = 800
	panelHeight = 480
	vsyncHz     = 60
)

type tinyGoHAL struct {
	logger    *uartLogger
	panel     *memPanel
	touch     nullTouch
	flash     Flash
	ticker    tinyGoTicker
	backlight *pinBacklight
}

// New returns the board HAL.
//
// UART: UART0 at 115200 8N1. The panel scan-out is emulated in RAM until a
// native RGB panel driver exists for the target.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{BaudRate: 115200})

	bl := machine.LED
	bl.Configure(machine.PinConfig{Mode: machine.PinOutput})

	p := newMemPanel(panelWidth, panelHeight)
	go func() {
		t := time.NewTicker(time.Second / vsyncHz)
		defer t.Stop()
		for range t.C {
			p.vsync(nil)
		}
	}()

	logger := &uartLogger{uart: uart}
	return &tinyGoHAL{
		logger:    logger,
		panel:     p,
		flash:     newBoardFlash(),
		backlight: &pinBacklight{pin: bl, logger: logger},
	}
}

func (h *tinyGoHAL) Logger() Logger         { return h.logger }
func (h *tinyGoHAL) Panel() Panel           { return h.panel }
func (h *tinyGoHAL) Touch() touch.Pointer   { return h.touch }
func (h *tinyGoHAL) Flash() Flash           { return h.flash }
func (h *tinyGoHAL) Ticker() TickSource     { return h.ticker }
func (h *tinyGoHAL) Backlight() Backlight   { return h.backlight }
func (h *tinyGoHAL) WiFi() WiFi             { return nullWiFi{} }
func (h *tinyGoHAL) TimeSource() TimeSource { return nullTimeSource{} }

type tinyGoTicker struct{}

func (tinyGoTicker) Start(periodMs uint32, fn TickFunc) (stop func()) {
	if periodMs == 0 {
		periodMs = 1
	}
	t := time.NewTicker(time.Duration(periodMs) * time.Millisecond)
	done := make(chan struct{})
	go func() {
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				fn(periodMs)
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// pinBacklight drives an on/off backlight enable pin.
type pinBacklight struct {
	pin    machine.Pin
	logger *uartLogger
}

func (b *pinBacklight) SetBrightness(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("backlight %d%%: out of range", percent)
	}
	b.pin.Set(percent > 0)
	b.logger.WriteLineString(fmt.Sprintf("backlight: %d%%", percent))
	return nil
}

type nullTouch struct{}

func (nullTouch) ReadTouchPoint() touch.Point { return touch.Point{} }

type nullWiFi struct{}

func (nullWiFi) Connect(context.Context, string, string) error { return ErrOffline }
func (nullWiFi) Scan(context.Context) ([]string, error)        { return nil, ErrNotImplemented }

type nullTimeSource struct{}

func (nullTimeSource) Now(context.Context, []string) (time.Time, error) {
	return time.Time{}, ErrOffline
}
