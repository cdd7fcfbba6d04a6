//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// RunFunc is the firmware entry point. It must return once ctx is done.
type RunFunc func(ctx context.Context, h HAL) error

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	HostConfig

	// Hz is the emulated vsync rate.
	Hz int

	// Frames stops the run after this many vsync events; 0 runs forever.
	Frames uint64
}

// RunHeadless runs the firmware without opening a window. Vsync is driven by
// a ticker instead of the display refresh.
func RunHeadless(ctx context.Context, run RunFunc, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h := New(cfg.HostConfig).(*hostHAL)

	g, gctx := errgroup.WithContext(ctx)
	appCtx, stopApp := context.WithCancel(gctx)
	defer stopApp()
	appDone := make(chan struct{})

	g.Go(func() error {
		defer close(appDone)
		return run(appCtx, h)
	})
	g.Go(func() error {
		pumpVsync(h.panel, d, appDone, func(frame uint64) {
			if cfg.Frames > 0 && frame >= cfg.Frames {
				stopApp()
			}
		})
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		// Frame limit reached.
		return nil
	}
	return err
}

// pumpVsync emits vsync events every d until done is closed. The render path
// may be parked waiting for vsync, so the pump has to outlive the app.
func pumpVsync(p *memPanel, d time.Duration, done <-chan struct{}, onFrame func(frame uint64)) {
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			p.vsync(nil)
			if onFrame != nil {
				onFrame(p.frames())
			}
		}
	}
}
