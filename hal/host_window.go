//go:build !tinygo && cgo

package hal

import (
	"context"
	"errors"
	"image"
	"time"

	"wallclock/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"
	"tinygo.org/x/drivers/touch"
)

// RunWindow opens a desktop window that scans out the panel and feeds the
// mouse (or the first touch) to the touch controller. Each Draw is one vsync.
// It blocks until the window closes or run returns.
func RunWindow(ctx context.Context, run RunFunc, cfg HostConfig) error {
	h := New(cfg).(*hostHAL)

	g, gctx := errgroup.WithContext(ctx)
	appCtx, stopApp := context.WithCancel(gctx)
	defer stopApp()
	appDone := make(chan struct{})
	g.Go(func() error {
		defer close(appDone)
		return run(appCtx, h)
	})

	game := &hostGame{h: h, done: appDone}
	ebiten.SetWindowTitle("Wall clock (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.panel.width, h.panel.height)
	ebiten.SetTPS(60)
	gameErr := ebiten.RunGame(game)
	if errors.Is(gameErr, ebiten.Termination) {
		gameErr = nil
	}

	// The window is gone; keep vsync alive until the app has wound down.
	stopApp()
	g.Go(func() error {
		pumpVsync(h.panel, time.Second/60, appDone, nil)
		return nil
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		err = nil
	}
	if gameErr != nil {
		return gameErr
	}
	return err
}

type hostGame struct {
	h    *hostHAL
	done <-chan struct{}

	img      *image.RGBA
	fbImg    *ebiten.Image
	scratch  []byte
	touchIDs []ebiten.TouchID
}

func (g *hostGame) Update() error {
	select {
	case <-g.done:
		return ebiten.Termination
	default:
	}
	g.h.touch.set(g.pollPointer())
	return nil
}

func (g *hostGame) pollPointer() touch.Point {
	g.touchIDs = ebiten.AppendTouchIDs(g.touchIDs[:0])
	if len(g.touchIDs) > 0 {
		x, y := ebiten.TouchPosition(g.touchIDs[0])
		return touch.Point{X: x, Y: y, Z: 1}
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		return touch.Point{X: x, Y: y, Z: 1}
	}
	return touch.Point{}
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	p := g.h.panel
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, p.width, p.height))
		g.scratch = make([]byte, p.stride*p.height)
		g.fbImg = ebiten.NewImage(p.width, p.height)
	}

	p.vsync(g.scratch)

	src := g.scratch
	dst := g.img.Pix
	for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
		r, gg, b := rgb888From565(uint16(src[i]) | uint16(src[i+1])<<8)
		j := (i / 2) * 4
		dst[j+0] = r
		dst[j+1] = gg
		dst[j+2] = b
		dst[j+3] = 0xFF
	}
	g.fbImg.WritePixels(g.img.Pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.panel.width, g.h.panel.height
}
