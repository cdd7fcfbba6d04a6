//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"wallclock/app"
	"wallclock/hal"
	"wallclock/internal/logx"
)

func main() {
	var (
		cfg      hal.HeadlessConfig
		headless bool
		logLevel string
	)
	flag.BoolVar(&headless, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", 60, "Vsync rate in headless mode.")
	flag.Uint64Var(&cfg.Frames, "frames", 0, "Stop after N vsync events in headless mode (0 = run forever).")
	flag.BoolVar(&cfg.Offline, "offline", false, "Refuse every access point and time server.")
	flag.IntVar(&cfg.Width, "width", 800, "Panel width in pixels.")
	flag.IntVar(&cfg.Height, "height", 480, "Panel height in pixels.")
	flag.StringVar(&cfg.FlashPath, "nvs", "", "Flash image path (default $WALLCLOCK_NVS_PATH, then wallclock.nvs).")
	flag.StringVar(&logLevel, "log", "info", "Minimum log level: debug, info, warn or error.")
	flag.Parse()

	lvl, err := logx.ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	run := func(ctx context.Context, h hal.HAL) error {
		return app.New(h, app.Config{LogLevel: lvl}).Run(ctx)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if headless {
		err = hal.RunHeadless(ctx, run, cfg)
	} else {
		err = hal.RunWindow(ctx, run, cfg.HostConfig)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
