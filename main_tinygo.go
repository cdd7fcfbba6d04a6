//go:build tinygo && baremetal

package main

import (
	"context"

	"wallclock/app"
	"wallclock/hal"
)

func main() {
	h := hal.New()
	if err := app.New(h, app.Config{}).Run(context.Background()); err != nil {
		h.Logger().WriteLineString("wallclock: " + err.Error())
	}
	select {}
}
