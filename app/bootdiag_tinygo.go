//go:build tinygo && bootdebug

package app

import (
	"machine"
	"sync"
	"time"

	"wallclock/hal"
)

var (
	bootDiagMu   sync.Mutex
	bootDiagStep string
	bootDiagOnce sync.Once
)

func bootDiagSetStep(msg string) {
	bootDiagMu.Lock()
	bootDiagStep = msg
	bootDiagMu.Unlock()
}

// bootDiagStart repeats the current boot step every 250ms on the HAL logger
// and USB CDC, so a hang can be read off a serial monitor attached late.
func bootDiagStart(h hal.HAL) {
	bootDiagOnce.Do(func() {
		l := h.Logger()
		go func() {
			for {
				bootDiagMu.Lock()
				step := bootDiagStep
				bootDiagMu.Unlock()

				line := "bootdiag: " + step
				l.WriteLineString(line)
				if usb := machine.USBCDC; usb != nil {
					_, _ = usb.Write([]byte(line + "\r\n"))
				}
				time.Sleep(250 * time.Millisecond)
			}
		}()
	})
}
