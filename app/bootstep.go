//go:build !(tinygo && bootdebug)

package app

import "wallclock/hal"

// bootStep marks a boot milestone. Only bootdebug firmware reports them.
func bootStep(hal.HAL, string) {}
