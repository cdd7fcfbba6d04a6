//go:build tinygo && baremetal && !(rp2040 || rp2350)

package hal

import "tinygo.org/x/tinyfs"

// Boards without a machine.Flash block device keep their settings in RAM
// until reset.
func newBoardFlash() Flash {
	return tinyfs.NewMemoryDevice(256, 4096, 16)
}
