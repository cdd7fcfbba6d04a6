//go:build tinygo && baremetal && (rp2040 || rp2350)

package hal

import (
	"fmt"
	"machine"
)

// rp2Flash exposes the on-chip flash through machine.Flash, adding offsets
// to errors. Writes of any length and alignment are spread over whole pages
// padded with 0xFF, which leaves bytes outside p untouched.
type rp2Flash struct{}

func newBoardFlash() Flash {
	return rp2Flash{}
}

func (rp2Flash) Size() int64           { return machine.Flash.Size() }
func (rp2Flash) WriteBlockSize() int64 { return 1 }
func (rp2Flash) EraseBlockSize() int64 { return machine.Flash.EraseBlockSize() }

func (rp2Flash) ReadAt(p []byte, off int64) (int, error) {
	n, err := machine.Flash.ReadAt(p, off)
	if err != nil {
		return n, fmt.Errorf("flash read at %d: %w", off, err)
	}
	return n, nil
}

func (rp2Flash) WriteAt(p []byte, off int64) (int, error) {
	page := machine.Flash.WriteBlockSize()
	buf := make([]byte, page)
	written := 0
	for written < len(p) {
		at := off + int64(written)
		start := at - at%page
		for i := range buf {
			buf[i] = 0xFF
		}
		n := copy(buf[at-start:], p[written:])
		if _, err := machine.Flash.WriteAt(buf, start); err != nil {
			return written, fmt.Errorf("flash write at %d: %w", at, err)
		}
		written += n
	}
	return written, nil
}

func (rp2Flash) EraseBlocks(start, len int64) error {
	if err := machine.Flash.EraseBlocks(start, len); err != nil {
		return fmt.Errorf("flash erase blocks start=%d len=%d: %w", start, len, err)
	}
	return nil
}
