//go:build !tinygo

package hal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	hostFlashDefaultPath      = "wallclock.nvs"
	hostFlashDefaultSizeBytes = 64 * 1024
	hostFlashEraseBlockBytes  = 4096
)

var ErrFlashWriteRequiresErase = errors.New("flash write requires erase")

// hostFlash is a NOR-flash emulation backed by a file: erased bytes read as
// 0xFF and a write may only clear bits.
type hostFlash struct {
	mu      sync.Mutex
	f       *os.File
	size    int64
	scratch [hostFlashEraseBlockBytes]byte
}

func newHostFlash(path string) *hostFlash {
	if path == "" {
		path = os.Getenv("WALLCLOCK_NVS_PATH")
	}
	if path == "" {
		path = hostFlashDefaultPath
	}

	hf := &hostFlash{}
	for i := range hf.scratch {
		hf.scratch[i] = 0xFF
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return hf
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return hf
	}
	if st.Size() > 0 {
		hf.f = f
		hf.size = st.Size()
		return hf
	}

	// New image: start fully erased.
	hf.f = f
	hf.size = hostFlashDefaultSizeBytes
	for off := int64(0); off < hf.size; off += hostFlashEraseBlockBytes {
		if _, err := f.WriteAt(hf.scratch[:], off); err != nil {
			_ = f.Close()
			return &hostFlash{}
		}
	}
	return hf
}

func (f *hostFlash) Size() int64           { return f.size }
func (f *hostFlash) WriteBlockSize() int64 { return 1 }
func (f *hostFlash) EraseBlockSize() int64 { return hostFlashEraseBlockBytes }

func (f *hostFlash) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return 0, ErrNotImplemented
	}
	if off < 0 || off >= f.size {
		return 0, fmt.Errorf("flash read at %d: %w", off, os.ErrInvalid)
	}
	if max := f.size - off; int64(len(p)) > max {
		p = p[:max]
	}
	return f.f.ReadAt(p, off)
}

func (f *hostFlash) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return 0, ErrNotImplemented
	}
	if off < 0 || off >= f.size {
		return 0, fmt.Errorf("flash write at %d: %w", off, os.ErrInvalid)
	}
	if max := f.size - off; int64(len(p)) > max {
		p = p[:max]
	}

	buf := make([]byte, len(p))
	if _, err := f.f.ReadAt(buf, off); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("flash read before write at %d: %w", off, err)
	}
	for i := range p {
		if buf[i]&p[i] != p[i] {
			return 0, ErrFlashWriteRequiresErase
		}
	}
	return f.f.WriteAt(p, off)
}

// EraseBlocks erases len blocks starting at block start.
func (f *hostFlash) EraseBlocks(start, len int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return ErrNotImplemented
	}
	if len == 0 {
		return nil
	}
	off := start * hostFlashEraseBlockBytes
	size := len * hostFlashEraseBlockBytes
	if start < 0 || len < 0 || off+size > f.size {
		return fmt.Errorf("flash erase blocks start=%d len=%d: %w", start, len, os.ErrInvalid)
	}

	for ; size > 0; size -= hostFlashEraseBlockBytes {
		if _, err := f.f.WriteAt(f.scratch[:], off); err != nil {
			return fmt.Errorf("flash erase block at %d: %w", off, err)
		}
		off += hostFlashEraseBlockBytes
	}
	return nil
}
