//go:build !tinygo

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// flashFile is a NOR flash image on disk: erased bytes read as 0xFF and a
// write may only clear bits.
type flashFile struct {
	f         *os.File
	size      int64
	eraseSize int64

	scratch []byte
}

func openFlashFile(path string, size, eraseSize int64) (*flashFile, error) {
	if eraseSize <= 0 || eraseSize%256 != 0 {
		return nil, fmt.Errorf("flash: invalid erase size %d", eraseSize)
	}
	if size <= 0 || size%eraseSize != 0 {
		return nil, fmt.Errorf("flash: size %d not multiple of erase size %d", size, eraseSize)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open flash file %q: %w", path, err)
	}
	if err := f.Truncate(size); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("truncate flash file %q to %d: %w", path, size, err)
	}

	ff := &flashFile{
		f:         f,
		size:      size,
		eraseSize: eraseSize,
		scratch:   make([]byte, eraseSize),
	}
	for i := range ff.scratch {
		ff.scratch[i] = 0xFF
	}
	if err := ff.EraseBlocks(0, size/eraseSize); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("erase flash file %q: %w", path, err)
	}
	return ff, nil
}

func (f *flashFile) Close() error { return f.f.Close() }

func (f *flashFile) Size() int64           { return f.size }
func (f *flashFile) WriteBlockSize() int64 { return 1 }
func (f *flashFile) EraseBlockSize() int64 { return f.eraseSize }

func (f *flashFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= f.size {
		return 0, fmt.Errorf("flash read at %d: %w", off, os.ErrInvalid)
	}
	if max := f.size - off; int64(len(p)) > max {
		p = p[:max]
	}
	return f.f.ReadAt(p, off)
}

func (f *flashFile) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= f.size {
		return 0, fmt.Errorf("flash write at %d: %w", off, os.ErrInvalid)
	}
	if max := f.size - off; int64(len(p)) > max {
		p = p[:max]
	}

	prev := make([]byte, len(p))
	if _, err := f.f.ReadAt(prev, off); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("flash read before write at %d: %w", off, err)
	}
	for i := range p {
		if prev[i]&p[i] != p[i] {
			return 0, errors.New("flash write requires erase")
		}
	}
	return f.f.WriteAt(p, off)
}

func (f *flashFile) EraseBlocks(start, n int64) error {
	if n == 0 {
		return nil
	}
	off, size := start*f.eraseSize, n*f.eraseSize
	if start < 0 || n < 0 || off+size > f.size {
		return fmt.Errorf("flash erase blocks start=%d n=%d: %w", start, n, os.ErrInvalid)
	}
	for ; size > 0; size -= f.eraseSize {
		if _, err := f.f.WriteAt(f.scratch, off); err != nil {
			return fmt.Errorf("flash erase block at %d: %w", off, err)
		}
		off += f.eraseSize
	}
	return nil
}
