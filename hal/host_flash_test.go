//go:build !tinygo

package hal

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestHostFlashStartsErased(t *testing.T) {
	f := newHostFlash(filepath.Join(t.TempDir(), "nvs.img"))
	if f.Size() != hostFlashDefaultSizeBytes {
		t.Fatalf("Size() = %d, want %d", f.Size(), hostFlashDefaultSizeBytes)
	}
	buf := make([]byte, 16)
	if _, err := f.ReadAt(buf, 100); err != nil {
		t.Fatalf("ReadAt() = %v", err)
	}
	for i, b := range buf {
		if b != 0xFF {
			t.Fatalf("buf[%d] = %#x, want 0xff", i, b)
		}
	}
}

func TestHostFlashWriteRequiresErase(t *testing.T) {
	f := newHostFlash(filepath.Join(t.TempDir(), "nvs.img"))
	if _, err := f.WriteAt([]byte{0x0F}, 0); err != nil {
		t.Fatalf("WriteAt(0x0f) = %v", err)
	}
	// Clearing more bits is fine.
	if _, err := f.WriteAt([]byte{0x01}, 0); err != nil {
		t.Fatalf("WriteAt(0x01) = %v", err)
	}
	if _, err := f.WriteAt([]byte{0xF0}, 0); !errors.Is(err, ErrFlashWriteRequiresErase) {
		t.Fatalf("WriteAt(0xf0) = %v, want ErrFlashWriteRequiresErase", err)
	}

	if err := f.EraseBlocks(0, 1); err != nil {
		t.Fatalf("EraseBlocks() = %v", err)
	}
	if _, err := f.WriteAt([]byte{0xF0}, 0); err != nil {
		t.Fatalf("WriteAt after erase = %v", err)
	}
}

func TestHostFlashPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvs.img")
	f := newHostFlash(path)
	if _, err := f.WriteAt([]byte("hi"), 4096); err != nil {
		t.Fatalf("WriteAt() = %v", err)
	}
	f.f.Close()

	g := newHostFlash(path)
	buf := make([]byte, 2)
	if _, err := g.ReadAt(buf, 4096); err != nil {
		t.Fatalf("ReadAt() = %v", err)
	}
	if string(buf) != "hi" {
		t.Fatalf("ReadAt() = %q, want %q", buf, "hi")
	}
}

func TestHostFlashEraseOutOfRange(t *testing.T) {
	f := newHostFlash(filepath.Join(t.TempDir(), "nvs.img"))
	n := f.Size() / f.EraseBlockSize()
	if err := f.EraseBlocks(n, 1); err == nil {
		t.Fatalf("EraseBlocks(%d, 1) = nil, want error", n)
	}
}
