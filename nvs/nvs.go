// Package nvs is a small namespaced key/value store kept as an append-only
// log on a flash block device.
//
// Layout: the device starts with an 8-byte header ("WCNV", version, padding).
// Entries follow back to back:
//
//	[state][nslen][keylen][vallen u16 LE][crc32 LE][ns][key][value]
//
// The CRC (IEEE) covers namespace, key and value. State 0xFF marks the end
// of the log (erased flash), 0xFE a live entry and 0x00 a deleted one.
// Deleting only clears bits, so no erase is needed until the log fills up;
// then the live set is compacted into a freshly erased device.
//
// The device must accept byte-granular writes to erased flash.
package nvs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sort"
	"strings"
	"sync"

	"tinygo.org/x/tinyfs"
)

var (
	ErrNotFound = errors.New("nvs: not found")
	ErrNoSpace  = errors.New("nvs: no space")
	ErrCorrupt  = errors.New("nvs: corrupt")
	ErrInvalid  = errors.New("nvs: invalid argument")
)

const (
	// MaxNameLen bounds namespace and key lengths.
	MaxNameLen = 15
	// MaxValueLen bounds value length.
	MaxValueLen = 4000

	headerSize      = 8
	entryHeaderSize = 9
	formatVersion   = 1

	stateErased  = 0xFF
	stateLive    = 0xFE
	stateDeleted = 0x00
)

var magic = [4]byte{'W', 'C', 'N', 'V'}

// Entry is one live key/value pair.
type Entry struct {
	Namespace string
	Key       string
	Value     []byte
}

// Stats describes log usage.
type Stats struct {
	Used       int64
	Free       int64
	Live       int
	Deleted    int
	Corrupt    int
	Namespaces int
}

type slot struct {
	off  int64
	size int64
}

// Store is safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	dev tinyfs.BlockDevice

	end     int64
	live    map[string]slot
	deleted int
	corrupt int
}

// Open mounts the store on dev. A device without a valid header is formatted.
func Open(dev tinyfs.BlockDevice) (*Store, error) {
	if dev == nil || dev.Size() < headerSize+entryHeaderSize+2 {
		return nil, fmt.Errorf("nvs: open: device too small: %w", ErrInvalid)
	}
	s := &Store{dev: dev}

	var hdr [headerSize]byte
	if _, err := dev.ReadAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("nvs: open: read header: %w", err)
	}
	if !bytes.Equal(hdr[:4], magic[:]) {
		if err := s.format(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if hdr[4] != formatVersion {
		return nil, fmt.Errorf("nvs: open: format version %d: %w", hdr[4], ErrCorrupt)
	}
	if err := s.mount(); err != nil {
		return nil, err
	}
	return s, nil
}

// Format erases the device and writes an empty log.
func (s *Store) Format() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format()
}

func (s *Store) format() error {
	bs := s.dev.EraseBlockSize()
	if bs <= 0 {
		return fmt.Errorf("nvs: format: erase block size %d: %w", bs, ErrInvalid)
	}
	if err := s.dev.EraseBlocks(0, s.dev.Size()/bs); err != nil {
		return fmt.Errorf("nvs: format: %w", err)
	}
	hdr := [headerSize]byte{magic[0], magic[1], magic[2], magic[3], formatVersion, 0xFF, 0xFF, 0xFF}
	if _, err := s.dev.WriteAt(hdr[:], 0); err != nil {
		return fmt.Errorf("nvs: format: write header: %w", err)
	}
	s.end = headerSize
	s.live = make(map[string]slot)
	s.deleted = 0
	s.corrupt = 0
	return nil
}

func indexKey(ns, key string) string { return ns + "\x00" + key }

// mount rebuilds the index from the log.
func (s *Store) mount() error {
	s.live = make(map[string]slot)
	s.deleted = 0
	s.corrupt = 0

	var stale []int64
	end, torn, err := s.walk(func(off int64, state byte, ns, key string, _ []byte, size int64) {
		switch state {
		case stateLive:
			k := indexKey(ns, key)
			if prev, ok := s.live[k]; ok {
				// Power was lost between writing a replacement and
				// retiring the old entry.
				stale = append(stale, prev.off)
			}
			s.live[k] = slot{off: off, size: size}
		case stateDeleted:
			s.deleted++
		default:
			s.corrupt++
		}
	})
	if err != nil {
		return err
	}
	if torn {
		s.corrupt++
	}
	s.end = end
	for _, off := range stale {
		if err := s.tombstone(off); err != nil {
			return err
		}
	}
	return nil
}

// walk visits every entry in log order and returns the end of the log.
// Entries failing their CRC are reported with state 0x01. torn reports an
// unparseable entry header, after which the rest of the device is treated as
// used.
func (s *Store) walk(fn func(off int64, state byte, ns, key string, val []byte, size int64)) (end int64, torn bool, err error) {
	size := s.dev.Size()
	off := int64(headerSize)
	var eh [entryHeaderSize]byte
	for off+entryHeaderSize <= size {
		if _, err := s.dev.ReadAt(eh[:], off); err != nil {
			return 0, false, fmt.Errorf("nvs: read entry at %d: %w", off, err)
		}
		state := eh[0]
		if state == stateErased {
			return off, false, nil
		}
		nsLen, keyLen := int64(eh[1]), int64(eh[2])
		valLen := int64(binary.LittleEndian.Uint16(eh[3:5]))
		total := entryHeaderSize + nsLen + keyLen + valLen
		if nsLen == 0 || nsLen > MaxNameLen || keyLen == 0 || keyLen > MaxNameLen ||
			valLen > MaxValueLen || off+total > size {
			return size, true, nil
		}

		data := make([]byte, nsLen+keyLen+valLen)
		if _, err := s.dev.ReadAt(data, off+entryHeaderSize); err != nil {
			return 0, false, fmt.Errorf("nvs: read entry at %d: %w", off, err)
		}
		if state != stateDeleted && crc32.ChecksumIEEE(data) != binary.LittleEndian.Uint32(eh[5:9]) {
			state = 0x01
		}
		fn(off, state, string(data[:nsLen]), string(data[nsLen:nsLen+keyLen]), data[nsLen+keyLen:], total)
		off += total
	}
	return off, false, nil
}

func validate(ns, key string, val []byte) error {
	if len(ns) == 0 || len(ns) > MaxNameLen || len(key) == 0 || len(key) > MaxNameLen {
		return fmt.Errorf("nvs: name %q/%q: %w", ns, key, ErrInvalid)
	}
	if strings.IndexByte(ns, 0) >= 0 || strings.IndexByte(key, 0) >= 0 {
		return fmt.Errorf("nvs: name %q/%q contains NUL: %w", ns, key, ErrInvalid)
	}
	if len(val) > MaxValueLen {
		return fmt.Errorf("nvs: value for %s/%s is %d bytes: %w", ns, key, len(val), ErrInvalid)
	}
	return nil
}

// Get returns the value stored under ns/key.
func (s *Store) Get(ns, key string) ([]byte, error) {
	if err := validate(ns, key, nil); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.live[indexKey(ns, key)]
	if !ok {
		return nil, fmt.Errorf("nvs: get %s/%s: %w", ns, key, ErrNotFound)
	}
	val, err := s.readValue(sl, len(ns), len(key))
	if err != nil {
		return nil, fmt.Errorf("nvs: get %s/%s: %w", ns, key, err)
	}
	return val, nil
}

// GetString is Get for text values.
func (s *Store) GetString(ns, key string) (string, error) {
	v, err := s.Get(ns, key)
	return string(v), err
}

func (s *Store) readValue(sl slot, nsLen, keyLen int) ([]byte, error) {
	skip := int64(entryHeaderSize + nsLen + keyLen)
	val := make([]byte, sl.size-skip)
	if _, err := s.dev.ReadAt(val, sl.off+skip); err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores val under ns/key, replacing any previous value. Writing the
// value already stored is a no-op.
func (s *Store) Set(ns, key string, val []byte) error {
	if err := validate(ns, key, val); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := indexKey(ns, key)
	prev, had := s.live[k]
	if had {
		old, err := s.readValue(prev, len(ns), len(key))
		if err == nil && bytes.Equal(old, val) {
			return nil
		}
	}

	need := int64(entryHeaderSize + len(ns) + len(key) + len(val))
	if s.end+need > s.dev.Size() {
		if err := s.compact(""); err != nil {
			return fmt.Errorf("nvs: set %s/%s: %w", ns, key, err)
		}
		prev, had = s.live[k]
		if s.end+need > s.dev.Size() && had {
			// Old and new do not fit together: drop the old value first.
			if err := s.compact(k); err != nil {
				return fmt.Errorf("nvs: set %s/%s: %w", ns, key, err)
			}
			had = false
		}
		if s.end+need > s.dev.Size() {
			return fmt.Errorf("nvs: set %s/%s: %w", ns, key, ErrNoSpace)
		}
	}

	off := s.end
	if err := s.append(ns, key, val); err != nil {
		return fmt.Errorf("nvs: set %s/%s: %w", ns, key, err)
	}
	s.live[k] = slot{off: off, size: need}
	if had {
		if err := s.tombstone(prev.off); err != nil {
			return fmt.Errorf("nvs: set %s/%s: %w", ns, key, err)
		}
	}
	return nil
}

// SetString is Set for text values.
func (s *Store) SetString(ns, key, val string) error {
	return s.Set(ns, key, []byte(val))
}

// Delete removes ns/key.
func (s *Store) Delete(ns, key string) error {
	if err := validate(ns, key, nil); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := indexKey(ns, key)
	sl, ok := s.live[k]
	if !ok {
		return fmt.Errorf("nvs: delete %s/%s: %w", ns, key, ErrNotFound)
	}
	if err := s.tombstone(sl.off); err != nil {
		return fmt.Errorf("nvs: delete %s/%s: %w", ns, key, err)
	}
	delete(s.live, k)
	return nil
}

// Entries returns the live entries of ns in log order.
func (s *Store) Entries(ns string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	_, _, err := s.walk(func(off int64, state byte, ens, key string, val []byte, _ int64) {
		if state != stateLive || ens != ns {
			return
		}
		if sl, ok := s.live[indexKey(ens, key)]; !ok || sl.off != off {
			return
		}
		out = append(out, Entry{Namespace: ens, Key: key, Value: val})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stats reports log usage.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[string]struct{})
	for k := range s.live {
		ns, _, _ := cutIndexKey(k)
		names[ns] = struct{}{}
	}
	return Stats{
		Used:       s.end,
		Free:       s.dev.Size() - s.end,
		Live:       len(s.live),
		Deleted:    s.deleted,
		Corrupt:    s.corrupt,
		Namespaces: len(names),
	}
}

func cutIndexKey(k string) (ns, key string, ok bool) {
	return strings.Cut(k, "\x00")
}

func (s *Store) append(ns, key string, val []byte) error {
	buf := make([]byte, entryHeaderSize+len(ns)+len(key)+len(val))
	buf[0] = stateLive
	buf[1] = byte(len(ns))
	buf[2] = byte(len(key))
	binary.LittleEndian.PutUint16(buf[3:5], uint16(len(val)))
	n := entryHeaderSize
	n += copy(buf[n:], ns)
	n += copy(buf[n:], key)
	copy(buf[n:], val)
	binary.LittleEndian.PutUint32(buf[5:9], crc32.ChecksumIEEE(buf[entryHeaderSize:]))

	if _, err := s.dev.WriteAt(buf, s.end); err != nil {
		return err
	}
	s.end += int64(len(buf))
	return nil
}

func (s *Store) tombstone(off int64) error {
	if _, err := s.dev.WriteAt([]byte{stateDeleted}, off); err != nil {
		return err
	}
	s.deleted++
	return nil
}

// compact rewrites the live set, in log order, into an erased device. The
// entry indexed by skip, if any, is dropped.
func (s *Store) compact(skip string) error {
	type kept struct {
		Entry
		off int64
	}
	var keep []kept
	for k, sl := range s.live {
		if k == skip {
			continue
		}
		ns, key, _ := cutIndexKey(k)
		val, err := s.readValue(sl, len(ns), len(key))
		if err != nil {
			return fmt.Errorf("compact: %w", err)
		}
		keep = append(keep, kept{Entry{Namespace: ns, Key: key, Value: val}, sl.off})
	}
	sort.Slice(keep, func(i, j int) bool { return keep[i].off < keep[j].off })

	if err := s.format(); err != nil {
		return err
	}
	for _, e := range keep {
		off := s.end
		if err := s.append(e.Namespace, e.Key, e.Value); err != nil {
			return fmt.Errorf("compact: %w", err)
		}
		s.live[indexKey(e.Namespace, e.Key)] = slot{off: off, size: s.end - off}
	}
	return nil
}
