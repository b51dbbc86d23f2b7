package storage

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// SlotMmap is a fixed-count array of versioned record slots, allowing a
// single writer to overlap with any number of readers via a seqlock
// protocol: each slot is an 8-byte atomic version word followed by the
// payload. Even version means the payload is stable; odd means a write is
// in progress.
type SlotMmap[T any] struct {
	arena    *arena
	numSlots int
	slotSize int // 8 + sizeof(T), unpadded
	readOnly bool
}

func slotSize[T any]() int {
	return 8 + int(recordSize[T]())
}

// CreateSlotStore allocates/maps numSlots slots for T. path == "" backs the
// slots with an ordinary Go byte slice (in-memory mode); no anonymous
// mapping is created.
func CreateSlotStore[T any](path string, numSlots int) (*SlotMmap[T], error) {
	ss := slotSize[T]()
	size := int64(numSlots) * int64(ss)

	a := &arena{}
	if path == "" {
		a.data = make([]byte, size)
	} else {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("storage: create slot store file: %w", err)
		}
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("storage: truncate slot store file: %w", err)
		}
		data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("storage: mmap slot store file: %w", err)
		}
		a.data = data
		a.file = f
	}
	a.retain()

	return &SlotMmap[T]{arena: a, numSlots: numSlots, slotSize: ss}, nil
}

// LoadSlotStore maps an existing file, inferring the slot count from its
// on-disk length. A fresh OS-zero-filled file reads back as all-even
// versions with zeroed payloads — indistinguishable from a slot that was
// legitimately written with a zero value.
func LoadSlotStore[T any](path string) (*SlotMmap[T], error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: open slot store file: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: stat slot store file: %w", err)
	}
	ss := slotSize[T]()
	numSlots := int(fi.Size()) / ss

	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: mmap slot store file: %w", err)
	}
	a := &arena{data: data, file: f}
	a.retain()

	return &SlotMmap[T]{arena: a, numSlots: numSlots, slotSize: ss}, nil
}

func (s *SlotMmap[T]) NumSlots() int { return s.numSlots }

func (s *SlotMmap[T]) versionPtr(offset int) *atomic.Uint64 {
	return (*atomic.Uint64)(unsafe.Pointer(&s.arena.data[offset]))
}

func (s *SlotMmap[T]) checkRange(i int) {
	if i < 0 || i >= s.numSlots {
		panic(fmt.Sprintf("storage: slot index %d out of range (num_slots=%d)", i, s.numSlots))
	}
}

// Write updates slot i using the seqlock protocol: bump the version to odd,
// full-fence, copy the payload, full-fence, bump the version back to even.
// Panics if i is out of range — an out-of-range slot index is a caller
// bug, not a recoverable condition, the same way an overflowing journal
// append panics.
func (s *SlotMmap[T]) Write(i int, v T) {
	if s.readOnly {
		panic("storage: write called on a reader handle")
	}
	s.checkRange(i)
	offset := i * s.slotSize
	ver := s.versionPtr(offset)

	ver.Add(1) // now odd: write in progress
	rs := recordSize[T]()
	dst := s.arena.data[offset+8 : offset+8+int(rs)]
	src := unsafe.Slice((*byte)(unsafe.Pointer(&v)), rs)
	copy(dst, src)
	ver.Add(1) // now even: write complete
}

// ReadSnapshot performs a consistent seqlock read, retrying up to
// maxRetries times. Panics if i is out of range; returns (zero, false) if
// the writer was persistently contending past the retry budget.
func (s *SlotMmap[T]) ReadSnapshot(i int, maxRetries int) (T, bool) {
	var zero T
	s.checkRange(i)
	offset := i * s.slotSize
	ver := s.versionPtr(offset)
	rs := recordSize[T]()

	for n := 0; n < maxRetries; n++ {
		v1 := ver.Load()
		if v1%2 == 0 {
			var out T
			src := s.arena.data[offset+8 : offset+8+int(rs)]
			dst := unsafe.Slice((*byte)(unsafe.Pointer(&out)), rs)
			copy(dst, src)

			v2 := ver.Load()
			if v1 == v2 {
				return out, true
			}
		}
		// architectural spin hint: the Go runtime exposes no PAUSE
		// intrinsic directly, so busy-spin a short fixed count before
		// the next version load, same as lock-free Go code commonly does.
		for k := 0; k < 30; k++ {
		}
	}
	return zero, false
}

// Reader returns a read-only alias sharing this slot store's mapping.
func (s *SlotMmap[T]) Reader() *SlotMmap[T] {
	s.arena.retain()
	return &SlotMmap[T]{arena: s.arena, numSlots: s.numSlots, slotSize: s.slotSize, readOnly: true}
}

// Close releases this handle's reference to the mapping.
func (s *SlotMmap[T]) Close() error {
	return s.arena.release()
}
