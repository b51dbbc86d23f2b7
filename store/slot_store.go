package store

import (
	"fmt"
	"os"

	"github.com/tislib/roda-state/opcounter"
	"github.com/tislib/roda-state/storage"
)

// slotSnapshotRetries bounds how many times a SlotStoreReader re-attempts a
// seqlock read before giving up and reporting no value — 100 is generous
// enough that only a pathologically starved reader ever exhausts it.
const slotSnapshotRetries = 100

// SlotStoreOptions configures a SlotStore. Size is the fixed slot count.
type SlotStoreOptions struct {
	Name     string
	Size     int
	InMemory bool
	RootPath string
}

// SlotStore is the single-writer handle over a fixed-size array of typed,
// independently-versioned slots.
type SlotStore[T any] struct {
	storage  *storage.SlotMmap[T]
	counters *opcounter.Registry
	numSlots int
}

// SlotStoreReader gives read-only, retrying-consistent access to a
// SlotStore's slots from a separate goroutine.
type SlotStoreReader[T any] struct {
	storage *storage.SlotMmap[T]
	counter *opcounter.Counter
}

// NewSlotStore creates or loads the backing slot array per opts.
func NewSlotStore[T any](counters *opcounter.Registry, opts SlotStoreOptions) (*SlotStore[T], error) {
	var (
		s   *storage.SlotMmap[T]
		err error
	)
	if opts.InMemory {
		s, err = storage.CreateSlotStore[T]("", opts.Size)
	} else {
		path := fmt.Sprintf("%s/%s.store", opts.RootPath, opts.Name)
		if _, statErr := os.Stat(path); statErr == nil {
			s, err = storage.LoadSlotStore[T](path)
		} else {
			s, err = storage.CreateSlotStore[T](path, opts.Size)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("store: new slot store %q: %w", opts.Name, err)
	}
	return &SlotStore[T]{storage: s, counters: counters, numSlots: opts.Size}, nil
}

// UpdateAt overwrites slot at with v. Panics if at is out of range — an
// out-of-range slot index is a caller bug, not a recoverable condition.
func (s *SlotStore[T]) UpdateAt(at int, v T) {
	s.storage.Write(at, v)
}

// Set overwrites slot at with v; it is equivalent to UpdateAt.
func (s *SlotStore[T]) Set(at int, v T) {
	s.storage.Write(at, v)
}

// Size returns the fixed slot count.
func (s *SlotStore[T]) Size() int {
	return s.numSlots
}

// Reader returns a fresh reader sharing this store's mapping.
func (s *SlotStore[T]) Reader() *SlotStoreReader[T] {
	return &SlotStoreReader[T]{
		storage: s.storage.Reader(),
		counter: s.counters.New(),
	}
}

// Close releases the underlying mapping.
func (s *SlotStore[T]) Close() error {
	return s.storage.Close()
}

// WithAt performs a consistent snapshot read of slot at and passes it to
// handler, retrying internally up to slotSnapshotRetries times. Panics if
// at is out of range; returns false if every retry observed a write in
// flight.
func (r *SlotStoreReader[T]) WithAt(at int, handler func(*T)) bool {
	v, ok := r.storage.ReadSnapshot(at, slotSnapshotRetries)
	if !ok {
		return false
	}
	handler(&v)
	r.counter.Add()
	return true
}

// GetAt returns a consistent copy of slot at.
func (r *SlotStoreReader[T]) GetAt(at int) (T, bool) {
	var out T
	ok := r.WithAt(at, func(v *T) { out = *v })
	return out, ok
}

// Size returns the fixed slot count.
func (r *SlotStoreReader[T]) Size() int {
	return r.storage.NumSlots()
}

// Close releases this reader's reference to the underlying mapping.
func (r *SlotStoreReader[T]) Close() error {
	return r.storage.Close()
}
