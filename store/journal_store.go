// Package store adds record typing, per-reader cursors, and op-counter
// integration on top of the raw storage package.
package store

import (
	"fmt"

	"github.com/tislib/roda-state/opcounter"
	"github.com/tislib/roda-state/storage"
)

// JournalStoreOptions configures a JournalStore. Size is in records, not
// bytes. When InMemory is false, the backing file is
// "{RootPath}/{Name}.store" — loaded if it already exists, created
// otherwise, matching the original crate's resume-from-disk convenience
// (subject to the write-cursor caveat on storage.LoadJournal).
type JournalStoreOptions struct {
	Name     string
	Size     uint64
	InMemory bool
	RootPath string
}

// JournalStore is the single-writer handle over a typed journal.
type JournalStore[T any] struct {
	storage  *storage.MmapJournal[T]
	counters *opcounter.Registry
}

// NewJournalStore creates or loads the backing journal per opts.
func NewJournalStore[T any](counters *opcounter.Registry, opts JournalStoreOptions) (*JournalStore[T], error) {
	var (
		j   *storage.MmapJournal[T]
		err error
	)
	if opts.InMemory {
		j, err = storage.CreateJournal[T]("", opts.Size)
	} else {
		path := fmt.Sprintf("%s/%s.store", opts.RootPath, opts.Name)
		j, err = storage.LoadJournal[T](path)
		if err != nil {
			j, err = storage.CreateJournal[T](path, opts.Size)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("store: new journal store %q: %w", opts.Name, err)
	}
	return &JournalStore[T]{storage: j, counters: counters}, nil
}

// Append writes v at the current cursor. Panics if the store is full.
func (s *JournalStore[T]) Append(v T) {
	s.storage.Append(v)
}

// Size returns the current record count.
func (s *JournalStore[T]) Size() uint64 {
	return s.storage.WriteCursor() / recordSize[T]()
}

// Reader returns a fresh reader positioned before the first record,
// registering a new per-reader progress counter.
func (s *JournalStore[T]) Reader() *Reader[T] {
	return &Reader[T]{
		storage: s.storage.Reader(),
		counter: s.counters.New(),
	}
}

// Close releases the underlying mapping.
func (s *JournalStore[T]) Close() error {
	return s.storage.Close()
}

func recordSize[T any]() uint64 {
	var zero T
	return uint64(sizeOf(zero))
}
