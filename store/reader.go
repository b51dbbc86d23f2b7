package store

import (
	"github.com/tislib/roda-state/opcounter"
	"github.com/tislib/roda-state/storage"
)

// Reader owns a private cursor (a record count, not a byte offset) over a
// JournalStore. Multiple readers may exist over the same store and advance
// independently; all operations are non-blocking.
type Reader[T any] struct {
	storage   *storage.MmapJournal[T]
	counter   *opcounter.Counter
	nextIndex uint64 // records already advanced past
}

// Next advances the cursor by one record if one has become visible, bumping
// the op counter. Returns false (without advancing) if the writer has not
// published that far yet.
func (r *Reader[T]) Next() bool {
	rs := recordSize[T]()
	offset := r.nextIndex * rs
	if offset+rs > r.storage.WriteCursor() {
		return false
	}
	r.nextIndex++
	r.counter.Add()
	return true
}

// Index returns the reader's own cursor (the count of records it has
// advanced past so far).
func (r *Reader[T]) Index() uint64 {
	return r.nextIndex
}

// With invokes handler with the record at the reader's last-advanced
// position (not the latest written record — see GetLast for that). The
// pointer handed to handler aliases the mapping, so no copy is made.
// Returns false, without calling handler, before the first successful Next.
func (r *Reader[T]) With(handler func(*T)) bool {
	if r.nextIndex == 0 {
		return false
	}
	w := r.storage.ReadWindow((r.nextIndex-1)*recordSize[T](), 1)
	handler(&w[0])
	return true
}

// Get returns a copy of the record at the reader's last-advanced position.
func (r *Reader[T]) Get() (T, bool) {
	var out T
	ok := r.With(func(v *T) { out = *v })
	return out, ok
}

// WithAt invokes handler with the record at index at, bounds-checked
// against the current write cursor (not the reader's own cursor).
func (r *Reader[T]) WithAt(at uint64, handler func(*T)) bool {
	rs := recordSize[T]()
	offset := at * rs
	if offset+rs > r.storage.WriteCursor() {
		return false
	}
	v := r.storage.ReadAt(offset)
	handler(&v)
	return true
}

// GetAt returns a copy of the record at index at.
func (r *Reader[T]) GetAt(at uint64) (T, bool) {
	var out T
	ok := r.WithAt(at, func(v *T) { out = *v })
	return out, ok
}

// WithLast invokes handler with the most recently written record, per the
// current write cursor.
func (r *Reader[T]) WithLast(handler func(*T)) bool {
	rs := recordSize[T]()
	cursor := r.storage.WriteCursor()
	if cursor < rs {
		return false
	}
	v := r.storage.ReadAt(cursor - rs)
	handler(&v)
	return true
}

// GetLast returns a copy of the most recently written record.
func (r *Reader[T]) GetLast() (T, bool) {
	var out T
	ok := r.WithLast(func(v *T) { out = *v })
	return out, ok
}

// GetWindow returns n consecutive records starting at index at, or false
// if the window extends past the current write cursor.
func (r *Reader[T]) GetWindow(at uint64, n int) ([]T, bool) {
	rs := recordSize[T]()
	offset := at * rs
	if offset+rs*uint64(n) > r.storage.WriteCursor() {
		return nil, false
	}
	return r.storage.ReadWindow(offset, n), true
}

// Size returns the total record count currently visible, per the write
// cursor (not the reader's own cursor).
func (r *Reader[T]) Size() uint64 {
	return r.storage.WriteCursor() / recordSize[T]()
}

// HandleRemaining drains every record the reader has not yet seen in one
// batch: it samples the current write cursor once, applies handler to each
// not-yet-seen record in order, then commits the advanced cursor and op
// counter in a single step. Returns the number of records processed.
func (r *Reader[T]) HandleRemaining(handler func(*T)) int {
	rs := recordSize[T]()
	cursor := r.storage.WriteCursor()
	startIdx := r.nextIndex
	endIdx := cursor / rs
	if endIdx <= startIdx {
		return 0
	}
	for i := startIdx; i < endIdx; i++ {
		v := r.storage.ReadAt(i * rs)
		handler(&v)
	}
	n := int(endIdx - startIdx)
	r.nextIndex = endIdx
	for i := 0; i < n; i++ {
		r.counter.Add()
	}
	return n
}

// Close releases this reader's reference to the underlying mapping.
func (r *Reader[T]) Close() error {
	return r.storage.Close()
}
