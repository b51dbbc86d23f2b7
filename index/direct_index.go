// Package index implements the direct index: an ordered key→record map kept
// current by replaying a store.Reader. Rust's crossbeam_skiplist::SkipMap
// has no Go standard-library or ecosystem equivalent with the same
// lock-free ordered-map shape, so this uses github.com/google/btree behind
// a mutex, which gives the same single-writer/many-reader ordered map
// semantics without a from-scratch skip list implementation.
package index

import (
	"cmp"
	"sync"

	"github.com/google/btree"

	"github.com/tislib/roda-state/store"
)

type entry[K cmp.Ordered, T any] struct {
	key K
	val T
}

func less[K cmp.Ordered, T any](a, b entry[K, T]) bool {
	return a.key < b.key
}

// DirectIndex is the single-writer handle: Compute drains one record at a
// time from the underlying store.Reader and upserts it into the ordered map
// under key_of(record).
type DirectIndex[K cmp.Ordered, T any] struct {
	mu     *sync.RWMutex
	tree   *btree.BTreeG[entry[K, T]]
	reader *store.Reader[T]
}

// DirectIndexReader gives read-only, concurrent access to a DirectIndex's
// current snapshot from a separate goroutine.
type DirectIndexReader[K cmp.Ordered, T any] struct {
	mu   *sync.RWMutex
	tree *btree.BTreeG[entry[K, T]]
}

// New builds a DirectIndex fed by reader. The underlying B-tree is built
// with a fixed degree (branching factor) of 32, matching
// github.com/google/btree's own default recommendation for general use.
func New[K cmp.Ordered, T any](reader *store.Reader[T]) *DirectIndex[K, T] {
	return &DirectIndex[K, T]{
		mu:     &sync.RWMutex{},
		tree:   btree.NewG(32, less[K, T]),
		reader: reader,
	}
}

// Compute advances the reader by one record, if available, and upserts it
// into the map under keyOf(record). Returns false if no new record was
// available.
func (d *DirectIndex[K, T]) Compute(keyOf func(*T) K) bool {
	if !d.reader.Next() {
		return false
	}
	v, ok := d.reader.Get()
	if !ok {
		return false
	}
	key := keyOf(&v)
	d.mu.Lock()
	d.tree.ReplaceOrInsert(entry[K, T]{key: key, val: v})
	d.mu.Unlock()
	return true
}

// Delete removes key from the map, a no-op if absent.
func (d *DirectIndex[K, T]) Delete(key K) {
	d.mu.Lock()
	d.tree.Delete(entry[K, T]{key: key})
	d.mu.Unlock()
}

// Reader returns a handle sharing this index's map and lock.
func (d *DirectIndex[K, T]) Reader() *DirectIndexReader[K, T] {
	return &DirectIndexReader[K, T]{mu: d.mu, tree: d.tree}
}

// Size returns the current entry count.
func (d *DirectIndex[K, T]) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tree.Len()
}

// Iter yields every (key, value) pair in ascending key order.
func (d *DirectIndex[K, T]) Iter() func(yield func(K, T) bool) {
	return d.Reader().Iter()
}

// DescendFrom yields every (key, value) pair with key >= from, in
// descending order.
func (d *DirectIndex[K, T]) DescendFrom(from K) func(yield func(K, T) bool) {
	return d.Reader().DescendFrom(from)
}

// With invokes handler with the value stored under key, if present.
func (r *DirectIndexReader[K, T]) With(key K, handler func(*T)) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tree.Get(entry[K, T]{key: key})
	if !ok {
		return false
	}
	handler(&e.val)
	return true
}

// Get returns a copy of the value stored under key.
func (r *DirectIndexReader[K, T]) Get(key K) (T, bool) {
	var out T
	ok := r.With(key, func(v *T) { out = *v })
	return out, ok
}

// Iter yields every (key, value) pair in ascending key order.
func (r *DirectIndexReader[K, T]) Iter() func(yield func(K, T) bool) {
	return func(yield func(K, T) bool) {
		r.mu.RLock()
		defer r.mu.RUnlock()
		r.tree.Ascend(func(e entry[K, T]) bool {
			return yield(e.key, e.val)
		})
	}
}

// FindGE yields every (key, value) pair with key >= from, in ascending
// order — the "lower_bound" traversal used to scan a book from a price
// level upward.
func (r *DirectIndexReader[K, T]) FindGE(from K) func(yield func(K, T) bool) {
	return func(yield func(K, T) bool) {
		r.mu.RLock()
		defer r.mu.RUnlock()
		r.tree.AscendGreaterOrEqual(entry[K, T]{key: from}, func(e entry[K, T]) bool {
			return yield(e.key, e.val)
		})
	}
}

// FindLE yields every (key, value) pair with key <= from, in descending
// order — the "upper_bound" traversal most useful reversed, e.g. for
// scanning a book downward from the best bid.
func (r *DirectIndexReader[K, T]) FindLE(from K) func(yield func(K, T) bool) {
	return func(yield func(K, T) bool) {
		r.mu.RLock()
		defer r.mu.RUnlock()
		r.tree.DescendLessOrEqual(entry[K, T]{key: from}, func(e entry[K, T]) bool {
			return yield(e.key, e.val)
		})
	}
}

// DescendFrom yields every (key, value) pair with key >= from, in
// descending order — the "find_ge(&k).rev()" idiom for enumerating a book
// downward from a floor price, e.g. the best bid at or above a limit.
// Unlike FindLE (bounded above, unbounded below), this is bounded below
// and unbounded above; google/btree has no single traversal primitive for
// that shape, so this collects the ascending lower-bound range and walks
// it backward.
func (r *DirectIndexReader[K, T]) DescendFrom(from K) func(yield func(K, T) bool) {
	return func(yield func(K, T) bool) {
		r.mu.RLock()
		var entries []entry[K, T]
		r.tree.AscendGreaterOrEqual(entry[K, T]{key: from}, func(e entry[K, T]) bool {
			entries = append(entries, e)
			return true
		})
		r.mu.RUnlock()
		for i := len(entries) - 1; i >= 0; i-- {
			if !yield(entries[i].key, entries[i].val) {
				return
			}
		}
	}
}

// Range yields every (key, value) pair with lo <= key < hi, in ascending
// order.
func (r *DirectIndexReader[K, T]) Range(lo, hi K) func(yield func(K, T) bool) {
	return func(yield func(K, T) bool) {
		r.mu.RLock()
		defer r.mu.RUnlock()
		r.tree.AscendRange(entry[K, T]{key: lo}, entry[K, T]{key: hi}, func(e entry[K, T]) bool {
			return yield(e.key, e.val)
		})
	}
}

// FirstAfter returns the first entry with key >= from.
func (r *DirectIndexReader[K, T]) FirstAfter(from K) (K, T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		foundKey K
		foundVal T
		found    bool
	)
	r.tree.AscendGreaterOrEqual(entry[K, T]{key: from}, func(e entry[K, T]) bool {
		foundKey, foundVal, found = e.key, e.val, true
		return false
	})
	return foundKey, foundVal, found
}

// LastBefore returns the highest entry with key <= from.
func (r *DirectIndexReader[K, T]) LastBefore(from K) (K, T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		foundKey K
		foundVal T
		found    bool
	)
	r.tree.DescendLessOrEqual(entry[K, T]{key: from}, func(e entry[K, T]) bool {
		foundKey, foundVal, found = e.key, e.val, true
		return false
	})
	return foundKey, foundVal, found
}

// Size returns the current entry count.
func (r *DirectIndexReader[K, T]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tree.Len()
}
