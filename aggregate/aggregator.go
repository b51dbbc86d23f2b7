// Package aggregate implements the engine's two declarative reducers:
// Aggregator (partitioned fold) and Windower (bounded sliding-window
// fold), both driven by a store.Reader and
// writing their output to a store.JournalStore.
package aggregate

import (
	"github.com/tislib/roda-state/store"
)

type aggState[Acc any] struct {
	idx uint64
	acc Acc
}

// Aggregator maintains one (fold-count, accumulator) pair per partition
// key, folding each newly-visible source record into its partition and
// appending the updated accumulator to the target store.
type Aggregator[K comparable, In, Acc any] struct {
	reader    *store.Reader[In]
	target    *store.JournalStore[Acc]
	keyOf     func(*In) K
	perKey    map[K]aggState[Acc]
	lastIndex int64 // -1 means "no record consumed yet"
}

// NewAggregator builds an Aggregator reading from reader, partitioned by
// keyOf, with output appended to target.
func NewAggregator[K comparable, In, Acc any](reader *store.Reader[In], target *store.JournalStore[Acc], keyOf func(*In) K) *Aggregator[K, In, Acc] {
	return &Aggregator[K, In, Acc]{
		reader: reader, target: target, keyOf: keyOf,
		perKey: make(map[K]aggState[Acc]), lastIndex: -1,
	}
}

// Reduce applies update to the single record made visible since the last
// Reduce call — the caller is expected to have driven reader.Next() once
// beforehand. update receives the partition's 0-based fold index, the
// current input, and the partition's accumulator; it sets keep to true
// (the default) to retain the partition under its key, or false to evict
// it without writing an output record. Returns false if no new record was
// available.
func (a *Aggregator[K, In, Acc]) Reduce(update func(index uint64, in *In, acc *Acc, keep *bool)) bool {
	c := int64(a.reader.Index())
	if c <= a.lastIndex {
		return false
	}
	v, ok := a.reader.Get()
	if !ok {
		return false
	}

	key := a.keyOf(&v)
	st := a.perKey[key]
	keep := true
	update(st.idx, &v, &st.acc, &keep)

	if keep {
		a.target.Append(st.acc)
		a.perKey[key] = aggState[Acc]{idx: st.idx + 1, acc: st.acc}
	} else {
		delete(a.perKey, key)
	}

	a.lastIndex = c
	return true
}
