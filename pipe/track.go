package pipe

import "github.com/tislib/roda-state/stage"

// Tracked pairs a current value with its predecessor, if any.
type Tracked[T any] struct {
	Prev    T
	Curr    T
	HasPrev bool
}

// PrevValue returns the previous value, if one existed.
func (t Tracked[T]) PrevValue() (T, bool) {
	return t.Prev, t.HasPrev
}

// TrackPrevByHashMap pairs each item with the previous item under the same
// key, tracking one predecessor per key.
type TrackPrevByHashMap[K comparable, T any] struct {
	keyOf   func(*T) K
	storage map[K]T
}

// NewTrackPrevByHashMap builds a TrackPrevByHashMap stage keyed by keyOf.
func NewTrackPrevByHashMap[K comparable, T any](keyOf func(*T) K) *TrackPrevByHashMap[K, T] {
	return &TrackPrevByHashMap[K, T]{keyOf: keyOf, storage: make(map[K]T)}
}

func (t *TrackPrevByHashMap[K, T]) Process(item T, collector stage.Collector[Tracked[T]]) {
	key := t.keyOf(&item)
	prev, hadPrev := t.storage[key]
	t.storage[key] = item
	collector.Push(Tracked[T]{Prev: prev, Curr: item, HasPrev: hadPrev})
}

// TrackPrev pairs each item with the single globally-previous item.
type TrackPrev[T any] struct {
	lastValue T
	hasLast   bool
}

// NewTrackPrev builds a TrackPrev stage with no prior value.
func NewTrackPrev[T any]() *TrackPrev[T] {
	return &TrackPrev[T]{}
}

func (t *TrackPrev[T]) Process(curr T, collector stage.Collector[Tracked[T]]) {
	prev, hadPrev := t.lastValue, t.hasLast
	t.lastValue, t.hasLast = curr, true
	collector.Push(Tracked[T]{Prev: prev, Curr: curr, HasPrev: hadPrev})
}
