package pipe

import "github.com/tislib/roda-state/stage"

// Filter passes through only items for which predicate returns true.
type Filter[T any] struct {
	predicate func(*T) bool
}

// NewFilter builds a Filter stage from predicate.
func NewFilter[T any](predicate func(*T) bool) *Filter[T] {
	return &Filter[T]{predicate: predicate}
}

func (f *Filter[T]) Process(data T, collector stage.Collector[T]) {
	if f.predicate(&data) {
		collector.Push(data)
	}
}
