package pipe

import "github.com/tislib/roda-state/stage"

// Inspect passes every item through unchanged after running f for its side
// effect (metrics, debug logging, and similar).
type Inspect[T any] struct {
	f func(*T)
}

// NewInspect builds an Inspect stage from f.
func NewInspect[T any](f func(*T)) *Inspect[T] {
	return &Inspect[T]{f: f}
}

func (i *Inspect[T]) Process(data T, collector stage.Collector[T]) {
	i.f(&data)
	collector.Push(data)
}
