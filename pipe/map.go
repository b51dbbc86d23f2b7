// Package pipe provides the declarative pipeline stages composed via the
// stage package's Pipe2/Pipe3/... helpers: Map, Filter,
// Inspect, Stateful, Delta, DedupBy, TrackPrev, Windowed, Progress, and a
// Latency instrumentation wrapper.
package pipe

import "github.com/tislib/roda-state/stage"

// Map transforms every input into exactly one output via f.
type Map[In, Out any] struct {
	f func(*In) Out
}

// NewMap builds a Map stage from f.
func NewMap[In, Out any](f func(*In) Out) *Map[In, Out] {
	return &Map[In, Out]{f: f}
}

func (m *Map[In, Out]) Process(data In, collector stage.Collector[Out]) {
	collector.Push(m.f(&data))
}
