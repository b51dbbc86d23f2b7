package aggregate

import "github.com/tislib/roda-state/store"

// Windower maintains a bounded FIFO buffer over a source reader: each new
// record is appended (evicting the oldest once the buffer is full), and
// once exactly windowSize elements are buffered, reduce is invoked over
// the whole window; a result that reduce reports with ok true is appended
// to the target store.
type Windower[In, Out any] struct {
	reader *store.Reader[In]
	target *store.JournalStore[Out]
	buf    *ring[In]
	size   int
}

// NewWindower builds a Windower over windowSize records.
func NewWindower[In, Out any](reader *store.Reader[In], target *store.JournalStore[Out], windowSize int) *Windower[In, Out] {
	return &Windower[In, Out]{
		reader: reader, target: target, size: windowSize,
		buf: newRing[In](windowSize),
	}
}

// Step advances the source reader by one; if a new record was available,
// it is folded into the window and, once the window is full, reduce is
// invoked over the buffered slice (oldest first). Returns true if a new
// record was consumed.
func (w *Windower[In, Out]) Step(reduce func([]In) (Out, bool)) bool {
	if !w.reader.Next() {
		return false
	}
	v, ok := w.reader.Get()
	if !ok {
		return false
	}
	w.buf.PushEvict(v)

	if w.buf.Full() {
		if out, ok := reduce(w.buf.Snapshot()); ok {
			w.target.Append(out)
		}
	}
	return true
}
