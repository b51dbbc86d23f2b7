package pipe

import "github.com/tislib/roda-state/stage"

// Stateful maintains per-key accumulator state, folding each input into the
// accumulator for its key and emitting the updated accumulator every time.
func Stateful[K comparable, In, Out any](
	keyOf func(*In) K,
	initOf func(*In) Out,
	fold func(*Out, In),
) stage.FuncStage[In, Out] {
	storage := make(map[K]Out)
	return func(item In) (Out, bool) {
		key := keyOf(&item)
		entry, ok := storage[key]
		if ok {
			fold(&entry, item)
		} else {
			entry = initOf(&item)
		}
		storage[key] = entry
		return entry, true
	}
}
