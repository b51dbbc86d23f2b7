package pipe

import "github.com/tislib/roda-state/stage"

// DedupBy emits an item only when the value under its key has changed
// since the last time that key was seen.
func DedupBy[K comparable, T comparable](keyOf func(*T) K) stage.FuncStage[T, T] {
	lastValues := make(map[K]T)
	return func(curr T) (T, bool) {
		key := keyOf(&curr)
		if prev, ok := lastValues[key]; ok && prev == curr {
			return curr, false
		}
		lastValues[key] = curr
		return curr, true
	}
}
