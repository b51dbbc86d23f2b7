package pipe

import "github.com/tislib/roda-state/stage"

// Delta compares the current item against the previous item seen under the
// same key, handing both to logic. prev is nil the first time a key is
// seen.
func Delta[K comparable, T, Out any](
	keyOf func(*T) K,
	logic func(curr T, prev *T) (Out, bool),
) stage.FuncStage[T, Out] {
	lastValues := make(map[K]T)
	return func(curr T) (Out, bool) {
		key := keyOf(&curr)
		prev, hadPrev := lastValues[key]
		lastValues[key] = curr
		if hadPrev {
			return logic(curr, &prev)
		}
		return logic(curr, nil)
	}
}
