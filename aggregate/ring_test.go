package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingEvictsOldest(t *testing.T) {
	r := newRing[int](3)

	r.PushEvict(1)
	r.PushEvict(2)
	assert.False(t, r.Full())
	assert.Equal(t, []int{1, 2}, r.Snapshot())

	r.PushEvict(3)
	assert.True(t, r.Full())
	assert.Equal(t, []int{1, 2, 3}, r.Snapshot())

	r.PushEvict(4)
	assert.True(t, r.Full())
	assert.Equal(t, []int{2, 3, 4}, r.Snapshot(), "oldest element is evicted, not shifted")
}
