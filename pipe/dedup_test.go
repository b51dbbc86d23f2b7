package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupLogic(t *testing.T) {
	f := DedupBy[int, int32](func(*int32) int { return 0 })

	v, ok := f(10)
	require.True(t, ok)
	assert.EqualValues(t, 10, v)

	_, ok = f(10)
	assert.False(t, ok, "same value: suppressed")

	v, ok = f(20)
	require.True(t, ok)
	assert.EqualValues(t, 20, v)

	v, ok = f(10)
	require.True(t, ok)
	assert.EqualValues(t, 10, v, "changed back: passes again")
}
