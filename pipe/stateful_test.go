package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	ID    uint64
	Value int64
}

func TestStatefulLogic(t *testing.T) {
	f := Stateful[uint64, message, int64](
		func(m *message) uint64 { return m.ID },
		func(m *message) int64 { return m.Value },
		func(state *int64, m message) { *state += m.Value },
	)

	m1 := message{ID: 1, Value: 10}
	m2 := message{ID: 2, Value: 5}
	m3 := message{ID: 1, Value: 20}

	v, ok := f(m1)
	require.True(t, ok)
	assert.EqualValues(t, 10, v)

	v, ok = f(m2)
	require.True(t, ok)
	assert.EqualValues(t, 5, v)

	v, ok = f(m3)
	require.True(t, ok)
	assert.EqualValues(t, 30, v)
}
