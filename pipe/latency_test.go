package pipe

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tislib/roda-state/stage"
)

func TestLatencyWrapsInnerStage(t *testing.T) {
	inner := stage.FuncStage[uint32, uint64](func(x uint32) (uint64, bool) {
		time.Sleep(10 * time.Millisecond)
		return uint64(x), true
	})
	l := NewLatency[uint32, uint64](zerolog.Nop(), "test", 2, 1, inner)

	out := stage.Run[uint32, uint64](l, 1)
	assert.Equal(t, []uint64{1}, out)

	out = stage.Run[uint32, uint64](l, 2)
	assert.Equal(t, []uint64{2}, out)

	stats := l.Stats()
	require.EqualValues(t, 2, stats.Count)
	assert.GreaterOrEqual(t, stats.Min, int64(10*time.Millisecond)*9/10)
}
