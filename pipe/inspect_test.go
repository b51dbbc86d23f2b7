package pipe

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tislib/roda-state/stage"
)

func TestInspectLogic(t *testing.T) {
	var count atomic.Int64
	i := NewInspect[uint32](func(*uint32) { count.Add(1) })

	out := stage.Run[uint32, uint32](i, 42)
	assert.Equal(t, []uint32{42}, out)
	assert.EqualValues(t, 1, count.Load())
}
