package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tislib/roda-state/stage"
)

func TestMapLogic(t *testing.T) {
	m := NewMap[uint32, uint64](func(x *uint32) uint64 { return uint64(*x) * 2 })
	out := stage.Run[uint32, uint64](m, 21)
	assert.Equal(t, []uint64{42}, out)
}
