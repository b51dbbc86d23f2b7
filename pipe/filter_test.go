package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tislib/roda-state/stage"
)

func TestFilterLogic(t *testing.T) {
	f := NewFilter[int32](func(x *int32) bool { return *x > 0 })

	assert.Equal(t, []int32{10}, stage.Run[int32, int32](f, 10))
	assert.Empty(t, stage.Run[int32, int32](f, -5))
}
