package pipe

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/tislib/roda-state/stage"
)

func TestProgressPassesThrough(t *testing.T) {
	p := NewProgress[uint32](zerolog.Nop(), "test", 2)

	assert.Equal(t, []uint32{1}, stage.Run[uint32, uint32](p, 1))
	assert.Equal(t, []uint32{2}, stage.Run[uint32, uint32](p, 2)) // triggers a log line
	assert.Equal(t, []uint32{3}, stage.Run[uint32, uint32](p, 3))
}

func TestProgressRejectsNonPositiveInterval(t *testing.T) {
	assert.Panics(t, func() { NewProgress[uint32](zerolog.Nop(), "test", 0) })
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", formatCount(0))
	assert.Equal(t, "123", formatCount(123))
	assert.Equal(t, "123.45", formatCount(123.45))
	assert.Equal(t, "1.00k", formatCount(1000))
	assert.Equal(t, "1.23k", formatCount(1234))
	assert.Equal(t, "1.00m", formatCount(1_000_000))
	assert.Equal(t, "1.00b", formatCount(1_000_000_000))
}
