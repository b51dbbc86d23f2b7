package pipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowAlignment(t *testing.T) {
	window := uint64(100_000)
	assert.Equal(t, uint64(100_000), Windowed(150_200, window))
	assert.Equal(t, uint64(100_000), Windowed(199_999, window))
	assert.Equal(t, uint64(200_000), Windowed(200_001, window))
}

func TestWindowZeroPassesThrough(t *testing.T) {
	assert.Equal(t, uint64(12345), Windowed(12345, 0))
}
