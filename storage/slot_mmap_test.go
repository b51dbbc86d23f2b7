package storage

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotTestData struct {
	A, B, C, D uint64
}

func TestSlotMmapWriteAndRead(t *testing.T) {
	s, err := CreateSlotStore[slotTestData]("", 10)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 10, s.NumSlots())

	d := slotTestData{A: 1, B: 2, C: 3, D: 4}
	s.Write(0, d)

	got, ok := s.ReadSnapshot(0, 10)
	require.True(t, ok)
	assert.Equal(t, d, got)
}

func TestSlotMmapOutOfRangePanics(t *testing.T) {
	s, err := CreateSlotStore[slotTestData]("", 5)
	require.NoError(t, err)
	defer s.Close()

	assert.Panics(t, func() { s.Write(5, slotTestData{}) })
	assert.Panics(t, func() { s.ReadSnapshot(5, 10) })
}

func TestSlotMmapFileBacked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slots.store")

	s, err := CreateSlotStore[slotTestData](path, 5)
	require.NoError(t, err)
	s.Write(2, slotTestData{A: 10, B: 20, C: 30, D: 40})
	require.NoError(t, s.Close())

	loaded, err := LoadSlotStore[slotTestData](path)
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, 5, loaded.NumSlots())
	got, ok := loaded.ReadSnapshot(2, 10)
	require.True(t, ok)
	assert.Equal(t, slotTestData{A: 10, B: 20, C: 30, D: 40}, got)
}

// TestSlotMmapConcurrentConsistency is a property test
// invariant 3: every non-empty read must see bytes from exactly one write,
// never a torn mix of two.
func TestSlotMmapConcurrentConsistency(t *testing.T) {
	s, err := CreateSlotStore[slotTestData]("", 4)
	require.NoError(t, err)
	defer s.Close()

	reader := s.Reader()
	defer reader.Close()

	const iterations = 2000
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint64(0); i < iterations; i++ {
			s.Write(0, slotTestData{A: i, B: i, C: i, D: i})
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			return
		default:
		}
		if v, ok := reader.ReadSnapshot(0, 50); ok {
			assert.Equal(t, v.A, v.B)
			assert.Equal(t, v.A, v.C)
			assert.Equal(t, v.A, v.D)
		}
	}
}
