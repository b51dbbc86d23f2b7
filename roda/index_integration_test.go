package roda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tislib/roda-state/index"
	"github.com/tislib/roda-state/store"
)

// TestEngineWorkerDrivesIndex mirrors the original's
// test_concurrent_push_and_index: a background worker continuously
// computes a direct index over a store while the main goroutine appends.
func TestEngineWorkerDrivesIndex(t *testing.T) {
	e := New()
	defer e.Close()

	s, err := NewJournalStore[uint32](e, store.JournalStoreOptions{Name: "idx_src", Size: 1024, InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	idx := index.New[uint32, uint32](s.Reader())
	idxReader := idx.Reader()

	e.RunWorker(func() bool {
		return idx.Compute(func(x *uint32) uint32 { return *x })
	})

	for i := uint32(0); i < 10; i++ {
		s.Append(i)
	}

	assert.Eventually(t, func() bool {
		return idx.Size() == 10
	}, time.Second, time.Millisecond)

	for i := uint32(0); i < 10; i++ {
		v, ok := idxReader.Get(i)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}
