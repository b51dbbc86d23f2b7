package storage

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalAppendAndRead(t *testing.T) {
	j, err := CreateJournal[uint32]("", 1024)
	require.NoError(t, err)
	defer j.Close()

	j.Append(0x12345678)
	assert.Equal(t, uint64(4), j.WriteCursor())
	assert.Equal(t, uint32(0x12345678), j.ReadAt(0))
}

func TestJournalAppendMultiple(t *testing.T) {
	j, err := CreateJournal[uint64]("", 1024)
	require.NoError(t, err)
	defer j.Close()

	j.Append(10)
	j.Append(20)
	assert.Equal(t, uint64(16), j.WriteCursor())
	assert.Equal(t, uint64(10), j.ReadAt(0))
	assert.Equal(t, uint64(20), j.ReadAt(8))
}

func TestJournalReadWindow(t *testing.T) {
	j, err := CreateJournal[uint32]("", 1024)
	require.NoError(t, err)
	defer j.Close()

	j.Append(1)
	j.Append(2)
	j.Append(3)

	window := j.ReadWindow(0, 3)
	assert.Equal(t, []uint32{1, 2, 3}, window)
}

func TestJournalOverflowPanics(t *testing.T) {
	j, err := CreateJournal[uint32]("", 1)
	require.NoError(t, err)
	defer j.Close()

	j.Append(1)
	assert.Panics(t, func() { j.Append(2) })
}

func TestJournalReadOutOfBoundsPanics(t *testing.T) {
	j, err := CreateJournal[uint64]("", 4)
	require.NoError(t, err)
	defer j.Close()

	assert.Panics(t, func() { j.ReadAt(4 * 8) })
}

func TestJournalReaderCannotAppend(t *testing.T) {
	j, err := CreateJournal[uint32]("", 1024)
	require.NoError(t, err)
	defer j.Close()

	r := j.Reader()
	defer r.Close()
	assert.Panics(t, func() { r.Append(1) })
}

func TestJournalReaderConcurrency(t *testing.T) {
	j, err := CreateJournal[uint32]("", 1024)
	require.NoError(t, err)
	defer j.Close()

	r := j.Reader()
	defer r.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		lastIdx := uint64(0)
		count := uint32(0)
		for count < 10 {
			if cur := r.WriteCursor(); cur > lastIdx {
				v := r.ReadAt(lastIdx)
				assert.Equal(t, count, v)
				lastIdx += 4
				count++
			}
		}
	}()

	for i := uint32(0); i < 10; i++ {
		j.Append(i)
	}
	wg.Wait()
}

type largeData struct {
	A, B, C, D uint64
}

func TestJournalReaderNoCorruption(t *testing.T) {
	j, err := CreateJournal[largeData]("", 1024*1024)
	require.NoError(t, err)
	defer j.Close()

	r := j.Reader()
	defer r.Close()

	const n = 1000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		lastIdx := uint64(0)
		size := uint64(32)
		for lastIdx < n*size {
			cur := r.WriteCursor()
			for lastIdx < cur {
				d := r.ReadAt(lastIdx)
				assert.Equal(t, d.A, d.B)
				assert.Equal(t, d.A, d.C)
				assert.Equal(t, d.A, d.D)
				lastIdx += size
			}
		}
	}()

	for i := uint64(0); i < n; i++ {
		j.Append(largeData{A: i, B: i, C: i, D: i})
	}
	wg.Wait()
}

func TestJournalFileBacked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.store")

	j, err := CreateJournal[uint64](path, 1024/8)
	require.NoError(t, err)
	j.Append(123)
	require.NoError(t, j.Close())

	loaded, err := LoadJournal[uint64](path)
	require.NoError(t, err)
	defer loaded.Close()

	// write_index is not persisted: a loaded journal always starts at 0.
	assert.Equal(t, uint64(0), loaded.WriteCursor())
	assert.Equal(t, uint64(123), loaded.ReadAt(0))
}
