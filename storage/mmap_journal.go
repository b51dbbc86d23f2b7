// Package storage contains the raw, byte-level mmap primitives: an
// append-only journal arena and a fixed-count seqlock slot array. Both are
// generic over a fixed-size record type T, instantiated per call site the
// way the original Rust crate used monomorphized generics over a Pod type —
// Go's type parameters give us the same compile-time layout knowledge
// without resorting to runtime reflection.
//
// T must be a fixed-size, trivially-copyable value: no pointers, no slices,
// no maps, no interfaces. This is a usage contract, not something the Go
// type system enforces; violating it produces undefined behavior identical
// to what it would in the original Rust (bytemuck::Pod misuse).
package storage

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// arena is the shared, refcounted mapping a Journal and all of its reader
// clones point into. It is unmapped exactly once, when the last handle
// referencing it is closed.
type arena struct {
	data []byte // mmap'd region, or a plain slice in in-memory mode
	file *os.File
	refs atomic.Int64
}

func (a *arena) retain() { a.refs.Add(1) }

func (a *arena) release() error {
	if a.refs.Add(-1) != 0 {
		return nil
	}
	var err error
	if a.file != nil {
		if uerr := unix.Munmap(a.data); uerr != nil {
			err = fmt.Errorf("storage: munmap: %w", uerr)
		}
		if cerr := a.file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("storage: close backing file: %w", cerr)
		}
	}
	return err
}

// MmapJournal is a contiguous, append-only byte arena with a single writer
// and any number of wait-free readers, holding a dense array of T.
type MmapJournal[T any] struct {
	arena       *arena
	writeCursor *atomic.Uint64 // bytes; shared between writer and all readers
	capacity    uint64         // bytes
	readOnly    bool
}

func recordSize[T any]() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// CreateJournal allocates/maps capacity records of T.
//
// If path is empty, the journal is backed by an ordinary Go byte slice
// (in-memory mode); no anonymous mapping is created. Otherwise it creates (truncating any existing content)
// a file of exactly capacity*sizeof(T) bytes and maps it.
func CreateJournal[T any](path string, capacity uint64) (*MmapJournal[T], error) {
	size := capacity * recordSize[T]()

	a := &arena{}
	if path == "" {
		a.data = make([]byte, size)
	} else {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("storage: create journal file: %w", err)
		}
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, fmt.Errorf("storage: truncate journal file: %w", err)
		}
		data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("storage: mmap journal file: %w", err)
		}
		a.data = data
		a.file = f
	}
	a.retain()

	return &MmapJournal[T]{
		arena:       a,
		writeCursor: &atomic.Uint64{},
		capacity:    size,
	}, nil
}

// LoadJournal maps an existing file at its on-disk length.
//
// The write cursor is runtime-only and is NOT persisted: a loaded journal
// always starts with writeCursor == 0, even though the file's bytes are
// still present on disk. This is deliberate, and it is inconsistent with
// resuming a store across restarts; a deployment that needs to resume must
// persist the record count itself (e.g. a sentinel record or a sidecar
// file) and seek the reader/writer accordingly.
func LoadJournal[T any](path string) (*MmapJournal[T], error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: open journal file: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: stat journal file: %w", err)
	}
	size := fi.Size()
	if size == 0 {
		f.Close()
		return nil, fmt.Errorf("storage: journal file %q is empty", path)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("storage: mmap journal file: %w", err)
	}

	a := &arena{data: data, file: f}
	a.retain()

	return &MmapJournal[T]{
		arena:       a,
		writeCursor: &atomic.Uint64{},
		capacity:    uint64(size),
	}, nil
}

// Append copies v at the current write cursor and publishes the advanced
// cursor with release ordering. Panics if this would exceed capacity, or if
// called on a reader-only handle.
func (j *MmapJournal[T]) Append(v T) {
	if j.readOnly {
		panic("storage: append called on a reader handle")
	}
	rs := recordSize[T]()
	pos := j.writeCursor.Load()
	end := pos + rs
	if end > j.capacity {
		panic("storage: journal is full, cannot append more data")
	}
	dst := j.arena.data[pos:end]
	src := unsafe.Slice((*byte)(unsafe.Pointer(&v)), rs)
	copy(dst, src)
	j.writeCursor.Store(end) // release: publishes the bytes just written
}

// WriteCursor returns the current write cursor, in bytes, with acquire
// ordering relative to Append's release.
func (j *MmapJournal[T]) WriteCursor() uint64 {
	return j.writeCursor.Load()
}

// Capacity returns the journal's total capacity in bytes.
func (j *MmapJournal[T]) Capacity() uint64 {
	return j.capacity
}

// ReadAt returns the record at the given byte offset. offset+sizeof(T) must
// not exceed the mapping's length.
func (j *MmapJournal[T]) ReadAt(offset uint64) T {
	rs := recordSize[T]()
	end := offset + rs
	if end > uint64(len(j.arena.data)) {
		panic("storage: read crosses buffer boundary")
	}
	return *(*T)(unsafe.Pointer(&j.arena.data[offset]))
}

// ReadWindow returns n consecutive records starting at offset, as a slice
// aliasing the mapping directly (no copy).
func (j *MmapJournal[T]) ReadWindow(offset uint64, n int) []T {
	rs := recordSize[T]()
	size := rs * uint64(n)
	end := offset + size
	if end > uint64(len(j.arena.data)) {
		panic("storage: read window crosses buffer boundary")
	}
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&j.arena.data[offset])), n)
}

// Reader returns an alias sharing this journal's mapping and write cursor,
// marked read-only: calling Append on it panics.
func (j *MmapJournal[T]) Reader() *MmapJournal[T] {
	j.arena.retain()
	return &MmapJournal[T]{
		arena:       j.arena,
		writeCursor: j.writeCursor,
		capacity:    j.capacity,
		readOnly:    true,
	}
}

// Close releases this handle's reference to the underlying mapping,
// unmapping (and closing the backing file, if any) once the last handle
// sharing it is closed.
func (j *MmapJournal[T]) Close() error {
	return j.arena.release()
}
