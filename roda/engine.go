// Package roda is the embeddable state-computer runtime: it owns the
// worker threads that drive journal/slot stores, indexes, and pipeline
// stages, and exposes the Engine and Stage Engine facilities those
// workers are built from.
package roda

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sys/unix"

	"github.com/tislib/roda-state/opcounter"
	"github.com/tislib/roda-state/store"
)

func init() {
	// Detect a container CPU quota so GOMAXPROCS reflects what's actually
	// schedulable, not the host's full core count. Core pinning is not
	// affected: its modulus is runtime.NumCPU().
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	// RootPath is the directory file-backed stores are created under. It
	// does not decide whether a store is file-backed: that is the store's
	// own InMemory option. A store with InMemory false and no RootPath,
	// here or in its own options, gets the path "/{Name}.store".
	RootPath string
	// PinCores, when true, pins each worker's OS thread to core k mod
	// runtime.NumCPU() round-robin as workers are spawned.
	PinCores bool
	// Logger receives structured diagnostic events (worker panics, and the
	// latency summaries of stages wrapped while EnableLatencyStats is on).
	// The zero value is zerolog's no-op logger.
	Logger zerolog.Logger
}

type workerHandle struct {
	done     chan struct{}
	panicked atomic.Bool
}

// Engine owns the shared running flag, op-counter registry, and worker
// set backing every store/index/pipeline created through it.
type Engine struct {
	opts     EngineOptions
	running  atomic.Bool
	counters *opcounter.Registry

	mu          sync.Mutex
	workers     []*workerHandle
	nextCoreIdx atomic.Uint64

	latencyStatsEnabled atomic.Bool
}

// New builds an in-memory-only Engine with default options.
func New() *Engine {
	return NewWithOptions(EngineOptions{})
}

// NewWithRootPath builds an Engine whose file-backed stores live under
// rootPath.
func NewWithRootPath(rootPath string) *Engine {
	return NewWithOptions(EngineOptions{RootPath: rootPath})
}

// NewWithOptions builds an Engine per opts.
func NewWithOptions(opts EngineOptions) *Engine {
	e := &Engine{
		opts:     opts,
		counters: opcounter.NewRegistry(),
	}
	e.running.Store(true)
	return e
}

// SetPinCores toggles core pinning for workers spawned after this call;
// workers already running are unaffected.
func (e *Engine) SetPinCores(pin bool) {
	e.opts.PinCores = pin
}

// EnableLatencyStats toggles whether stages added to a StageEngine built
// on top of this engine (via AddStage/AddStageWithCapacity) get wrapped in
// pipe.Latency instrumentation. Only stages added after this call observe
// the new setting; stages already wired into a running pipeline keep
// whatever instrumentation they were built with.
func (e *Engine) EnableLatencyStats(enabled bool) {
	e.latencyStatsEnabled.Store(enabled)
}

// LatencyStatsEnabled reports the current EnableLatencyStats setting.
func (e *Engine) LatencyStatsEnabled() bool {
	return e.latencyStatsEnabled.Load()
}

// Logger returns the engine's configured logger.
func (e *Engine) Logger() zerolog.Logger {
	return e.opts.Logger
}

// Counters exposes the engine's op-counter registry, used by stores and
// indexes to register per-reader progress counters feeding AwaitIdle.
func (e *Engine) Counters() *opcounter.Registry {
	return e.counters
}

// RootPath returns the configured root path for file-backed stores.
func (e *Engine) RootPath() string {
	return e.opts.RootPath
}

// RunWorker spawns a dedicated OS thread that repeatedly calls step until
// the engine is closed. step must return whether it performed any work;
// the runtime uses that signal to drive the idle backoff ladder below.
// A panic inside step is captured and surfaced via IsAnyWorkerPanicked
// rather than crashing the process.
func (e *Engine) RunWorker(step func() bool) {
	idx := e.nextCoreIdx.Add(1) - 1

	h := &workerHandle{done: make(chan struct{})}
	e.mu.Lock()
	e.workers = append(e.workers, h)
	e.mu.Unlock()

	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.panicked.Store(true)
				e.opts.Logger.Error().Interface("panic", r).Msg("roda: worker panicked")
			}
		}()

		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if e.opts.PinCores {
			pinToCore(int(idx))
		}

		idle := 0
		for e.running.Load() {
			if step() {
				idle = 0
				continue
			}
			idle++
			switch {
			case idle <= 10:
				// hot re-enter: work may already be visible again.
			case idle <= 1000:
				spinHint()
			default:
				runtime.Gosched()
			}
		}
	}()
}

// pinToCore pins the calling OS thread (already locked via
// runtime.LockOSThread) to core idx mod runtime.NumCPU().
func pinToCore(idx int) {
	n := runtime.NumCPU()
	if n == 0 {
		return
	}
	var set unix.CPUSet
	set.Set(idx % n)
	_ = unix.SchedSetaffinity(0, &set)
}

// spinHint busy-spins a short, fixed iteration count — Go exposes no PAUSE
// intrinsic directly, so this approximates the architectural spin hint the
// backoff ladder calls for between the hot-reenter and yield phases.
func spinHint() {
	for i := 0; i < 30; i++ {
	}
}

// IsAnyWorkerPanicked reports whether any worker spawned via RunWorker has
// panicked.
func (e *Engine) IsAnyWorkerPanicked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, h := range e.workers {
		if h.panicked.Load() {
			return true
		}
	}
	return false
}

// AwaitIdle samples the aggregate op-counter every millisecond, returning
// as soon as two consecutive samples are equal, or when timeout elapses.
// This is a progress-based heuristic, not a safety barrier: a worker that
// is mid-step when sampled can still be missed.
func (e *Engine) AwaitIdle(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	last := e.counters.Total()
	for time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
		cur := e.counters.Total()
		if cur == last {
			return
		}
		last = cur
	}
}

// Close sets the running flag to false and blocks until every worker
// spawned via RunWorker has exited its loop.
func (e *Engine) Close() error {
	e.running.Store(false)
	e.mu.Lock()
	handles := append([]*workerHandle(nil), e.workers...)
	e.mu.Unlock()
	for _, h := range handles {
		<-h.done
	}
	return nil
}

// NewJournalStore creates or loads a typed journal store through the
// engine's shared op-counter registry and root path. Go methods can't
// introduce new type parameters, so this is a package-level generic
// function rather than an Engine method (mirroring how AddStage below must
// also be free functions).
func NewJournalStore[T any](e *Engine, opts store.JournalStoreOptions) (*store.JournalStore[T], error) {
	if opts.RootPath == "" {
		opts.RootPath = e.RootPath()
	}
	s, err := store.NewJournalStore[T](e.counters, opts)
	if err != nil {
		return nil, fmt.Errorf("roda: new journal store: %w", err)
	}
	return s, nil
}

// NewSlotStore creates or loads a typed slot store through the engine's
// shared op-counter registry and root path.
func NewSlotStore[T any](e *Engine, opts store.SlotStoreOptions) (*store.SlotStore[T], error) {
	if opts.RootPath == "" {
		opts.RootPath = e.RootPath()
	}
	s, err := store.NewSlotStore[T](e.counters, opts)
	if err != nil {
		return nil, fmt.Errorf("roda: new slot store: %w", err)
	}
	return s, nil
}
