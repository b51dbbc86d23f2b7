package roda

import (
	"fmt"
	"runtime"
	"time"

	"github.com/tislib/roda-state/pipe"
	"github.com/tislib/roda-state/stage"
	"github.com/tislib/roda-state/store"
)

// Defaults applied when EnableLatencyStats is on and AddStage wraps a
// stage in pipe.Latency: sample every 16th call, log a summary every
// 10,000 processed items.
const (
	latencySampleRate     = 16
	latencyReportInterval = 10_000
)

// StageEngine specializes Engine for a linear pipeline: an input journal
// store feeding stages, each running on its own worker, connected end to
// end by intermediate journal stores.
type StageEngine[In, Out any] struct {
	engine          *Engine
	inputStore      *store.JournalStore[In]
	outputReader    *store.Reader[Out]
	stageCount      int
	defaultCapacity int
}

// NewStageEngine creates an engine with no stages and a 1024-record input
// capacity; it passes input straight through until AddStage is called.
func NewStageEngine[T any]() *StageEngine[T, T] {
	return NewStageEngineWithCapacity[T](1024)
}

// NewStageEngineWithCapacity creates an engine with no stages, sizing its
// input journal store to capacity records.
func NewStageEngineWithCapacity[T any](capacity int) *StageEngine[T, T] {
	e := New()
	input, err := NewJournalStore[T](e, store.JournalStoreOptions{
		Name: "input", Size: uint64(capacity), InMemory: true,
	})
	if err != nil {
		panic(fmt.Errorf("roda: new stage engine: %w", err))
	}
	return &StageEngine[T, T]{
		engine: e, inputStore: input, outputReader: input.Reader(),
		defaultCapacity: capacity,
	}
}

// AddStage appends stage to the pipeline, allocating its output store at
// the engine's default capacity. Go's type system can't let a method
// change its own receiver's type parameters, so — mirroring the original's
// own consuming add_stage(self) -> StageEngine<In, NextOut> — this is a
// free function: bind the returned engine to a new variable at the call
// site, e.g. `next, err := AddStage[In, Cur, Next](se, myStage)`.
func AddStage[In, Cur, Next any](se *StageEngine[In, Cur], s stage.Stage[Cur, Next]) (*StageEngine[In, Next], error) {
	return AddStageWithCapacity[In, Cur, Next](se, se.defaultCapacity, s)
}

// AddStageWithCapacity appends stage to the pipeline with an explicit
// output store capacity. If the engine's EnableLatencyStats is on at the
// time AddStageWithCapacity is called, s is wrapped in pipe.NewLatency
// before it's handed to the stage's worker.
func AddStageWithCapacity[In, Cur, Next any](se *StageEngine[In, Cur], capacity int, s stage.Stage[Cur, Next]) (*StageEngine[In, Next], error) {
	stageIdx := se.stageCount
	name := fmt.Sprintf("stage_%d", stageIdx)

	if se.engine.LatencyStatsEnabled() {
		s = pipe.NewLatency[Cur, Next](se.engine.Logger(), name, latencyReportInterval, latencySampleRate, s)
	}

	nextStore, err := NewJournalStore[Next](se.engine, store.JournalStoreOptions{
		Name: name, Size: uint64(capacity), InMemory: true,
	})
	if err != nil {
		return nil, fmt.Errorf("roda: add stage %d: %w", stageIdx, err)
	}

	reader := se.outputReader
	nextReader := nextStore.Reader()

	se.engine.RunWorker(func() bool {
		didWork := false
		for reader.Next() {
			didWork = true
			reader.With(func(data *Cur) {
				s.Process(*data, stage.CollectorFunc[Next](func(out Next) {
					nextStore.Append(out)
				}))
			})
		}
		return didWork
	})

	return &StageEngine[In, Next]{
		engine: se.engine, inputStore: se.inputStore, outputReader: nextReader,
		stageCount: stageIdx + 1, defaultCapacity: se.defaultCapacity,
	}, nil
}

// Send appends data to the start of the pipeline. Single-producer, like
// the underlying journal store.
func (se *StageEngine[In, Out]) Send(data In) {
	se.inputStore.Append(data)
}

// Receive blocks (spin/yield, never suspending the goroutine) until an
// output item is visible, or panics if any worker has died.
func (se *StageEngine[In, Out]) Receive() Out {
	for {
		if v, ok := se.TryReceive(); ok {
			return v
		}
		if se.engine.IsAnyWorkerPanicked() {
			panic("roda: worker panicked, pipeline is broken")
		}
		spinHint()
		runtime.Gosched()
	}
}

// TryReceive is the non-blocking variant of Receive.
func (se *StageEngine[In, Out]) TryReceive() (Out, bool) {
	if se.outputReader.Next() {
		return se.outputReader.Get()
	}
	var zero Out
	return zero, false
}

// OutputSize returns the number of items currently visible in the output
// store.
func (se *StageEngine[In, Out]) OutputSize() uint64 {
	return se.outputReader.Size()
}

// EnableLatencyStats toggles latency instrumentation on the underlying
// engine; only stages added via AddStage/AddStageWithCapacity after this
// call are wrapped in pipe.Latency.
func (se *StageEngine[In, Out]) EnableLatencyStats(enabled bool) {
	se.engine.EnableLatencyStats(enabled)
}

// AwaitIdle delegates to the underlying engine's quiescence heuristic.
func (se *StageEngine[In, Out]) AwaitIdle(timeout time.Duration) {
	se.engine.AwaitIdle(timeout)
}

// Close shuts down every stage worker.
func (se *StageEngine[In, Out]) Close() error {
	return se.engine.Close()
}
