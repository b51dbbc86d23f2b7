package measure

import (
	"sync"
	"time"
)

var (
	startTimeOnce sync.Once
	startTime     time.Time
)

func relativeNanos() uint64 {
	startTimeOnce.Do(func() { startTime = time.Now() })
	return uint64(time.Since(startTime).Nanoseconds())
}

// E2ELatencyMeasurer measures true end-to-end latency across asynchronous
// boundaries (e.g. journal append to index visibility) using a single
// process-wide monotonic clock, rather than a stage-local time.Now/defer
// pair that can't span goroutines.
type E2ELatencyMeasurer struct {
	Measurer *LatencyMeasurer
}

// NewE2E builds an E2ELatencyMeasurer recording every sampleRate-th
// tracked span.
func NewE2E(sampleRate uint64) *E2ELatencyMeasurer {
	return &E2ELatencyMeasurer{Measurer: New(sampleRate)}
}

// AddTracker returns an opaque timestamp to later pass to Measure — call
// this where the span starts (e.g. when a record is appended).
func (e *E2ELatencyMeasurer) AddTracker() uint64 {
	return relativeNanos()
}

// Measure records the elapsed time since tracker was obtained from
// AddTracker — call this where the span ends (e.g. when the record
// becomes visible in an index).
func (e *E2ELatencyMeasurer) Measure(tracker uint64) {
	nanos := relativeNanos() - tracker
	e.Measurer.Measure(time.Duration(nanos))
}
