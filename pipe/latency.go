package pipe

import (
	"github.com/rs/zerolog"

	"github.com/tislib/roda-state/measure"
	"github.com/tislib/roda-state/stage"
)

// Latency wraps an inner stage, timing each Process call with an
// E2ELatencyMeasurer and periodically logging a percentile summary.
type Latency[In, Out any] struct {
	name           string
	reportInterval int
	logger         zerolog.Logger
	inner          stage.Stage[In, Out]
	measurer       *measure.E2ELatencyMeasurer
	count          int
}

// NewLatency wraps inner with latency instrumentation: every sampleRate-th
// call is timed via measure.E2ELatencyMeasurer, and a summary is logged
// every reportInterval processed items.
func NewLatency[In, Out any](logger zerolog.Logger, name string, reportInterval int, sampleRate uint64, inner stage.Stage[In, Out]) *Latency[In, Out] {
	return &Latency[In, Out]{
		name: name, reportInterval: reportInterval, logger: logger,
		inner: inner, measurer: measure.NewE2E(sampleRate),
	}
}

func (l *Latency[In, Out]) Process(data In, collector stage.Collector[Out]) {
	tracker := l.measurer.AddTracker()
	l.inner.Process(data, collector)
	l.measurer.Measure(tracker)

	l.count++
	if l.count%l.reportInterval == 0 {
		l.logger.Info().Str("stage", l.name).Str("latency", l.measurer.Measurer.FormatStats()).Msg("pipeline latency")
	}
}

// Stats returns the current latency distribution for this stage.
func (l *Latency[In, Out]) Stats() measure.Stats {
	return l.measurer.Measurer.GetStats()
}
