// Package measure provides HdrHistogram-backed latency tracking, used both
// to instrument individual pipeline stages (the pipe package's Latency
// wrapper) and to measure true end-to-end record latency.
package measure

import (
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Stats is a point-in-time snapshot of a LatencyMeasurer's distribution, in
// nanoseconds.
type Stats struct {
	Count int64
	Min   int64
	Max   int64
	Mean  float64
	P50   int64
	P90   int64
	P99   int64
	P999  int64
	P9999 int64
}

// LatencyMeasurer is a high-precision latency tracker backed by an
// HdrHistogram spanning 1ns to 1000s at 3 significant figures. It supports
// sampling (recording only every Nth observation) to bound overhead in
// high-throughput call sites.
type LatencyMeasurer struct {
	hist        *hdrhistogram.Histogram
	sum         uint64
	stepInstant time.Time
	sampleRate  uint64
	step        uint64
}

// New builds a LatencyMeasurer that records every sampleRate-th
// observation. sampleRate must be >= 1.
func New(sampleRate uint64) *LatencyMeasurer {
	if sampleRate == 0 {
		panic("measure: sample_rate must be positive")
	}
	return &LatencyMeasurer{
		hist:        hdrhistogram.New(1, 1_000_000_000_000, 3),
		sampleRate:  sampleRate,
		stepInstant: time.Now(),
	}
}

// Measure records duration, subject to sampling.
func (m *LatencyMeasurer) Measure(duration time.Duration) {
	m.step++
	if m.step%m.sampleRate != 0 {
		return
	}
	m.measureLocal(duration)
}

func (m *LatencyMeasurer) measureLocal(duration time.Duration) {
	nanos := duration.Nanoseconds()
	switch {
	case nanos < 1:
		nanos = 1
	case nanos > 1_000_000_000_000:
		nanos = 1_000_000_000_000
	}
	_ = m.hist.RecordValue(nanos)
	m.sum += uint64(nanos)
}

// MeasureGuard times one operation via a deferred call:
//
//	defer m.MeasureGuard()()
//
// and records its elapsed wall time, subject to sampling.
func (m *LatencyMeasurer) MeasureGuard() func() {
	m.step++
	if m.step%m.sampleRate != 0 {
		return func() {}
	}
	start := time.Now()
	return func() { m.measureLocal(time.Since(start)) }
}

// StepMeasure records the time elapsed since the previous StepMeasure call
// (or since the measurer was created, for the first call), subject to
// sampling.
func (m *LatencyMeasurer) StepMeasure() {
	m.step++
	if m.step%m.sampleRate != 0 {
		return
	}
	now := time.Now()
	m.measureLocal(now.Sub(m.stepInstant))
	m.stepInstant = now
}

// Reset clears all recorded samples.
func (m *LatencyMeasurer) Reset() {
	m.hist.Reset()
	m.sum = 0
}

// GetStats returns a snapshot of the current distribution. The zero value
// is returned if no samples have been recorded yet.
func (m *LatencyMeasurer) GetStats() Stats {
	count := m.hist.TotalCount()
	if count == 0 {
		return Stats{}
	}
	return Stats{
		Count: count,
		Min:   m.hist.Min(),
		Max:   m.hist.Max(),
		Mean:  m.hist.Mean(),
		P50:   m.hist.ValueAtQuantile(50),
		P90:   m.hist.ValueAtQuantile(90),
		P99:   m.hist.ValueAtQuantile(99),
		P999:  m.hist.ValueAtQuantile(99.9),
		P9999: m.hist.ValueAtQuantile(99.99),
	}
}

// FormatStats renders the current distribution as a compact, tab-separated
// line suitable for a single log entry.
func (m *LatencyMeasurer) FormatStats() string {
	s := m.GetStats()
	if s.Count == 0 {
		return "no stats collected yet"
	}
	return fmt.Sprintf(
		"min=%s\tmax=%s\tmean=%s\tp50=%s\tp90=%s\tp99=%s\tp999=%s\tp9999=%s",
		formatDuration(float64(s.Min)),
		formatDuration(float64(s.Max)),
		formatDuration(s.Mean),
		formatDuration(float64(s.P50)),
		formatDuration(float64(s.P90)),
		formatDuration(float64(s.P99)),
		formatDuration(float64(s.P999)),
		formatDuration(float64(s.P9999)),
	)
}

// IsOutlier reports whether duration exceeds the current p99.9, requiring
// at least 100 samples before it will ever report true.
func (m *LatencyMeasurer) IsOutlier(duration time.Duration) bool {
	s := m.GetStats()
	if s.Count < 100 {
		return false
	}
	return duration.Nanoseconds() > s.P999
}

func formatDuration(nanos float64) string {
	switch {
	case nanos < 1_000:
		return fmt.Sprintf("%.1fns", nanos)
	case nanos < 1_000_000:
		return fmt.Sprintf("%.1fus", nanos/1_000)
	case nanos < 1_000_000_000:
		return fmt.Sprintf("%.1fms", nanos/1_000_000)
	default:
		return fmt.Sprintf("%.2fs", nanos/1_000_000_000)
	}
}
