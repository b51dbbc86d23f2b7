package pipe

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tislib/roda-state/stage"
)

// Progress logs a throughput line every interval processed items. It
// passes every item through unchanged.
type Progress[T any] struct {
	name         string
	interval     int
	logger       zerolog.Logger
	count        int
	lastInstant  time.Time
	startInstant time.Time
}

// NewProgress builds a Progress stage. interval must be > 0.
func NewProgress[T any](logger zerolog.Logger, name string, interval int) *Progress[T] {
	if interval <= 0 {
		panic("pipe: interval must be greater than 0")
	}
	now := time.Now()
	return &Progress[T]{
		name: name, interval: interval, logger: logger,
		lastInstant: now, startInstant: now,
	}
}

func (p *Progress[T]) Process(item T, collector stage.Collector[T]) {
	p.count++
	if p.count%p.interval == 0 {
		now := time.Now()
		elapsed := now.Sub(p.lastInstant)
		totalElapsed := now.Sub(p.startInstant)

		mps := float64(p.interval) / elapsed.Seconds()
		totalMps := float64(p.count) / totalElapsed.Seconds()

		p.logger.Info().
			Str("stage", p.name).
			Str("processed", formatCount(float64(p.count))).
			Str("rate", formatCount(mps)+"/s").
			Str("avg_rate", formatCount(totalMps)+"/s").
			Msg("pipeline progress")
		p.lastInstant = now
	}
	collector.Push(item)
}

func formatCount(val float64) string {
	switch {
	case val < 1_000:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f", val)
		}
		return fmt.Sprintf("%.2f", val)
	case val < 1_000_000:
		return fmt.Sprintf("%.2fk", val/1_000)
	case val < 1_000_000_000:
		return fmt.Sprintf("%.2fm", val/1_000_000)
	case val < 1_000_000_000_000:
		return fmt.Sprintf("%.2fb", val/1_000_000_000)
	default:
		return fmt.Sprintf("%.2ft", val/1_000_000_000_000)
	}
}
