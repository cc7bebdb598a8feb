package skills

import (
	"time"

	"github.com/okian/tripbuddy/pkg/logger"
)

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithLookback bounds how far back practice events are read.
func WithLookback(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.lookback = d
		}
	}
}

// WithMaxEvents caps the number of most recent events considered.
func WithMaxEvents(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxEvents = n
		}
	}
}

// WithLessonTable replaces the built-in lesson weights.
func WithLessonTable(t *LessonTable) Option {
	return func(a *Analyzer) {
		if t != nil {
			a.lessons = t
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}
