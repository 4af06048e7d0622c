package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// Timer measures one operation and logs its duration when stopped.
// Operations slower than the threshold are logged at warn level.
type Timer struct {
	start     time.Time
	name      string
	threshold time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewTimer starts a timer. A zero threshold never warns.
func NewTimer(name string, threshold time.Duration, log zerolog.Logger) *Timer {
	return &Timer{
		start:     time.Now(),
		name:      name,
		threshold: threshold,
		log:       log,
		now:       time.Now,
	}
}

// Stop logs and returns the elapsed time
func (t *Timer) Stop() time.Duration {
	duration := t.now().Sub(t.start)

	if t.threshold > 0 && duration > t.threshold {
		t.log.Warn().
			Str("operation", t.name).
			Dur("duration", duration).
			Dur("threshold", t.threshold).
			Msg("Slow operation detected")
		return duration
	}

	t.log.Debug().
		Str("operation", t.name).
		Dur("duration", duration).
		Msg("Operation completed")
	return duration
}
