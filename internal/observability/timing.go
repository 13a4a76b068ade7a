package observability

import (
	"time"

	"donna/internal/logging"
)

// Timer logs wall-clock durations of named stages. Disabled timers cost one
// branch, so call sites never need their own guard.
type Timer struct {
	enabled bool
	logger  logging.Logger
}

func NewTimer(enabled bool, logger logging.Logger) *Timer {
	return &Timer{enabled: enabled, logger: logging.OrNop(logger)}
}

// Track returns a stop function for the named stage.
//
//	defer timer.Track("planning")()
func (t *Timer) Track(stage string) func() {
	if !t.enabled {
		return func() {}
	}
	started := time.Now()
	return func() {
		t.logger.Info("[TIMING] %s took %.2fs", stage, time.Since(started).Seconds())
	}
}
