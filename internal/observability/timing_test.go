package observability

import (
	"strings"
	"testing"
)

type captureLogger struct {
	lines []string
}

func (c *captureLogger) Debug(string, ...any) {}
func (c *captureLogger) Info(format string, args ...any) {
	c.lines = append(c.lines, format)
}
func (c *captureLogger) Warn(string, ...any)  {}
func (c *captureLogger) Error(string, ...any) {}

func TestTimerDisabledLogsNothing(t *testing.T) {
	log := &captureLogger{}
	timer := NewTimer(false, log)
	timer.Track("planning")()
	if len(log.lines) != 0 {
		t.Fatalf("lines = %v", log.lines)
	}
}

func TestTimerEnabledLogsStage(t *testing.T) {
	log := &captureLogger{}
	timer := NewTimer(true, log)
	timer.Track("planning")()
	if len(log.lines) != 1 || !strings.Contains(log.lines[0], "[TIMING]") {
		t.Fatalf("lines = %v", log.lines)
	}
}
