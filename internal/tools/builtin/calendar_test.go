package builtin

import (
	"context"
	"testing"
	"time"

	"donna/internal/agent/ports"
	"donna/internal/errors"
	"donna/internal/tools/google"
)

type fakeCalendarService struct {
	lastMin, lastMax string
	lastCount        int
	created          []string
}

func (f *fakeCalendarService) ListEvents(_ context.Context, timeMin, timeMax string, maxResults int) ([]google.Event, error) {
	f.lastMin, f.lastMax, f.lastCount = timeMin, timeMax, maxResults
	return nil, nil
}

func (f *fakeCalendarService) AddEvent(_ context.Context, summary, startISO, endISO, _, _ string) (*google.Event, error) {
	f.created = append(f.created, summary)
	return &google.Event{ID: "e1", Summary: summary, Start: startISO, End: endISO}, nil
}

func TestListEventsDefaultRange(t *testing.T) {
	svc := &fakeCalendarService{}
	tool := NewListEventsTool(svc)
	tool.now = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }

	if _, err := tool.Execute(context.Background(), ports.ToolCall{
		ID: "c1", Name: "list_events", Arguments: map[string]any{},
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if svc.lastMin != "2025-09-01T12:00:00Z" {
		t.Fatalf("timeMin = %q", svc.lastMin)
	}
	if svc.lastMax != "2025-09-08T12:00:00Z" {
		t.Fatalf("timeMax = %q", svc.lastMax)
	}
	if svc.lastCount != 10 {
		t.Fatalf("maxResults = %d", svc.lastCount)
	}
}

func TestListEventsExplicitRangeAndClamp(t *testing.T) {
	svc := &fakeCalendarService{}
	tool := NewListEventsTool(svc)

	if _, err := tool.Execute(context.Background(), ports.ToolCall{
		ID: "c1", Name: "list_events",
		Arguments: map[string]any{
			"time_min":    "2025-10-01T00:00:00Z",
			"time_max":    "2025-10-02T00:00:00Z",
			"max_results": float64(100),
		},
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if svc.lastMin != "2025-10-01T00:00:00Z" || svc.lastMax != "2025-10-02T00:00:00Z" {
		t.Fatalf("range = %q..%q", svc.lastMin, svc.lastMax)
	}
	if svc.lastCount != 25 {
		t.Fatalf("maxResults = %d, want clamp to 25", svc.lastCount)
	}
}

func TestAddEventRequiredFields(t *testing.T) {
	tool := NewAddEventTool(&fakeCalendarService{})
	for _, args := range []map[string]any{
		{},
		{"summary": "Dinner"},
		{"summary": "Dinner", "start_iso": "2025-09-05T19:00:00"},
	} {
		if _, err := tool.Execute(context.Background(), ports.ToolCall{
			ID: "c1", Name: "add_event", Arguments: args,
		}); !errors.IsValidation(err) {
			t.Fatalf("args %v: err = %v, want validation error", args, err)
		}
	}
}

func TestAddEvent(t *testing.T) {
	svc := &fakeCalendarService{}
	tool := NewAddEventTool(svc)

	result, err := tool.Execute(context.Background(), ports.ToolCall{
		ID: "c1", Name: "add_event",
		Arguments: map[string]any{
			"summary":   "Dinner",
			"start_iso": "2025-09-05T19:00:00",
			"end_iso":   "2025-09-05T21:00:00",
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.OK || len(svc.created) != 1 {
		t.Fatalf("result = %+v, created = %v", result, svc.created)
	}
}
