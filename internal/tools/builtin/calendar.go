package builtin

import (
	"context"
	"time"

	"donna/internal/agent/ports"
	"donna/internal/errors"
	"donna/internal/tools/google"
)

// CalendarService is the slice of the Calendar backend the event tools need.
type CalendarService interface {
	ListEvents(ctx context.Context, timeMin, timeMax string, maxResults int) ([]google.Event, error)
	AddEvent(ctx context.Context, summary, startISO, endISO, description, location string) (*google.Event, error)
}

// ListEventsTool lists calendar events. A missing range defaults to now
// through the next seven days.
type ListEventsTool struct {
	calendar CalendarService
	now      func() time.Time
}

func NewListEventsTool(calendar CalendarService) *ListEventsTool {
	return &ListEventsTool{calendar: calendar, now: time.Now}
}

func (t *ListEventsTool) Execute(ctx context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	timeMin := stringArg(call.Arguments, "time_min")
	timeMax := stringArg(call.Arguments, "time_max")
	if timeMin == "" || timeMax == "" {
		defaultMin, defaultMax := t.defaultRange()
		if timeMin == "" {
			timeMin = defaultMin
		}
		if timeMax == "" {
			timeMax = defaultMax
		}
	}
	maxResults := clampInt(call.Arguments, "max_results", 10, 1, 25)

	events, err := t.calendar.ListEvents(ctx, timeMin, timeMax, maxResults)
	if err != nil {
		return nil, err
	}
	return &ports.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		OK:      true,
		Content: toContent(events),
	}, nil
}

func (t *ListEventsTool) defaultRange() (string, string) {
	now := t.now().UTC().Truncate(time.Second)
	const layout = "2006-01-02T15:04:05Z"
	return now.Format(layout), now.Add(7 * 24 * time.Hour).Format(layout)
}

func (t *ListEventsTool) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "list_events",
		Description: "List calendar events inside a date range. Defaults to now through the next 7 days.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"time_min":    {Type: "string", Description: "ISO start of the range (optional)."},
				"time_max":    {Type: "string", Description: "ISO end of the range (optional)."},
				"max_results": {Type: "integer", Description: "Number of events to return (1..25, default 10)."},
			},
		},
	}
}

func (t *ListEventsTool) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "list_events", Version: "1.0.0", Category: "calendar"}
}

// AddEventTool creates a calendar event. Registered guarded.
type AddEventTool struct {
	calendar CalendarService
}

func NewAddEventTool(calendar CalendarService) *AddEventTool {
	return &AddEventTool{calendar: calendar}
}

func (t *AddEventTool) Execute(ctx context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	summary := stringArg(call.Arguments, "summary")
	if summary == "" {
		return nil, errors.NewValidation("summary")
	}
	startISO := stringArg(call.Arguments, "start_iso")
	if startISO == "" {
		return nil, errors.NewValidation("start_iso")
	}
	endISO := stringArg(call.Arguments, "end_iso")
	if endISO == "" {
		return nil, errors.NewValidation("end_iso")
	}

	created, err := t.calendar.AddEvent(ctx, summary, startISO, endISO,
		stringArg(call.Arguments, "description"),
		stringArg(call.Arguments, "location"))
	if err != nil {
		return nil, err
	}
	return &ports.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		OK:      true,
		Content: toContent(created),
	}, nil
}

func (t *AddEventTool) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "add_event",
		Description: "Create a calendar event. Times are interpreted in the user's local timezone unless an explicit offset is given.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"summary":     {Type: "string", Description: "Event title."},
				"start_iso":   {Type: "string", Description: "ISO 8601 start time."},
				"end_iso":     {Type: "string", Description: "ISO 8601 end time."},
				"description": {Type: "string", Description: "Optional details."},
				"location":    {Type: "string", Description: "Optional location."},
			},
			Required: []string{"summary", "start_iso", "end_iso"},
		},
	}
}

func (t *AddEventTool) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "add_event", Version: "1.0.0", Category: "calendar"}
}
