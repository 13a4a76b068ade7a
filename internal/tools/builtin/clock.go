package builtin

import (
	"context"
	"time"

	"donna/internal/agent/ports"
)

// ClockTool reports the current time in both UTC and the assistant's
// configured zone, so the planner never has to guess what "now" means.
type ClockTool struct {
	location *time.Location
	zoneName string
	now      func() time.Time
}

// NewClockTool builds the get_current_time action.
func NewClockTool(location *time.Location, zoneName string) *ClockTool {
	if location == nil {
		location = time.UTC
		zoneName = "UTC"
	}
	return &ClockTool{location: location, zoneName: zoneName, now: time.Now}
}

func (t *ClockTool) Execute(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	now := t.now().UTC().Truncate(time.Second)
	payload := map[string]string{
		"utc_now":   now.Format("2006-01-02T15:04:05Z"),
		"local_now": now.In(t.location).Format("2006-01-02T15:04:05-07:00"),
		"timezone":  t.zoneName,
	}
	return &ports.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		OK:      true,
		Content: toContent(payload),
	}, nil
}

func (t *ClockTool) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "get_current_time",
		Description: "Get the current date and time in UTC and the user's local timezone.",
		Parameters: ports.ParameterSchema{
			Type:       "object",
			Properties: map[string]ports.Property{},
		},
	}
}

func (t *ClockTool) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "get_current_time", Version: "1.0.0", Category: "utility"}
}
