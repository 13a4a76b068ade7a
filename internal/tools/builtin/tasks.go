package builtin

import (
	"context"
	"time"

	"donna/internal/agent/ports"
	"donna/internal/errors"
	"donna/internal/tools/google"
	"donna/internal/tools/taskresolve"
)

// TaskService is the slice of the Tasks backend the to-do tools need.
type TaskService interface {
	List(ctx context.Context, dueMin, dueMax string, maxResults int) ([]google.Task, error)
	Add(ctx context.Context, title, notes, due string) (*google.Task, error)
	Complete(ctx context.Context, taskID string) (*google.Task, error)
}

// parseDueISO converts a user-facing ISO timestamp to the UTC RFC 3339 form
// the Tasks API requires. Naive timestamps are interpreted in loc.
func parseDueISO(value string, loc *time.Location) (string, error) {
	layouts := []struct {
		layout string
		local  bool
	}{
		{time.RFC3339, false},
		{"2006-01-02T15:04:05", true},
		{"2006-01-02T15:04", true},
		{"2006-01-02", true},
	}
	for _, l := range layouts {
		var parsed time.Time
		var err error
		if l.local {
			parsed, err = time.ParseInLocation(l.layout, value, loc)
		} else {
			parsed, err = time.Parse(l.layout, value)
		}
		if err == nil {
			return parsed.UTC().Truncate(time.Second).Format(time.RFC3339), nil
		}
	}
	return "", errors.NewValidationReason("due_iso", "not a recognized ISO 8601 timestamp: "+value)
}

// AddTaskTool creates one or more tasks. Registered guarded.
type AddTaskTool struct {
	tasks    TaskService
	location *time.Location
}

func NewAddTaskTool(tasks TaskService, location *time.Location) *AddTaskTool {
	if location == nil {
		location = time.UTC
	}
	return &AddTaskTool{tasks: tasks, location: location}
}

func (t *AddTaskTool) Execute(ctx context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	titles := stringListArg(call.Arguments, "titles")
	if len(titles) == 0 {
		if single := stringArg(call.Arguments, "title"); single != "" {
			titles = []string{single}
		}
	}
	if len(titles) == 0 {
		return nil, errors.NewValidation("titles")
	}

	notes := stringArg(call.Arguments, "notes")
	due := ""
	if raw := stringArg(call.Arguments, "due_iso"); raw != "" {
		parsed, err := parseDueISO(raw, t.location)
		if err != nil {
			return nil, err
		}
		due = parsed
	}

	created := []string{}
	failures := []string{}
	for _, title := range titles {
		if _, err := t.tasks.Add(ctx, title, notes, due); err != nil {
			failures = append(failures, title+": "+err.Error())
			continue
		}
		created = append(created, title)
	}
	return &ports.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		OK:      true,
		Content: toContent(map[string]any{"created": created, "errors": failures}),
	}, nil
}

func (t *AddTaskTool) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "add_task",
		Description: "Create one or more tasks in the user's to-do list.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"titles":  {Type: "array", Description: "Task titles to create.", Items: &ports.Property{Type: "string"}},
				"notes":   {Type: "string", Description: "Optional extra details applied to every created task."},
				"due_iso": {Type: "string", Description: "Optional ISO 8601 due date applied to every created task."},
			},
			Required: []string{"titles"},
		},
	}
}

func (t *AddTaskTool) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "add_task", Version: "1.0.0", Category: "tasks"}
}

// ListTasksTool lists open tasks with optional due-date filtering.
type ListTasksTool struct {
	tasks    TaskService
	location *time.Location
}

func NewListTasksTool(tasks TaskService, location *time.Location) *ListTasksTool {
	if location == nil {
		location = time.UTC
	}
	return &ListTasksTool{tasks: tasks, location: location}
}

func (t *ListTasksTool) Execute(ctx context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	dueMin := ""
	if raw := stringArg(call.Arguments, "due_min_iso"); raw != "" {
		parsed, err := parseDueISO(raw, t.location)
		if err != nil {
			return nil, err
		}
		dueMin = parsed
	}
	dueMax := ""
	if raw := stringArg(call.Arguments, "due_max_iso"); raw != "" {
		parsed, err := parseDueISO(raw, t.location)
		if err != nil {
			return nil, err
		}
		dueMax = parsed
	}
	maxResults := clampInt(call.Arguments, "max_results", 10, 1, 50)

	tasks, err := t.tasks.List(ctx, dueMin, dueMax, maxResults)
	if err != nil {
		return nil, err
	}
	return &ports.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		OK:      true,
		Content: toContent(tasks),
	}, nil
}

func (t *ListTasksTool) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "list_tasks",
		Description: "List open tasks, optionally filtered by due-date range.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"due_min_iso": {Type: "string", Description: "Optional ISO lower bound on due date."},
				"due_max_iso": {Type: "string", Description: "Optional ISO upper bound on due date."},
				"max_results": {Type: "integer", Description: "Number of tasks to return (1..50, default 10)."},
			},
		},
	}
}

func (t *ListTasksTool) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "list_tasks", Version: "1.0.0", Category: "tasks"}
}

// CompleteTaskTool completes one, many, or all tasks, resolving titles to IDs
// deterministically and reporting identifiers it could not settle instead of
// guessing. Registered guarded.
type CompleteTaskTool struct {
	tasks TaskService
}

func NewCompleteTaskTool(tasks TaskService) *CompleteTaskTool {
	return &CompleteTaskTool{tasks: tasks}
}

type completionReport struct {
	Completed []string `json:"completed"`
	Count     int      `json:"count"`
	NotFound  []string `json:"not_found"`
	Ambiguous []string `json:"ambiguous"`
	Message   string   `json:"message,omitempty"`
}

func (t *CompleteTaskTool) Execute(ctx context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	open, err := t.tasks.List(ctx, "", "", 100)
	if err != nil {
		return nil, err
	}

	report := completionReport{Completed: []string{}, NotFound: []string{}, Ambiguous: []string{}}
	if len(open) == 0 {
		report.Message = "No open tasks."
		return t.result(call, report), nil
	}

	if boolArg(call.Arguments, "complete_all") {
		for _, task := range open {
			if task.ID == "" {
				continue
			}
			if _, err := t.tasks.Complete(ctx, task.ID); err != nil {
				return nil, err
			}
			report.Completed = append(report.Completed, task.Title)
		}
		report.Count = len(report.Completed)
		return t.result(call, report), nil
	}

	identifiers := taskresolve.SplitIdentifiers(call.Arguments["task_identifiers"])
	if len(identifiers) == 0 {
		return nil, errors.NewValidationReason("task_identifiers",
			"provide task_identifiers or set complete_all=true")
	}

	refs := make([]taskresolve.TaskRef, 0, len(open))
	titleByID := make(map[string]string, len(open))
	for _, task := range open {
		refs = append(refs, taskresolve.TaskRef{ID: task.ID, Title: task.Title})
		titleByID[task.ID] = task.Title
	}

	for _, match := range taskresolve.ResolveAll(identifiers, refs) {
		switch match.Outcome {
		case taskresolve.Resolved:
			if _, err := t.tasks.Complete(ctx, match.Task.ID); err != nil {
				return nil, err
			}
			report.Completed = append(report.Completed, titleByID[match.Task.ID])
		case taskresolve.Ambiguous:
			report.Ambiguous = append(report.Ambiguous, match.Identifier)
		default:
			report.NotFound = append(report.NotFound, match.Identifier)
		}
	}
	report.Count = len(report.Completed)
	return t.result(call, report), nil
}

func (t *CompleteTaskTool) result(call ports.ToolCall, report completionReport) *ports.ToolResult {
	return &ports.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		OK:      true,
		Content: toContent(report),
	}
}

func (t *CompleteTaskTool) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "complete_task",
		Description: "Complete one, many, or all tasks. Accepts task IDs or titles; reports not_found and ambiguous identifiers instead of guessing.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"task_identifiers": {Type: "string", Description: "Task ID or title, a comma-separated list, or a JSON array."},
				"complete_all":     {Type: "boolean", Description: "Complete every open task instead of resolving identifiers."},
			},
		},
	}
}

func (t *CompleteTaskTool) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "complete_task", Version: "1.0.0", Category: "tasks"}
}
