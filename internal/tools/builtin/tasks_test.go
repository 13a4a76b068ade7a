package builtin

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"donna/internal/agent/ports"
	"donna/internal/errors"
	"donna/internal/tools/google"
)

type fakeTaskService struct {
	open      []google.Task
	added     []google.Task
	completed []string
}

func (f *fakeTaskService) List(_ context.Context, _, _ string, _ int) ([]google.Task, error) {
	return f.open, nil
}

func (f *fakeTaskService) Add(_ context.Context, title, notes, due string) (*google.Task, error) {
	task := google.Task{ID: "new-" + title, Title: title, Notes: notes, Due: due}
	f.added = append(f.added, task)
	return &task, nil
}

func (f *fakeTaskService) Complete(_ context.Context, taskID string) (*google.Task, error) {
	f.completed = append(f.completed, taskID)
	return &google.Task{ID: taskID, Status: "completed"}, nil
}

func decodeReport(t *testing.T, result *ports.ToolResult) completionReport {
	t.Helper()
	var report completionReport
	if err := json.Unmarshal([]byte(result.Content), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	return report
}

func TestCompleteTaskBuckets(t *testing.T) {
	svc := &fakeTaskService{open: []google.Task{
		{ID: "t1", Title: "Buy milk"},
		{ID: "t2", Title: "Call plumber"},
		{ID: "t3", Title: "Call dentist"},
	}}
	tool := NewCompleteTaskTool(svc)

	result, err := tool.Execute(context.Background(), ports.ToolCall{
		ID:        "c1",
		Name:      "complete_task",
		Arguments: map[string]any{"task_identifiers": "buy milk, call, water plants"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	report := decodeReport(t, result)
	if len(report.Completed) != 1 || report.Completed[0] != "Buy milk" {
		t.Fatalf("completed = %v", report.Completed)
	}
	if report.Count != 1 {
		t.Fatalf("count = %d", report.Count)
	}
	if len(report.Ambiguous) != 1 || report.Ambiguous[0] != "call" {
		t.Fatalf("ambiguous = %v", report.Ambiguous)
	}
	if len(report.NotFound) != 1 || report.NotFound[0] != "water plants" {
		t.Fatalf("not_found = %v", report.NotFound)
	}
	if len(svc.completed) != 1 || svc.completed[0] != "t1" {
		t.Fatalf("backend completions = %v", svc.completed)
	}
}

func TestCompleteTaskAll(t *testing.T) {
	svc := &fakeTaskService{open: []google.Task{
		{ID: "t1", Title: "One"},
		{ID: "t2", Title: "Two"},
	}}
	tool := NewCompleteTaskTool(svc)

	result, err := tool.Execute(context.Background(), ports.ToolCall{
		ID:        "c1",
		Name:      "complete_task",
		Arguments: map[string]any{"complete_all": true},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	report := decodeReport(t, result)
	if report.Count != 2 || len(svc.completed) != 2 {
		t.Fatalf("report = %+v, completions = %v", report, svc.completed)
	}
}

func TestCompleteTaskNoOpenTasks(t *testing.T) {
	tool := NewCompleteTaskTool(&fakeTaskService{})
	result, err := tool.Execute(context.Background(), ports.ToolCall{
		ID:        "c1",
		Name:      "complete_task",
		Arguments: map[string]any{"task_identifiers": "anything"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	report := decodeReport(t, result)
	if report.Message != "No open tasks." || report.Count != 0 {
		t.Fatalf("report = %+v", report)
	}
}

func TestCompleteTaskNoIdentifiers(t *testing.T) {
	tool := NewCompleteTaskTool(&fakeTaskService{open: []google.Task{{ID: "t1", Title: "One"}}})
	_, err := tool.Execute(context.Background(), ports.ToolCall{
		ID:        "c1",
		Name:      "complete_task",
		Arguments: map[string]any{},
	})
	if !errors.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestAddTaskMultipleTitles(t *testing.T) {
	svc := &fakeTaskService{}
	tool := NewAddTaskTool(svc, time.UTC)

	result, err := tool.Execute(context.Background(), ports.ToolCall{
		ID:   "c1",
		Name: "add_task",
		Arguments: map[string]any{
			"titles": []any{"buy milk", "  ", "call mom"},
			"notes":  "from chat",
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var report struct {
		Created []string `json:"created"`
		Errors  []string `json:"errors"`
	}
	if err := json.Unmarshal([]byte(result.Content), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(report.Created) != 2 {
		t.Fatalf("created = %v", report.Created)
	}
	if len(svc.added) != 2 || svc.added[0].Notes != "from chat" {
		t.Fatalf("added = %+v", svc.added)
	}
}

func TestAddTaskMissingTitles(t *testing.T) {
	tool := NewAddTaskTool(&fakeTaskService{}, time.UTC)
	_, err := tool.Execute(context.Background(), ports.ToolCall{
		ID: "c1", Name: "add_task", Arguments: map[string]any{},
	})
	if !errors.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestAddTaskDueConvertedToUTC(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("zone data unavailable: %v", err)
	}
	svc := &fakeTaskService{}
	tool := NewAddTaskTool(svc, loc)

	_, err = tool.Execute(context.Background(), ports.ToolCall{
		ID:   "c1",
		Name: "add_task",
		Arguments: map[string]any{
			"titles":  []any{"renew passport"},
			"due_iso": "2025-09-10T09:00:00",
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// 09:00 IST is 03:30 UTC.
	if svc.added[0].Due != "2025-09-10T03:30:00Z" {
		t.Fatalf("due = %q", svc.added[0].Due)
	}
}

func TestParseDueISO(t *testing.T) {
	got, err := parseDueISO("2025-09-10T09:00:00Z", time.UTC)
	if err != nil || got != "2025-09-10T09:00:00Z" {
		t.Fatalf("got %q, err %v", got, err)
	}
	got, err = parseDueISO("2025-09-10", time.UTC)
	if err != nil || got != "2025-09-10T00:00:00Z" {
		t.Fatalf("got %q, err %v", got, err)
	}
	if _, err := parseDueISO("next tuesday", time.UTC); !errors.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}
