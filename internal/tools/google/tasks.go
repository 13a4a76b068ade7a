package google

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTasksBaseURL = "https://tasks.googleapis.com/tasks/v1"

// defaultTaskList is the user's primary task list alias.
const defaultTaskList = "@default"

// Tasks manages to-dos through the Tasks REST API.
type Tasks struct {
	client  *Client
	baseURL string
	now     func() time.Time
}

// NewTasks builds the Tasks service against the user's default list.
func NewTasks(client *Client) *Tasks {
	return &Tasks{client: client, baseURL: defaultTasksBaseURL, now: time.Now}
}

// WithBaseURL overrides the API host, for tests.
func (t *Tasks) WithBaseURL(base string) *Tasks {
	t.baseURL = strings.TrimRight(base, "/")
	return t
}

// Task is one to-do item.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Notes     string `json:"notes,omitempty"`
	Due       string `json:"due,omitempty"`
	Status    string `json:"status,omitempty"`
	Completed string `json:"completed,omitempty"`
}

// List returns open tasks, optionally filtered by due-date range (RFC 3339).
func (t *Tasks) List(ctx context.Context, dueMin, dueMax string, maxResults int) ([]Task, error) {
	params := url.Values{
		"maxResults":    {strconv.Itoa(maxResults)},
		"showCompleted": {"false"},
	}
	if dueMin != "" {
		params.Set("dueMin", dueMin)
	}
	if dueMax != "" {
		params.Set("dueMax", dueMax)
	}
	endpoint := fmt.Sprintf("%s/lists/%s/tasks", t.baseURL, url.PathEscape(defaultTaskList))

	var listing struct {
		Items []Task `json:"items"`
	}
	if err := t.client.getJSON(ctx, endpoint, params, &listing); err != nil {
		return nil, err
	}
	return listing.Items, nil
}

// Add creates a task. due, when set, must be RFC 3339 in UTC.
func (t *Tasks) Add(ctx context.Context, title, notes, due string) (*Task, error) {
	body := Task{Title: title, Notes: notes, Due: due}
	endpoint := fmt.Sprintf("%s/lists/%s/tasks", t.baseURL, url.PathEscape(defaultTaskList))

	var created Task
	if err := t.client.postJSON(ctx, endpoint, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Complete marks one task completed, stamping the completion time.
func (t *Tasks) Complete(ctx context.Context, taskID string) (*Task, error) {
	completedAt := t.now().UTC().Truncate(time.Second).Format(time.RFC3339)
	body := map[string]string{
		"status":    "completed",
		"completed": completedAt,
	}
	endpoint := fmt.Sprintf("%s/lists/%s/tasks/%s",
		t.baseURL, url.PathEscape(defaultTaskList), url.PathEscape(taskID))

	var updated Task
	if err := t.client.patchJSON(ctx, endpoint, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
