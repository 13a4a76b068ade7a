package ports

import "context"

// ActionRespond is the sentinel plan name for a plain conversational reply.
// It is not an action in the registry; it never dispatches anything.
const ActionRespond = "respond"

// ToolCall is a planner-proposed invocation of one action. ID is an opaque
// correlation token threaded through to the resulting ToolResult.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the outcome of one tool call. Err is a human-readable string;
// no Go error value crosses a stage boundary.
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Content string `json:"content,omitempty"`
	Err     string `json:"error,omitempty"`
}

// PlannedAction is the planner's decision for a turn: a registry action with
// arguments, or the respond sentinel.
type PlannedAction struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// IsRespond reports whether the plan is the no-op conversational sentinel.
func (p PlannedAction) IsRespond() bool {
	return p.Name == "" || p.Name == ActionRespond
}

// ToolExecutor executes a single action.
type ToolExecutor interface {
	// Execute runs the tool with given arguments.
	Execute(ctx context.Context, call ToolCall) (*ToolResult, error)

	// Definition returns the tool's schema for the planner.
	Definition() ToolDefinition

	// Metadata returns tool metadata.
	Metadata() ToolMetadata
}

// PostProcessor is implemented by tools whose dispatched result needs an
// analysis pass before response synthesis (e.g. inbox triage). The engine
// checks for it after dispatch.
type PostProcessor interface {
	PostProcess(ctx context.Context, result *ToolResult, session *Session) (*ToolResult, error)
}

// ActionRegistry is the static action catalog. Guarded tagging is policy
// owned by the registry, never derived from tool metadata.
type ActionRegistry interface {
	// Get retrieves an action executor by name.
	Get(name string) (ToolExecutor, error)

	// List returns definitions for every registered action.
	List() []ToolDefinition

	// IsKnown reports whether name is a registered action.
	IsKnown(name string) bool

	// IsGuarded reports whether name requires human approval before dispatch.
	IsGuarded(name string) bool
}

// ToolDefinition describes an action for the planner.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ToolMetadata contains tool information.
type ToolMetadata struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// ParameterSchema defines tool parameters (JSON Schema format).
type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a single parameter.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Items       *Property `json:"items,omitempty"`
	Enum        []any     `json:"enum,omitempty"`
}
