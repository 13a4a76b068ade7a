package ports

import "time"

// Message roles follow the chat-completions wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in a session's append-only history.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID correlates a tool message with the call that produced it.
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Timestamp  time.Time      `json:"timestamp,omitzero"`
}

// UserMessage builds a history entry for human input.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text, Timestamp: time.Now()}
}

// AssistantMessage builds a history entry for an assistant reply.
func AssistantMessage(text string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls, Timestamp: time.Now()}
}

// ToolMessage builds a history entry carrying a tool result.
func ToolMessage(result ToolResult) Message {
	content := result.Content
	if !result.OK {
		content = result.Err
	}
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: result.CallID,
		Name:       result.Name,
		Timestamp:  time.Now(),
	}
}
