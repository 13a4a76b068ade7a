package ports

import (
	"context"
	"encoding/json"
	"time"
)

// SessionVersion is bumped when the persisted session layout changes.
const SessionVersion = 1

// Approval is the tri-state human decision for the current planned action.
type Approval string

const (
	ApprovalUnset    Approval = "unset"
	ApprovalApproved Approval = "approved"
	ApprovalRejected Approval = "rejected"
)

// Session is one long-lived conversation thread. History is append-only and
// never reordered. Exactly one stage writes to a session at a time.
type Session struct {
	Version int    `json:"version"`
	ID      string `json:"id"`

	Messages []Message `json:"messages"`

	// Planned is the current planned action; PendingCalls carries the full
	// proposed batch for the turn (a plan may bundle several calls).
	Planned      *PlannedAction `json:"planned_action,omitempty"`
	PendingCalls []ToolCall     `json:"pending_calls,omitempty"`

	Approval         Approval `json:"approval"`
	AwaitingApproval bool     `json:"awaiting_approval"`

	// LastResults holds the most recent dispatch outcome; LatestOutput is a
	// rolling per-action cache of the newest tool payload, consumed by
	// result-dependent branches such as inbox triage.
	LastResults  []ToolResult               `json:"last_results,omitempty"`
	LatestOutput map[string]json.RawMessage `json:"latest_output,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize defaults optional fields so stage code never sees a nil map or an
// empty approval state. Called on every load and before every stage.
func (s *Session) Normalize() {
	if s.Version == 0 {
		s.Version = SessionVersion
	}
	if s.Approval == "" {
		s.Approval = ApprovalUnset
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	if s.LatestOutput == nil {
		s.LatestOutput = map[string]json.RawMessage{}
	}
}

// Append adds a message to the history.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()
}

// LatestAssistantText returns the content of the newest assistant message
// that carries plain text, or "".
func (s *Session) LatestAssistantText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		msg := s.Messages[i]
		if msg.Role == RoleAssistant && msg.Content != "" {
			return msg.Content
		}
	}
	return ""
}

// PendingApproval describes a suspended turn awaiting a human decision. It is
// a plain value returned to the caller; scheduling the human round-trip is the
// front end's job.
type PendingApproval struct {
	SessionID string         `json:"session_id"`
	Action    string         `json:"action"`
	Args      map[string]any `json:"args"`
	Calls     []ToolCall     `json:"calls,omitempty"`
}

// SessionStore persists sessions.
type SessionStore interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, sessionID string) error
}
