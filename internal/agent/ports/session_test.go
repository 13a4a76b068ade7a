package ports

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	var session Session
	session.Normalize()

	assert.Equal(t, SessionVersion, session.Version)
	assert.Equal(t, ApprovalUnset, session.Approval)
	assert.NotNil(t, session.Messages)
	assert.NotNil(t, session.LatestOutput)
}

func TestSessionRoundTripsThroughJSON(t *testing.T) {
	session := Session{
		Version: SessionVersion,
		ID:      "s1",
		Planned: &PlannedAction{Name: "send_email", Args: map[string]any{"to": "a@b.c"}},
		PendingCalls: []ToolCall{
			{ID: "c1", Name: "send_email", Arguments: map[string]any{"to": "a@b.c"}},
		},
		Approval:         ApprovalUnset,
		AwaitingApproval: true,
	}
	session.Append(UserMessage("send it"))

	data, err := json.Marshal(&session)
	require.NoError(t, err)

	var loaded Session
	require.NoError(t, json.Unmarshal(data, &loaded))
	loaded.Normalize()

	assert.True(t, loaded.AwaitingApproval)
	assert.Equal(t, ApprovalUnset, loaded.Approval)
	require.NotNil(t, loaded.Planned)
	assert.Equal(t, "send_email", loaded.Planned.Name)
	require.Len(t, loaded.PendingCalls, 1)
	assert.Equal(t, "c1", loaded.PendingCalls[0].ID)
}

func TestLatestAssistantTextSkipsToolMessages(t *testing.T) {
	var session Session
	session.Normalize()
	session.Append(UserMessage("hi"))
	session.Append(AssistantMessage("first", nil))
	session.Append(ToolMessage(ToolResult{CallID: "c1", Name: "list_tasks", OK: true, Content: "{}"}))
	session.Append(AssistantMessage("", []ToolCall{{ID: "c2", Name: "list_tasks"}}))

	assert.Equal(t, "first", session.LatestAssistantText())
}

func TestIsRespondSentinel(t *testing.T) {
	assert.True(t, PlannedAction{}.IsRespond())
	assert.True(t, PlannedAction{Name: ActionRespond}.IsRespond())
	assert.False(t, PlannedAction{Name: "send_email"}.IsRespond())
}

func TestToolMessageCarriesErrorContent(t *testing.T) {
	msg := ToolMessage(ToolResult{CallID: "c1", Name: "send_email", OK: false, Err: "Action not approved."})
	assert.Equal(t, RoleTool, msg.Role)
	assert.Equal(t, "Action not approved.", msg.Content)
	assert.Equal(t, "c1", msg.ToolCallID)
}
