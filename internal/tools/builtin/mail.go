package builtin

import (
	"context"
	"encoding/json"
	"strings"

	"donna/internal/agent/ports"
	"donna/internal/errors"
	"donna/internal/logging"
	"donna/internal/tools/google"
)

// MailService is the slice of the Gmail backend the mail tools need.
type MailService interface {
	List(ctx context.Context, query string, maxResults int) ([]google.Email, error)
	Send(ctx context.Context, to, subject, body string) (*google.SendResult, error)
}

// inboxScope pins every search to the primary inbox. User queries are
// appended, never substituted, so the tool cannot be steered into other
// labels.
const inboxScope = "in:inbox category:primary"

// GetEmailsTool reads inbox mail. It also implements PostProcessor: after a
// successful fetch it caches the result on the session and annotates the
// payload with a triage summary.
type GetEmailsTool struct {
	mail   MailService
	logger logging.Logger
}

func NewGetEmailsTool(mail MailService, logger logging.Logger) *GetEmailsTool {
	return &GetEmailsTool{mail: mail, logger: logging.OrNop(logger)}
}

func (t *GetEmailsTool) Execute(ctx context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	query := inboxScope
	if user := stringArg(call.Arguments, "query"); user != "" {
		query = query + " " + user
	}
	maxResults := clampInt(call.Arguments, "max_results", 5, 1, 25)

	emails, err := t.mail.List(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	return &ports.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		OK:      true,
		Content: toContent(emails),
	}, nil
}

// PostProcess caches the fetched emails on the session and appends a triage
// block so response synthesis can prioritize without re-reading every body.
func (t *GetEmailsTool) PostProcess(_ context.Context, result *ports.ToolResult, session *ports.Session) (*ports.ToolResult, error) {
	if result == nil || !result.OK {
		return result, nil
	}
	var emails []google.Email
	if err := json.Unmarshal([]byte(result.Content), &emails); err != nil {
		return result, nil
	}

	session.LatestOutput["get_emails"] = json.RawMessage(result.Content)

	annotated := map[string]any{
		"emails": emails,
		"triage": triageEmails(emails),
	}
	enriched := *result
	enriched.Content = toContent(annotated)
	t.logger.Debug("Triaged %d emails for session %s", len(emails), session.ID)
	return &enriched, nil
}

type triageSummary struct {
	Total      int      `json:"total"`
	Urgent     []string `json:"urgent"`
	NeedsReply []string `json:"needs_reply"`
}

var urgentMarkers = []string{"urgent", "asap", "immediately", "action required", "overdue", "final notice"}

var replyMarkers = []string{"?", "please confirm", "let me know", "rsvp", "can you", "could you"}

func triageEmails(emails []google.Email) triageSummary {
	summary := triageSummary{Total: len(emails), Urgent: []string{}, NeedsReply: []string{}}
	for _, email := range emails {
		subject := strings.ToLower(email.Subject)
		body := strings.ToLower(email.Body)
		if containsAny(subject, urgentMarkers) || containsAny(body, urgentMarkers) {
			summary.Urgent = append(summary.Urgent, email.Subject)
			continue
		}
		if containsAny(subject, replyMarkers) || containsAny(body, replyMarkers) {
			summary.NeedsReply = append(summary.NeedsReply, email.Subject)
		}
	}
	return summary
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func (t *GetEmailsTool) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "get_emails",
		Description: "Read inbox emails. Search is always scoped to the primary inbox; pass an optional Gmail query to narrow further.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"query":       {Type: "string", Description: "Optional Gmail query string appended to the inbox scope."},
				"max_results": {Type: "integer", Description: "Number of emails to return (1..25, default 5)."},
			},
		},
	}
}

func (t *GetEmailsTool) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "get_emails", Version: "1.0.0", Category: "mail"}
}

// SendEmailTool sends one email. It is registered guarded: dispatch only
// happens after an explicit human approval.
type SendEmailTool struct {
	mail MailService
}

func NewSendEmailTool(mail MailService) *SendEmailTool {
	return &SendEmailTool{mail: mail}
}

func (t *SendEmailTool) Execute(ctx context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	to := stringArg(call.Arguments, "to")
	if to == "" {
		return nil, errors.NewValidation("to")
	}
	subject := stringArg(call.Arguments, "subject")
	body := stringArg(call.Arguments, "body")

	sent, err := t.mail.Send(ctx, to, subject, body)
	if err != nil {
		return nil, err
	}
	return &ports.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		OK:      true,
		Content: toContent(map[string]string{"id": sent.ID, "threadId": sent.ThreadID, "to": to}),
	}, nil
}

func (t *SendEmailTool) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "send_email",
		Description: "Send an email. Requires an explicit recipient; never use for drafts.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"to":      {Type: "string", Description: "Recipient email address."},
				"subject": {Type: "string", Description: "Email subject."},
				"body":    {Type: "string", Description: "Email body."},
			},
			Required: []string{"to", "subject", "body"},
		},
	}
}

func (t *SendEmailTool) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "send_email", Version: "1.0.0", Category: "mail"}
}
