package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"donna/internal/agent/ports"
	"donna/internal/llm"
	"donna/internal/logging"
)

const defaultPersona = "You are a personal desktop assistant. " +
	"Speak clearly, simply, and concisely. " +
	"Keep answers short unless the user asks for details. " +
	"Never mention internal state, tools, or APIs in your final user-facing answer."

// Planner asks the language model what to do next and validates the answer
// against the action registry. Model output is untrusted end to end: unknown
// actions are dropped and an unparsable plan degrades to a plain reply.
type Planner struct {
	llm      ports.LLMClient
	registry ports.ActionRegistry
	persona  string
	location *time.Location
	zoneName string
	logger   logging.Logger
	now      func() time.Time
}

// PlannerConfig carries the optional knobs for NewPlanner.
type PlannerConfig struct {
	Persona  string
	Location *time.Location
	ZoneName string
}

func NewPlanner(client ports.LLMClient, registry ports.ActionRegistry, config PlannerConfig, logger logging.Logger) *Planner {
	persona := config.Persona
	if persona == "" {
		persona = defaultPersona
	}
	location := config.Location
	zoneName := config.ZoneName
	if location == nil {
		location = time.UTC
		zoneName = "UTC"
	}
	return &Planner{
		llm:      client,
		registry: registry,
		persona:  persona,
		location: location,
		zoneName: zoneName,
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
}

// Plan runs one planning pass for the session. It appends the assistant
// message to the history, attaches the validated plan and calls to the
// session, and resets approval: a fresh plan must never inherit a stale
// decision.
func (p *Planner) Plan(ctx context.Context, session *ports.Session) (ports.PlannedAction, []ports.ToolCall, error) {
	req := ports.CompletionRequest{
		Messages: p.withSystemPrompt(session.Messages),
		Tools:    p.registry.List(),
	}
	resp, err := p.llm.Complete(ctx, req)
	if err != nil {
		return ports.PlannedAction{}, nil, err
	}

	var calls []ports.ToolCall
	for _, call := range resp.ToolCalls {
		if !p.registry.IsKnown(call.Name) {
			p.logger.Warn("Dropping unknown planned action: %s", call.Name)
			continue
		}
		if call.ID == "" {
			call.ID = uuid.NewString()
		}
		if call.Arguments == nil {
			call.Arguments = map[string]any{}
		}
		calls = append(calls, call)
	}

	var plan ports.PlannedAction
	if len(calls) > 0 {
		plan = ports.PlannedAction{Name: calls[0].Name, Args: calls[0].Arguments}
	} else {
		// Some models answer with a JSON plan in the content body instead of
		// a native tool call. Parse defensively and keep it only when it
		// names a registered action.
		parsed := llm.ParsePlan(resp.Content)
		if !parsed.IsRespond() && p.registry.IsKnown(parsed.Name) {
			plan = parsed
			calls = []ports.ToolCall{{
				ID:        uuid.NewString(),
				Name:      parsed.Name,
				Arguments: parsed.Args,
			}}
		} else {
			plan = ports.PlannedAction{Name: ports.ActionRespond, Args: map[string]any{}}
		}
	}

	session.Append(ports.AssistantMessage(resp.Content, calls))
	session.Planned = &plan
	session.PendingCalls = calls
	session.Approval = ports.ApprovalUnset

	p.logger.Debug("Planned action: %s (%d calls)", plan.Name, len(calls))
	return plan, calls, nil
}

// Respond synthesizes a plain reply from the history, without offering tools,
// and appends it to the session.
func (p *Planner) Respond(ctx context.Context, session *ports.Session) (string, error) {
	req := ports.CompletionRequest{
		Messages: p.withSystemPrompt(session.Messages),
	}
	resp, err := p.llm.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	session.Append(ports.AssistantMessage(resp.Content, nil))
	return resp.Content, nil
}

func (p *Planner) withSystemPrompt(history []ports.Message) []ports.Message {
	system := ports.Message{
		Role:    ports.RoleSystem,
		Content: p.persona + "\n\n" + p.datetimeContext(),
	}
	messages := make([]ports.Message, 0, len(history)+1)
	messages = append(messages, system)
	messages = append(messages, history...)
	return messages
}

// datetimeContext renders the current-time fact block so the model can
// resolve relative dates deterministically.
func (p *Planner) datetimeContext() string {
	nowUTC := p.now().UTC().Truncate(time.Second)
	nowLocal := nowUTC.In(p.location)
	return "Current date/time context for planning dates and times:\n" +
		fmt.Sprintf("- UTC now: %s\n", nowUTC.Format("2006-01-02T15:04:05Z")) +
		fmt.Sprintf("- Local now (%s): %s\n", p.zoneName, nowLocal.Format("2006-01-02T15:04:05-07:00")) +
		"Resolve relative dates like today/tomorrow/next week using this context. " +
		"Use the local timezone for scheduling unless the user explicitly asks for another timezone."
}
