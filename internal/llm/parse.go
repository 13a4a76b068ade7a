package llm

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"donna/internal/agent/ports"
)

// ParsePlan turns raw planner text into a PlannedAction. Model output is
// untrusted: fenced blocks, trailing commas, single quotes and surrounding
// prose all occur in practice. The chain tries progressively harder repairs
// and, when everything fails, falls back to the respond sentinel so the turn
// degrades into a plain reply instead of an error.
func ParsePlan(raw string) ports.PlannedAction {
	text := StripCodeFence(raw)

	if plan, ok := decodePlan(text); ok {
		return plan
	}
	if repaired, err := jsonrepair.JSONRepair(text); err == nil {
		if plan, ok := decodePlan(repaired); ok {
			return plan
		}
	}
	if span := outermostObject(text); span != "" {
		if plan, ok := decodePlan(span); ok {
			return plan
		}
		if repaired, err := jsonrepair.JSONRepair(span); err == nil {
			if plan, ok := decodePlan(repaired); ok {
				return plan
			}
		}
	}
	return ports.PlannedAction{Name: ports.ActionRespond, Args: map[string]any{}}
}

// StripCodeFence removes a single surrounding markdown fence, with or without
// a language tag. Text without a fence passes through unchanged.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(body[:idx])
		// A language tag has no spaces or braces; anything else is content.
		if firstLine == "" || (!strings.ContainsAny(firstLine, " {}[]") && len(firstLine) < 20) {
			body = body[idx+1:]
		}
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

func decodePlan(text string) (ports.PlannedAction, bool) {
	var wire struct {
		Name string         `json:"name"`
		Args map[string]any `json:"args"`
	}
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return ports.PlannedAction{}, false
	}
	if strings.TrimSpace(wire.Name) == "" {
		return ports.PlannedAction{}, false
	}
	if wire.Args == nil {
		wire.Args = map[string]any{}
	}
	return ports.PlannedAction{Name: strings.TrimSpace(wire.Name), Args: wire.Args}, true
}

// outermostObject returns the substring from the first '{' to the last '}',
// or "" when no such span exists.
func outermostObject(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// DecodeArguments decodes a tool call's JSON-string arguments, repairing
// malformed payloads. Undecodable input yields an empty map.
func DecodeArguments(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err == nil && args != nil {
		return args
	}
	if repaired, err := jsonrepair.JSONRepair(raw); err == nil {
		if err := json.Unmarshal([]byte(repaired), &args); err == nil && args != nil {
			return args
		}
	}
	return map[string]any{}
}
