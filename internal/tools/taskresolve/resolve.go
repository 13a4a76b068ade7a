package taskresolve

import (
	"strings"
)

// TaskRef is the minimal view of a task the resolver needs.
type TaskRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Outcome classifies a single identifier resolution.
type Outcome string

const (
	Resolved  Outcome = "resolved"
	Ambiguous Outcome = "ambiguous"
	NotFound  Outcome = "not_found"
)

// Match is the result of resolving one identifier. Candidates is populated
// only for Ambiguous, listing every task that tied.
type Match struct {
	Identifier string
	Outcome    Outcome
	Task       TaskRef
	Candidates []TaskRef
}

// Resolve maps one user-supplied identifier to a task using tiered matching:
// id match first, then exact title, then substring title. Each tier resolves
// only when it yields exactly one task; more than one is ambiguous and later
// tiers are not consulted. All comparisons are case-insensitive.
//
// The tier order makes resolution deterministic: an identifier that happens
// to be both some task's id and another task's title always means the id.
func Resolve(identifier string, tasks []TaskRef) Match {
	needle := strings.ToLower(strings.TrimSpace(identifier))
	match := Match{Identifier: identifier, Outcome: NotFound}
	if needle == "" {
		return match
	}

	for _, task := range tasks {
		if strings.ToLower(task.ID) == needle {
			match.Outcome = Resolved
			match.Task = task
			return match
		}
	}

	var exact []TaskRef
	for _, task := range tasks {
		if strings.ToLower(strings.TrimSpace(task.Title)) == needle {
			exact = append(exact, task)
		}
	}
	if len(exact) == 1 {
		match.Outcome = Resolved
		match.Task = exact[0]
		return match
	}
	if len(exact) > 1 {
		match.Outcome = Ambiguous
		match.Candidates = exact
		return match
	}

	var partial []TaskRef
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Title), needle) {
			partial = append(partial, task)
		}
	}
	if len(partial) == 1 {
		match.Outcome = Resolved
		match.Task = partial[0]
		return match
	}
	if len(partial) > 1 {
		match.Outcome = Ambiguous
		match.Candidates = partial
		return match
	}

	return match
}

// ResolveAll resolves each identifier independently against the same task
// list. Order of the input is preserved in the output.
func ResolveAll(identifiers []string, tasks []TaskRef) []Match {
	matches := make([]Match, 0, len(identifiers))
	for _, id := range identifiers {
		matches = append(matches, Resolve(id, tasks))
	}
	return matches
}

// SplitIdentifiers normalizes the planner's task argument into a list of
// identifiers. It accepts a JSON array of strings or a single string which
// may itself carry several comma-separated identifiers.
func SplitIdentifiers(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, splitCommas(s)...)
			}
		}
	case []string:
		for _, s := range v {
			parts = append(parts, splitCommas(s)...)
		}
	case string:
		parts = splitCommas(v)
	}
	return parts
}

func splitCommas(s string) []string {
	var out []string
	for _, piece := range strings.Split(s, ",") {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}
