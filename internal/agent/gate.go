package agent

import (
	"donna/internal/agent/ports"
)

// Approval block messages, surfaced to the planner as tool errors.
const (
	msgRequiresApproval = "Action requires approval."
	msgNotApproved      = "Action not approved."
)

// Gate decides whether a turn's proposed calls may dispatch. It is pure: the
// engine owns all session mutation, the gate only inspects and synthesizes.
type Gate struct {
	registry ports.ActionRegistry
}

func NewGate(registry ports.ActionRegistry) *Gate {
	return &Gate{registry: registry}
}

// GateDecision is the outcome of evaluating one turn's calls.
type GateDecision struct {
	Allow bool
	// Blocked carries one failed result per proposed call when Allow is
	// false, correlated by the original call ids.
	Blocked []ports.ToolResult
}

// AnyGuarded reports whether the batch contains at least one guarded call.
func (g *Gate) AnyGuarded(calls []ports.ToolCall) bool {
	for _, call := range calls {
		if g.registry.IsGuarded(call.Name) {
			return true
		}
	}
	return false
}

// Evaluate applies the approval policy to a batch of proposed calls.
// An unguarded batch always passes. A batch with any guarded call passes only
// under an explicit approval; otherwise every call in the batch is blocked,
// guarded or not, so a mixed batch can never partially execute.
func (g *Gate) Evaluate(approval ports.Approval, calls []ports.ToolCall) GateDecision {
	if !g.AnyGuarded(calls) {
		return GateDecision{Allow: true}
	}
	if approval == ports.ApprovalApproved {
		return GateDecision{Allow: true}
	}

	reason := msgRequiresApproval
	if approval == ports.ApprovalRejected {
		reason = msgNotApproved
	}
	blocked := make([]ports.ToolResult, 0, len(calls))
	for _, call := range calls {
		blocked = append(blocked, ports.ToolResult{
			CallID: call.ID,
			Name:   call.Name,
			OK:     false,
			Err:    reason,
		})
	}
	return GateDecision{Allow: false, Blocked: blocked}
}
