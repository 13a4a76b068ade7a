package agent

import (
	"context"
	"testing"

	"donna/internal/agent/ports"
	"donna/internal/toolregistry"
)

type stubTool struct {
	name     string
	executed []ports.ToolCall
	result   string
	fail     error
}

func (s *stubTool) Execute(_ context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	s.executed = append(s.executed, call)
	if s.fail != nil {
		return nil, s.fail
	}
	content := s.result
	if content == "" {
		content = "ok"
	}
	return &ports.ToolResult{CallID: call.ID, Name: s.name, OK: true, Content: content}, nil
}

func (s *stubTool) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{Name: s.name, Parameters: ports.ParameterSchema{Type: "object"}}
}

func (s *stubTool) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: s.name, Version: "1.0.0"}
}

// testRegistry registers one guarded and one unguarded stub action.
func testRegistry(t *testing.T) (*toolregistry.Registry, *stubTool, *stubTool) {
	t.Helper()
	reg := toolregistry.New(nil)
	guarded := &stubTool{name: "send_email"}
	unguarded := &stubTool{name: "list_tasks"}
	if err := reg.RegisterGuarded(guarded); err != nil {
		t.Fatalf("RegisterGuarded: %v", err)
	}
	if err := reg.Register(unguarded); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg, guarded, unguarded
}

func TestGatePassesUnguardedBatch(t *testing.T) {
	reg, _, _ := testRegistry(t)
	gate := NewGate(reg)

	decision := gate.Evaluate(ports.ApprovalUnset, []ports.ToolCall{
		{ID: "c1", Name: "list_tasks"},
	})
	if !decision.Allow {
		t.Fatalf("decision = %+v", decision)
	}
}

func TestGateBlocksMixedBatchWhenUnset(t *testing.T) {
	reg, _, _ := testRegistry(t)
	gate := NewGate(reg)

	calls := []ports.ToolCall{
		{ID: "c1", Name: "send_email"},
		{ID: "c2", Name: "list_tasks"},
	}
	decision := gate.Evaluate(ports.ApprovalUnset, calls)
	if decision.Allow {
		t.Fatal("mixed batch must block without approval")
	}
	if len(decision.Blocked) != 2 {
		t.Fatalf("blocked = %+v", decision.Blocked)
	}
	for i, blocked := range decision.Blocked {
		if blocked.CallID != calls[i].ID {
			t.Fatalf("blocked[%d] correlates %q, want %q", i, blocked.CallID, calls[i].ID)
		}
		if blocked.OK || blocked.Err != "Action requires approval." {
			t.Fatalf("blocked[%d] = %+v", i, blocked)
		}
	}
}

func TestGateBlocksWithRejectionMessage(t *testing.T) {
	reg, _, _ := testRegistry(t)
	gate := NewGate(reg)

	decision := gate.Evaluate(ports.ApprovalRejected, []ports.ToolCall{
		{ID: "c1", Name: "send_email"},
	})
	if decision.Allow {
		t.Fatal("rejected approval must block")
	}
	if decision.Blocked[0].Err != "Action not approved." {
		t.Fatalf("blocked = %+v", decision.Blocked[0])
	}
}

func TestGatePassesGuardedWhenApproved(t *testing.T) {
	reg, _, _ := testRegistry(t)
	gate := NewGate(reg)

	decision := gate.Evaluate(ports.ApprovalApproved, []ports.ToolCall{
		{ID: "c1", Name: "send_email"},
	})
	if !decision.Allow {
		t.Fatalf("decision = %+v", decision)
	}
}

func TestRouting(t *testing.T) {
	if got := RouteAfterPlanning(ports.PlannedAction{Name: "respond"}); got != StageResponding {
		t.Fatalf("respond routes to %q", got)
	}
	if got := RouteAfterPlanning(ports.PlannedAction{Name: "send_email"}); got != StageGating {
		t.Fatalf("action routes to %q", got)
	}
	if got := RouteAfterGate(GateDecision{Allow: true}); got != StageDispatching {
		t.Fatalf("allow routes to %q", got)
	}
	if got := RouteAfterGate(GateDecision{Allow: false}); got != StagePlanning {
		t.Fatalf("block routes to %q", got)
	}
}
