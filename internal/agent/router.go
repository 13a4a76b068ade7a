package agent

import "donna/internal/agent/ports"

// Stage names the state machine's positions. The engine drives transitions;
// these routing functions only decide where to go next.
type Stage string

const (
	StagePlanning    Stage = "planning"
	StageGating      Stage = "gating"
	StageDispatching Stage = "dispatching"
	StageResponding  Stage = "responding"
)

// RouteAfterPlanning picks the stage following a fresh plan: a respond plan
// short-circuits straight to response synthesis, everything else is gated.
func RouteAfterPlanning(plan ports.PlannedAction) Stage {
	if plan.IsRespond() {
		return StageResponding
	}
	return StageGating
}

// RouteAfterGate picks the stage following gate evaluation: a blocked turn
// loops back to planning so the model can react to the denial, a passed turn
// dispatches.
func RouteAfterGate(decision GateDecision) Stage {
	if decision.Allow {
		return StageDispatching
	}
	return StagePlanning
}
