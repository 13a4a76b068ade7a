package agent

import (
	"context"
	"fmt"

	"donna/internal/agent/ports"
	"donna/internal/logging"
	"donna/internal/observability"
)

// maxPlanningPasses bounds the plan/dispatch loop within one turn so a model
// stuck proposing rejected or failing actions cannot spin forever.
const maxPlanningPasses = 4

const exhaustedReply = "I couldn't finish that request. Could you rephrase or simplify it?"

// Engine is the session state machine. One turn runs planning, gating,
// dispatching and response synthesis sequentially for a single session;
// distinct sessions are independent and may run on separate goroutines.
//
// Suspension is value-based: Submit returns a PendingApproval instead of a
// reply when a guarded action needs a human decision, and ResolveApproval is
// the only re-entry point.
type Engine struct {
	store      ports.SessionStore
	planner    *Planner
	gate       *Gate
	dispatcher *Dispatcher
	logger     logging.Logger
}

func NewEngine(store ports.SessionStore, planner *Planner, gate *Gate, dispatcher *Dispatcher, logger logging.Logger) *Engine {
	return &Engine{
		store:      store,
		planner:    planner,
		gate:       gate,
		dispatcher: dispatcher,
		logger:     logging.OrNop(logger),
	}
}

// TurnOutcome is the result of one Submit or ResolveApproval invocation:
// either a final reply or a suspension awaiting approval, never both.
type TurnOutcome struct {
	SessionID string
	Reply     string
	Pending   *ports.PendingApproval
}

// Submit feeds a human message into the session and runs the machine until a
// reply is produced or a guarded action suspends the turn. An empty sessionID
// starts a new session. Submitting while a previous approval is still pending
// abandons that pending action.
func (e *Engine) Submit(ctx context.Context, sessionID, text string) (*TurnOutcome, error) {
	session, err := e.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.AwaitingApproval {
		e.logger.Info("Session %s: new message abandons pending approval for %s",
			session.ID, pendingName(session))
		e.clearPending(session)
	}

	session.Append(ports.UserMessage(text))
	return e.runTurn(ctx, session, false)
}

// PendingApproval returns the suspended action for the session, or nil.
func (e *Engine) PendingApproval(ctx context.Context, sessionID string) (*ports.PendingApproval, error) {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Normalize()
	if !session.AwaitingApproval || session.Planned == nil {
		return nil, nil
	}
	return &ports.PendingApproval{
		SessionID: session.ID,
		Action:    session.Planned.Name,
		Args:      session.Planned.Args,
		Calls:     session.PendingCalls,
	}, nil
}

// ResolveApproval applies a human decision to a suspended turn and resumes
// the machine at the gate.
func (e *Engine) ResolveApproval(ctx context.Context, sessionID string, approved bool) (*TurnOutcome, error) {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Normalize()
	if !session.AwaitingApproval {
		return nil, fmt.Errorf("session %s has no pending approval", sessionID)
	}

	if approved {
		session.Approval = ports.ApprovalApproved
	} else {
		session.Approval = ports.ApprovalRejected
	}
	session.AwaitingApproval = false
	return e.runTurn(ctx, session, true)
}

// LatestReply returns the newest assistant text for the session.
func (e *Engine) LatestReply(ctx context.Context, sessionID string) (string, error) {
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return session.LatestAssistantText(), nil
}

// runTurn drives the stage loop. When resuming, the first pass skips planning
// and re-enters at the gate with the persisted plan.
func (e *Engine) runTurn(ctx context.Context, session *ports.Session, resuming bool) (*TurnOutcome, error) {
	for pass := 0; pass < maxPlanningPasses; pass++ {
		var plan ports.PlannedAction
		var calls []ports.ToolCall

		if resuming {
			resuming = false
			if session.Planned == nil {
				return nil, fmt.Errorf("session %s: resume without a persisted plan", session.ID)
			}
			plan = *session.Planned
			calls = session.PendingCalls
		} else {
			planCtx, span := observability.StartSpan(ctx, "planning")
			var err error
			plan, calls, err = e.planner.Plan(planCtx, session)
			span.End()
			if err != nil {
				return nil, err
			}
			if err := e.store.Save(ctx, session); err != nil {
				return nil, err
			}
		}

		if RouteAfterPlanning(plan) == StageResponding {
			return e.finishTurn(ctx, session)
		}

		// Suspend exactly before the gating -> dispatching transition: a
		// guarded batch with no decision yet goes back to the caller.
		if e.gate.AnyGuarded(calls) && session.Approval == ports.ApprovalUnset {
			session.AwaitingApproval = true
			if err := e.store.Save(ctx, session); err != nil {
				return nil, err
			}
			return &TurnOutcome{
				SessionID: session.ID,
				Pending: &ports.PendingApproval{
					SessionID: session.ID,
					Action:    plan.Name,
					Args:      plan.Args,
					Calls:     calls,
				},
			}, nil
		}

		_, gateSpan := observability.StartSpan(ctx, "gating")
		decision := e.gate.Evaluate(session.Approval, calls)
		gateSpan.End()
		if RouteAfterGate(decision) == StagePlanning {
			for _, blocked := range decision.Blocked {
				session.Append(ports.ToolMessage(blocked))
			}
			session.LastResults = decision.Blocked
			e.clearPending(session)
			if err := e.store.Save(ctx, session); err != nil {
				return nil, err
			}
			continue
		}

		dispatchCtx, dispatchSpan := observability.StartSpan(ctx, "dispatching")
		results := e.dispatcher.Dispatch(dispatchCtx, calls, session)
		dispatchSpan.End()
		for _, result := range results {
			session.Append(ports.ToolMessage(result))
		}
		e.clearPending(session)
		if err := e.store.Save(ctx, session); err != nil {
			return nil, err
		}
	}

	session.Append(ports.AssistantMessage(exhaustedReply, nil))
	if err := e.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return &TurnOutcome{SessionID: session.ID, Reply: exhaustedReply}, nil
}

// finishTurn synthesizes the final reply for a respond plan. The planning
// pass already appended the assistant message; a pass that planned respond
// without any content gets a dedicated response completion.
func (e *Engine) finishTurn(ctx context.Context, session *ports.Session) (*TurnOutcome, error) {
	ctx, span := observability.StartSpan(ctx, "responding")
	defer span.End()

	var reply string
	if n := len(session.Messages); n > 0 {
		if last := session.Messages[n-1]; last.Role == ports.RoleAssistant {
			reply = last.Content
		}
	}
	if reply == "" {
		var err error
		reply, err = e.planner.Respond(ctx, session)
		if err != nil {
			return nil, err
		}
	}
	e.clearPending(session)
	if err := e.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return &TurnOutcome{SessionID: session.ID, Reply: reply}, nil
}

func (e *Engine) loadOrCreate(ctx context.Context, sessionID string) (*ports.Session, error) {
	if sessionID == "" {
		return e.store.Create(ctx)
	}
	session, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Normalize()
	return session, nil
}

// clearPending drops the turn's planned batch and resets approval so the
// next plan starts clean.
func (e *Engine) clearPending(session *ports.Session) {
	session.Planned = nil
	session.PendingCalls = nil
	session.AwaitingApproval = false
	session.Approval = ports.ApprovalUnset
}

func pendingName(session *ports.Session) string {
	if session.Planned == nil {
		return "(unknown)"
	}
	return session.Planned.Name
}
