package agent

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"donna/internal/agent/ports"
	"donna/internal/errors"
	"donna/internal/logging"
	"donna/internal/observability"
)

// Dispatcher executes a validated batch of tool calls. Backend failures and
// panics become failed ToolResults; nothing a tool does can terminate the
// session.
type Dispatcher struct {
	registry ports.ActionRegistry
	zoneName string
	logger   logging.Logger
}

func NewDispatcher(registry ports.ActionRegistry, zoneName string, logger logging.Logger) *Dispatcher {
	if zoneName == "" {
		zoneName = "UTC"
	}
	return &Dispatcher{
		registry: registry,
		zoneName: zoneName,
		logger:   logging.OrNop(logger),
	}
}

// Dispatch runs each call exactly once, in order, and returns one result per
// call correlated by call id.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []ports.ToolCall, session *ports.Session) []ports.ToolResult {
	results := make([]ports.ToolResult, 0, len(calls))
	for _, call := range calls {
		call.Arguments = d.normalizeArgs(call.Name, call.Arguments)
		results = append(results, d.dispatchOne(ctx, call, session))
	}
	session.LastResults = results
	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, call ports.ToolCall, session *ports.Session) (result ports.ToolResult) {
	ctx, span := observability.StartSpan(ctx, "dispatch."+call.Name)
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Tool %s panicked: %v", call.Name, r)
			result = ports.ToolResult{
				CallID: call.ID,
				Name:   call.Name,
				OK:     false,
				Err:    "The action failed unexpectedly.",
			}
		}
	}()

	tool, err := d.registry.Get(call.Name)
	if err != nil {
		return ports.ToolResult{CallID: call.ID, Name: call.Name, OK: false, Err: err.Error()}
	}

	started := time.Now()
	executed, err := tool.Execute(ctx, call)
	d.logger.Debug("Dispatched %s in %s", call.Name, time.Since(started).Round(time.Millisecond))
	if err != nil {
		return ports.ToolResult{CallID: call.ID, Name: call.Name, OK: false, Err: userFacingError(err)}
	}
	if executed == nil {
		return ports.ToolResult{CallID: call.ID, Name: call.Name, OK: true}
	}

	if post, ok := tool.(ports.PostProcessor); ok && executed.OK {
		postCtx, postSpan := observability.StartSpan(ctx, "post_processing")
		processed, perr := post.PostProcess(postCtx, executed, session)
		postSpan.End()
		if perr != nil {
			d.logger.Warn("Post-processing for %s failed: %v", call.Name, perr)
		} else if processed != nil {
			executed = processed
		}
	}
	return *executed
}

// timestampKeys are the arguments subject to local-time normalization.
var timestampKeys = []string{"start_iso", "end_iso", "due_iso"}

// normalizeArgs rewrites planner-emitted timestamps before dispatch. A value
// carrying an explicit zero UTC offset, in a deployment whose effective
// timezone is not UTC, almost always encodes a local wall-clock intent that
// the model decorated with "Z" out of habit. The offset is stripped so the
// calendar/task backend applies the configured zone once instead of shifting
// twice.
func (d *Dispatcher) normalizeArgs(name string, args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	if strings.EqualFold(d.zoneName, "UTC") {
		return args
	}
	for _, key := range timestampKeys {
		raw, ok := args[key].(string)
		if !ok {
			continue
		}
		if stripped, ok := stripZeroOffset(strings.TrimSpace(raw)); ok {
			d.logger.Debug("Normalized %s.%s: %q -> %q", name, key, raw, stripped)
			args[key] = stripped
		}
	}
	return args
}

// stripZeroOffset converts "2026-02-28T09:00:00+00:00" (or the Z form) to
// "2026-02-28T09:00:00". Timestamps with a real offset, or with none, pass
// through untouched.
func stripZeroOffset(value string) (string, bool) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value, false
	}
	_, offset := parsed.Zone()
	if offset != 0 {
		return value, false
	}
	if !strings.HasSuffix(value, "Z") && !strings.HasSuffix(value, "+00:00") && !strings.HasSuffix(value, "-00:00") {
		return value, false
	}
	return parsed.Format("2006-01-02T15:04:05"), true
}

// userFacingError renders a dispatch failure for the conversation. Validation
// messages pass through verbatim; external failures are summarized without
// their technical shape.
func userFacingError(err error) string {
	if errors.IsValidation(err) {
		return err.Error()
	}
	var external *errors.ExternalError
	if stderrors.As(err, &external) {
		return fmt.Sprintf("The %s service could not complete the request.", external.Service)
	}
	var unavailable *errors.UnavailableError
	if stderrors.As(err, &unavailable) {
		return unavailable.Error()
	}
	return err.Error()
}
