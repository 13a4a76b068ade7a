package agent

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"donna/internal/agent/ports"
	"donna/internal/llm"
	"donna/internal/toolregistry"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func spanNames(recorder *tracetest.SpanRecorder) map[string]int {
	names := map[string]int{}
	for _, span := range recorder.Ended() {
		names[span.Name()]++
	}
	return names
}

func TestTurnStagesEmitSpans(t *testing.T) {
	recorder := recordSpans(t)

	reg, _, _ := testRegistry(t)
	mock := llm.NewMockClient(
		llm.ToolCallResponse("c1", "list_tasks", nil),
		llm.TextResponse("You have no open tasks."),
	)
	engine, _ := newTestEngine(t, mock, reg)

	if _, err := engine.Submit(context.Background(), "", "what's on my list?"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	names := spanNames(recorder)
	for _, want := range []string{"planning", "gating", "dispatching", "dispatch.list_tasks", "responding"} {
		if names[want] == 0 {
			t.Fatalf("no %q span recorded, got %v", want, names)
		}
	}
}

type annotatingTool struct {
	stubTool
	postProcessed bool
}

func (a *annotatingTool) PostProcess(_ context.Context, result *ports.ToolResult, _ *ports.Session) (*ports.ToolResult, error) {
	a.postProcessed = true
	return result, nil
}

func TestPostProcessingEmitsSpan(t *testing.T) {
	recorder := recordSpans(t)

	reg := toolregistry.New(nil)
	tool := &annotatingTool{stubTool: stubTool{name: "get_emails"}}
	if err := reg.Register(tool); err != nil {
		t.Fatalf("Register: %v", err)
	}
	mock := llm.NewMockClient(
		llm.ToolCallResponse("c1", "get_emails", nil),
		llm.TextResponse("Nothing urgent in your inbox."),
	)
	engine, _ := newTestEngine(t, mock, reg)

	if _, err := engine.Submit(context.Background(), "", "check my mail"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !tool.postProcessed {
		t.Fatal("post-processing did not run")
	}
	if names := spanNames(recorder); names["post_processing"] == 0 {
		t.Fatalf("no post_processing span recorded, got %v", names)
	}
}
