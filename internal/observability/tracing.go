package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"donna/internal/logging"
)

const tracerName = "donna"

// SetupTracing wires an OTLP/HTTP trace exporter when an endpoint is
// configured. Without one, tracing stays a no-op and the returned shutdown
// does nothing. The returned shutdown must be called on process exit.
func SetupTracing(ctx context.Context, endpoint string, logger logging.Logger) (func(context.Context) error, error) {
	logger = logging.OrNop(logger)
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	logger.Info("Tracing enabled, exporting to %s", endpoint)

	return provider.Shutdown, nil
}

// Tracer returns the process tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan opens a span for one stage of a turn.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name)
}
