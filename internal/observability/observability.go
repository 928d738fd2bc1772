// Package observability wires a lightweight OpenTelemetry tracer
// around the two operations expensive enough to warrant one: an
// Analyst investigation and a DebateProtocol round (spec §9 DOMAIN
// STACK). It ships the teacher's stdouttrace exporter for dev builds;
// no collector endpoint is configured since the core never runs its
// own HTTP server (spec §1 Non-goals).
package observability

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracerName identifies the runtime's own spans in the stdout trace
// stream, independent of whatever service name the resource carries.
const TracerName = "agentmesh/coordination-runtime"

// Setup bootstraps a process-wide TracerProvider exporting to stdout
// and returns a shutdown func. serviceName tags every span's resource
// (e.g. "agentmesh-coordinator"). Pass a no-op shutdown's error
// through the caller's own error handling; Setup itself never panics.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return func(context.Context) error { return nil }, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return func(context.Context) error { return nil }, err
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return func(ctx context.Context) error {
		if err := provider.Shutdown(ctx); err != nil {
			log.Printf("[observability] tracer shutdown: %v", err)
			return err
		}
		return nil
	}, nil
}

// StartSpan opens a span named name under the runtime's tracer.
// Callers that run without Setup having been called still get a valid
// no-op span from the otel default provider, so this is safe to call
// unconditionally from Analyst and DebateProtocol.
func StartSpan(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name)
}
