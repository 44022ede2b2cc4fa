package tracing

import (
	"context"
	"os"
	"testing"
)

func TestInitTracerWithoutOTLPEndpointUsesStdoutExporter(t *testing.T) {
	_ = os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	tr, err := InitTracer()
	if err != nil {
		t.Fatalf("expected no error initializing the tracer, got %v", err)
	}
	if tr == nil || tr.Cleanup == nil {
		t.Fatal("expected a non-nil tracer with a cleanup function")
	}
	defer func() {
		if err := tr.Cleanup(context.Background()); err != nil {
			t.Errorf("expected cleanup to succeed, got %v", err)
		}
	}()

	if GetTracer() == nil {
		t.Error("expected GetTracer to return the initialized tracer")
	}
}

func TestContextWithSpanStartsASpanFromTheGlobalTracer(t *testing.T) {
	tr, err := InitTracer()
	if err != nil {
		t.Fatalf("expected no error initializing the tracer, got %v", err)
	}
	defer func() { _ = tr.Cleanup(context.Background()) }()

	ctx, span := ContextWithSpan(context.Background(), "test-span")
	defer span.End()

	if ctx == nil || span == nil {
		t.Fatal("expected a non-nil context and span")
	}
	if !span.SpanContext().IsValid() {
		t.Error("expected a valid span context from the always-sample sampler")
	}
}
