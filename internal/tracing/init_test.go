package tracing

import "testing"

func TestGetTracerFallsBackToNoopProviderWhenUninitialized(t *testing.T) {
	tracer = nil
	if got := GetTracer(); got == nil {
		t.Error("GetTracer() = nil, want a fallback tracer from the otel API's default provider")
	}
}
