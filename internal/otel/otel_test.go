package otel

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single", "Authorization=Basic abc", map[string]string{"Authorization": "Basic abc"}},
		{"multiple with spaces", " a = 1 , b=2", map[string]string{"a": "1", "b": "2"}},
		{"value with equals", "k=v=w", map[string]string{"k": "v=w"}},
		{"missing key skipped", "=v,k=1", map[string]string{"k": "1"}},
		{"no equals skipped", "junk,k=1", map[string]string{"k": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseHeaders(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseHeaders(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("header %q = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestInit_NoEndpointIsNoop(t *testing.T) {
	ctx := context.Background()
	tel, err := Init(ctx, OTELConfig{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer tel.Shutdown(ctx)

	if tel.Tracer == nil {
		t.Fatal("expected a tracer even without an endpoint")
	}
	if tel.Metrics == nil {
		t.Fatal("expected metrics even without an endpoint")
	}
	// Recording must not panic on no-op instruments.
	tel.Metrics.RecordCommand(ctx, "action", true)
	tel.Metrics.RecordAction(ctx, "run-task", "ok")
	tel.Metrics.RecordConfigLoad(ctx, "loaded")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordCommand(ctx, "action", false)
	m.RecordAction(ctx, "focus-tab", "ok")
	m.RecordConfigLoad(ctx, "missing")
}
