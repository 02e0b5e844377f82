package instrumentation

import (
	"context"
	"testing"
	"time"
)

func TestNewProviderDisabled(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Enabled() {
		t.Error("provider should report disabled")
	}
	if p.Metrics() == nil {
		t.Fatal("Metrics() must be non-nil even when disabled")
	}

	// Recorders on the no-op metrics must not panic.
	p.Metrics().RecordToolInvocation(ctx, "search_messages", StatusSuccess, 10*time.Millisecond)
	p.Metrics().RecordProviderOperation(ctx, "gmail", "messages.list", StatusError, time.Second)
	p.Metrics().RecordTokenRefresh(ctx, StatusSuccess)

	if err := p.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewProviderExporterNone(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, Config{
		ServiceName:     "deskgate",
		ServiceVersion:  "test",
		Enabled:         true,
		MetricsExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Enabled() {
		t.Error("exporter \"none\" should leave the provider disabled")
	}
}

func TestNewProviderStdout(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, Config{
		ServiceName:     "deskgate",
		ServiceVersion:  "test",
		Enabled:         true,
		MetricsExporter: ExporterStdout,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if !p.Enabled() {
		t.Error("provider should be enabled")
	}

	m := p.Metrics()
	m.RecordToolInvocation(ctx, "list_recent_messages", StatusSuccess, 5*time.Millisecond)
	m.RecordTokenRefresh(ctx, StatusError)

	if err := p.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewProviderInvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		ServiceName:     "deskgate",
		Enabled:         true,
		MetricsExporter: "otlp",
	})
	if err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}
