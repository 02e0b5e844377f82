package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teemow/deskgate/internal/instrumentation"
)

func TestNewMetricsServerRequiresEnabledProvider(t *testing.T) {
	if _, err := NewMetricsServer(MetricsServerConfig{}); err == nil {
		t.Error("nil provider should be rejected")
	}

	disabled, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if _, err := NewMetricsServer(MetricsServerConfig{Provider: disabled}); err == nil {
		t.Error("disabled provider should be rejected")
	}
}

func TestNewMetricsServerDefaultsAddr(t *testing.T) {
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:     "deskgate",
		ServiceVersion:  "test",
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterStdout,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	defer provider.Shutdown(context.Background())

	s, err := NewMetricsServer(MetricsServerConfig{Provider: provider})
	if err != nil {
		t.Fatalf("NewMetricsServer() error = %v", err)
	}
	if s.Addr() != DefaultMetricsAddr {
		t.Errorf("addr = %q, want %q", s.Addr(), DefaultMetricsAddr)
	}
}

func TestHealthzReflectsShutdownState(t *testing.T) {
	sc := NewServerContext(context.Background(), nil)
	s := &MetricsServer{serverContext: sc}

	rec := httptest.NewRecorder()
	s.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status before shutdown = %d, want %d", rec.Code, http.StatusOK)
	}

	sc.Shutdown()

	rec = httptest.NewRecorder()
	s.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status after shutdown = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestServerContextShutdownIdempotent(t *testing.T) {
	sc := NewServerContext(context.Background(), nil)

	if sc.IsShutdown() {
		t.Fatal("fresh context should not be shut down")
	}

	sc.Shutdown()
	sc.Shutdown()

	if !sc.IsShutdown() {
		t.Error("context should report shut down")
	}
	select {
	case <-sc.Context().Done():
	default:
		t.Error("server context should be cancelled after shutdown")
	}
}
