package instrumentation

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("INSTRUMENTATION_ENABLED", "")
	t.Setenv("METRICS_EXPORTER", "")

	cfg := DefaultConfig()
	if !cfg.Enabled {
		t.Error("instrumentation should be enabled by default")
	}
	if cfg.ServiceName != "deskgate" {
		t.Errorf("service name = %q, want %q", cfg.ServiceName, "deskgate")
	}
	if cfg.MetricsExporter != ExporterPrometheus {
		t.Errorf("default exporter = %q, want %q", cfg.MetricsExporter, ExporterPrometheus)
	}
}

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("METRICS_EXPORTER", "stdout")

	cfg := DefaultConfig()
	if cfg.Enabled {
		t.Error("INSTRUMENTATION_ENABLED=false should disable instrumentation")
	}
	if cfg.MetricsExporter != ExporterStdout {
		t.Errorf("exporter = %q, want %q", cfg.MetricsExporter, ExporterStdout)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		exporter string
		wantErr  bool
	}{
		{name: "prometheus", exporter: ExporterPrometheus},
		{name: "stdout", exporter: ExporterStdout},
		{name: "none", exporter: ExporterNone},
		{name: "unknown", exporter: "otlp", wantErr: true},
		{name: "empty", exporter: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				ServiceName:     "deskgate",
				ServiceVersion:  "dev",
				Enabled:         true,
				MetricsExporter: tt.exporter,
			}
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
