package instrumentation

import (
	"fmt"
	"os"
)

// Exporter types for metrics.
const (
	ExporterPrometheus = "prometheus"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Status values recorded on metrics.
// Note: these are intentionally duplicated from the logging package to avoid
// a dependency from instrumentation to logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: deskgate).
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// Enabled determines if instrumentation is active (default: true).
	// Set INSTRUMENTATION_ENABLED=false to disable metrics.
	Enabled bool

	// MetricsExporter specifies the metrics exporter type.
	// Options: "prometheus", "stdout", "none" (default: "prometheus").
	MetricsExporter string
}

// DefaultConfig returns the default instrumentation configuration with
// environment variable overrides applied.
func DefaultConfig() Config {
	config := Config{
		ServiceName:     "deskgate",
		ServiceVersion:  "dev",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
	}

	if v := os.Getenv("INSTRUMENTATION_ENABLED"); v == "false" {
		config.Enabled = false
	}
	if v := os.Getenv("METRICS_EXPORTER"); v != "" {
		config.MetricsExporter = v
	}

	return config
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	switch c.MetricsExporter {
	case ExporterPrometheus, ExporterStdout, ExporterNone:
		return nil
	default:
		return fmt.Errorf("invalid metrics exporter %q (supported: prometheus, stdout, none)", c.MetricsExporter)
	}
}
