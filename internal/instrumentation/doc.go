// Package instrumentation provides OpenTelemetry metrics for tool
// invocations, provider operations, and credential refreshes.
//
// Instrumentation is opt-in and controllable via environment variables:
//
//	INSTRUMENTATION_ENABLED - enable instrumentation (default: false)
//	METRICS_EXPORTER        - metrics exporter: prometheus, stdout, none
//
// When disabled, all recorders are no-ops with negligible overhead.
package instrumentation
