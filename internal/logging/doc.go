// Package logging provides slog helpers for consistent structured logging.
//
// It defines shared attribute keys and constructors so log lines use the same
// field names everywhere, plus sanitizers that keep credential material and
// PII out of log output.
package logging
