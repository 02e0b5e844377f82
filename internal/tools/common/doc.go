// Package common bridges dispatch definitions and the MCP protocol: tool
// declaration from schemas, envelope and error formatting, and an
// instrumented wrapper for directly registered handlers.
package common
