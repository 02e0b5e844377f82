package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/deskgate/internal/instrumentation"
)

// InstrumentedToolHandler wraps a raw MCP handler with invocation metrics.
// Dispatched tools are already instrumented inside the dispatcher; this
// wrapper is for tools registered directly, such as the auth helpers.
//
// Usage:
//
//	s.AddTool(tool, common.InstrumentedToolHandler("google_auth_status", metrics, handler))
func InstrumentedToolHandler(
	toolName string,
	metrics *instrumentation.Metrics,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
		}
		metrics.RecordToolInvocation(ctx, toolName, status, duration)

		return result, err
	}
}
