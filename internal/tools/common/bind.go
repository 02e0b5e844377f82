package common

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/deskgate/internal/dispatch"
)

// AuthHinter supplies the consent URL surfaced to callers when a tool fails
// because no valid credential exists.
type AuthHinter interface {
	AuthURL() string
}

// BindTool converts a dispatch definition into an MCP tool declaration.
func BindTool(def *dispatch.Definition) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}

	for _, f := range def.Schema {
		var fieldOpts []mcp.PropertyOption
		if f.Required {
			fieldOpts = append(fieldOpts, mcp.Required())
		}
		if f.Description != "" {
			fieldOpts = append(fieldOpts, mcp.Description(f.Description))
		}

		switch f.Type {
		case dispatch.TypeInt:
			opts = append(opts, mcp.WithNumber(f.Name, fieldOpts...))
		case dispatch.TypeBool:
			opts = append(opts, mcp.WithBoolean(f.Name, fieldOpts...))
		default:
			// Strings and RFC 3339 timestamps travel as strings.
			opts = append(opts, mcp.WithString(f.Name, fieldOpts...))
		}
	}

	return mcp.NewTool(def.Name, opts...)
}

// ToolHandler returns an MCP handler that routes the call through the
// dispatcher and formats the outcome. Classified errors become tool error
// results, not protocol errors.
func ToolHandler(d *dispatch.Dispatcher, def *dispatch.Definition, hinter AuthHinter) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env, err := d.Dispatch(ctx, def.Name, request.GetArguments())
		if err != nil {
			return FormatError(err, hinter), nil
		}
		return mcp.NewToolResultText(FormatEnvelope(env)), nil
	}
}
