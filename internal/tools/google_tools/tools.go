package google_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/deskgate/internal/google"
	"github.com/teemow/deskgate/internal/instrumentation"
	"github.com/teemow/deskgate/internal/tools/common"
)

// Register registers the credential helper tools with the MCP server. These
// bypass the dispatcher: they must work while no valid credential exists.
func Register(s *mcpserver.MCPServer, store *google.Store, metrics *instrumentation.Metrics) {
	authStatusTool := mcp.NewTool("google_auth_status",
		mcp.WithDescription("Report whether a Google credential is stored and whether it is valid or refreshable"),
	)
	s.AddTool(authStatusTool, common.InstrumentedToolHandler("google_auth_status", metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthStatus(ctx, request, store)
		}))

	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Exchange an OAuth authorization code and persist the resulting Google credential"),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("The authorization code shown after granting consent"),
		),
	)
	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler("google_save_auth_code", metrics,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, store)
		}))
}

func handleAuthStatus(_ context.Context, _ mcp.CallToolRequest, store *google.Store) (*mcp.CallToolResult, error) {
	status := store.Status()
	if !store.HasToken() {
		return mcp.NewToolResultText(fmt.Sprintf(`%s

To authorize access:

1. Visit this URL in your browser:
   %s

2. Sign in and grant access
3. Copy the authorization code
4. Call the google_save_auth_code tool with the code`, status, store.AuthURL())), nil
	}
	return mcp.NewToolResultText(status), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, store *google.Store) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	code, ok := args["code"].(string)
	if !ok || code == "" {
		return mcp.NewToolResultError("code is required"), nil
	}

	if err := store.SaveAuthCode(ctx, code); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save authorization code: %v", err)), nil
	}
	return mcp.NewToolResultText("Authentication successful. Google tools are ready to use."), nil
}
