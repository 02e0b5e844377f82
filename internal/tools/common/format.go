package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/deskgate/internal/gateway"
)

// FormatEnvelope renders a result envelope as caller-friendly text.
func FormatEnvelope(env *gateway.Envelope) string {
	var b strings.Builder

	switch {
	case env.Returned == 0:
		b.WriteString("No matching items found.")
	case env.Truncated:
		fmt.Fprintf(&b, "Found %d matching items, returning %d (truncated).\n", env.Total, env.Returned)
	default:
		fmt.Fprintf(&b, "Found %d items.\n", env.Returned)
	}

	for i, item := range env.Items {
		fmt.Fprintf(&b, "\n%d. [%s] %s", i+1, item.ID, item.Summary)
		if item.Ref != "" {
			fmt.Fprintf(&b, "\n   ref: %s", item.Ref)
		}
	}

	return b.String()
}

// FormatError renders a classified error as a tool error result. Auth
// failures carry consent instructions so the caller can recover out-of-band.
func FormatError(err error, hinter AuthHinter) *mcp.CallToolResult {
	kind := gateway.KindOf(err)

	switch kind {
	case gateway.KindAuthRequired:
		var b strings.Builder
		b.WriteString("Authentication required.\n\n")
		if hinter != nil {
			b.WriteString("1. Open the following URL in a browser and grant access:\n")
			fmt.Fprintf(&b, "   %s\n", hinter.AuthURL())
			b.WriteString("2. Copy the authorization code shown after consent.\n")
			b.WriteString("3. Call the google_save_auth_code tool with that code, then retry.\n")
		} else {
			b.WriteString("No valid credential is available. Run the consent flow and retry.\n")
		}
		return mcp.NewToolResultError(b.String())

	case gateway.KindRateLimited:
		retryAfter := gateway.DefaultRetryAfter
		var gerr *gateway.Error
		if errors.As(err, &gerr) && gerr.RetryAfter > 0 {
			retryAfter = gerr.RetryAfter
		}
		return mcp.NewToolResultError(fmt.Sprintf("%s (retry after %s)", err.Error(), retryAfter))

	default:
		return mcp.NewToolResultError(err.Error())
	}
}
