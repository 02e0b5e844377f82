package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/deskgate/internal/dispatch"
	"github.com/teemow/deskgate/internal/gateway"
	"github.com/teemow/deskgate/internal/gmail"
	"github.com/teemow/deskgate/internal/server"
)

const (
	// listSummaryLen bounds the one-line summary shown per listed message.
	listSummaryLen = 200

	// bodyLen bounds the rendered body of a single fetched message.
	bodyLen = 8192
)

// Definitions returns the Gmail tool definitions bound to the server
// context. Write tools are included only when includeWrite is set.
func Definitions(sc *server.ServerContext, defaultLimit int, includeWrite bool) []*dispatch.Definition {
	defs := []*dispatch.Definition{
		{
			Name:        "list_recent_messages",
			Description: "List the most recent messages in the inbox",
			Service:     "gmail",
			Operation:   "messages.list",
			Schema: dispatch.Schema{
				{Name: "limit", Type: dispatch.TypeInt, Default: defaultLimit, Positive: true,
					Description: fmt.Sprintf("Maximum number of messages to return (default: %d)", defaultLimit)},
			},
			Idempotent: true,
			Shape:      gateway.ShapeRule{MaxItems: defaultLimit, MaxSummaryLen: listSummaryLen},
			Call:       listRecentCapability(sc),
		},
		{
			Name:        "search_messages",
			Description: "Search messages using Gmail query syntax (e.g. 'from:user@example.com is:unread')",
			Service:     "gmail",
			Operation:   "messages.search",
			Schema: dispatch.Schema{
				{Name: "query", Type: dispatch.TypeString, Required: true,
					Description: "Gmail search query"},
				{Name: "limit", Type: dispatch.TypeInt, Default: defaultLimit, Positive: true,
					Description: fmt.Sprintf("Maximum number of messages to return (default: %d)", defaultLimit)},
			},
			Idempotent: true,
			Shape:      gateway.ShapeRule{MaxItems: defaultLimit, MaxSummaryLen: listSummaryLen},
			Call:       searchCapability(sc),
		},
		{
			Name:        "get_message",
			Description: "Get a single message with its headers and decoded plain-text body",
			Service:     "gmail",
			Operation:   "messages.get",
			Schema: dispatch.Schema{
				{Name: "id", Type: dispatch.TypeString, Required: true,
					Description: "Message ID as returned by list or search"},
			},
			Idempotent: true,
			Shape:      gateway.ShapeRule{MaxItems: 1, MaxSummaryLen: bodyLen},
			Call:       getCapability(sc),
		},
	}

	if includeWrite {
		defs = append(defs, &dispatch.Definition{
			Name:        "send_message",
			Description: "Send an email on behalf of the authenticated user",
			Service:     "gmail",
			Operation:   "messages.send",
			Schema: dispatch.Schema{
				{Name: "to", Type: dispatch.TypeString, Required: true,
					Description: "Recipient address, or several separated by commas"},
				{Name: "subject", Type: dispatch.TypeString, Required: true,
					Description: "Message subject"},
				{Name: "body", Type: dispatch.TypeString, Required: true,
					Description: "Plain-text message body"},
				{Name: "cc", Type: dispatch.TypeString,
					Description: "Optional CC addresses, comma separated"},
				{Name: "bcc", Type: dispatch.TypeString,
					Description: "Optional BCC addresses, comma separated"},
			},
			Idempotent: false,
			Shape:      gateway.ShapeRule{MaxItems: 1, MaxSummaryLen: listSummaryLen},
			Call:       sendCapability(sc),
		})
	}

	return defs
}

func listRecentCapability(sc *server.ServerContext) dispatch.Capability {
	return func(ctx context.Context, args map[string]any) (*gateway.ProviderResponse, error) {
		client, err := sc.Gmail(ctx)
		if err != nil {
			return nil, gateway.Classify(err)
		}

		limit, _ := dispatch.IntArg(args, "limit")
		res, err := client.ListRecent(ctx, int64(limit))
		if err != nil {
			return nil, err
		}
		return listResponse(res), nil
	}
}

func searchCapability(sc *server.ServerContext) dispatch.Capability {
	return func(ctx context.Context, args map[string]any) (*gateway.ProviderResponse, error) {
		client, err := sc.Gmail(ctx)
		if err != nil {
			return nil, gateway.Classify(err)
		}

		limit, _ := dispatch.IntArg(args, "limit")
		res, err := client.Search(ctx, dispatch.StringArg(args, "query"), int64(limit))
		if err != nil {
			return nil, err
		}
		return listResponse(res), nil
	}
}

func getCapability(sc *server.ServerContext) dispatch.Capability {
	return func(ctx context.Context, args map[string]any) (*gateway.ProviderResponse, error) {
		client, err := sc.Gmail(ctx)
		if err != nil {
			return nil, gateway.Classify(err)
		}

		msg, err := client.Get(ctx, dispatch.StringArg(args, "id"))
		if err != nil {
			return nil, err
		}
		return &gateway.ProviderResponse{
			Items: []gateway.Item{{
				ID:      msg.ID,
				Summary: messageDetail(msg),
				Ref:     "thread:" + msg.ThreadID,
			}},
			Total: 1,
		}, nil
	}
}

func sendCapability(sc *server.ServerContext) dispatch.Capability {
	return func(ctx context.Context, args map[string]any) (*gateway.ProviderResponse, error) {
		client, err := sc.Gmail(ctx)
		if err != nil {
			return nil, gateway.Classify(err)
		}

		out := &gmail.OutgoingMessage{
			To:      splitAddresses(dispatch.StringArg(args, "to")),
			Cc:      splitAddresses(dispatch.StringArg(args, "cc")),
			Bcc:     splitAddresses(dispatch.StringArg(args, "bcc")),
			Subject: dispatch.StringArg(args, "subject"),
			Body:    dispatch.StringArg(args, "body"),
		}

		id, err := client.Send(ctx, out)
		if err != nil {
			return nil, err
		}
		return &gateway.ProviderResponse{
			Items: []gateway.Item{{
				ID:      id,
				Summary: fmt.Sprintf("message sent to %s", strings.Join(out.To, ", ")),
			}},
			Total: 1,
		}, nil
	}
}

func listResponse(res *gmail.ListResult) *gateway.ProviderResponse {
	resp := &gateway.ProviderResponse{Total: res.Total, HasMore: res.HasMore}
	for _, m := range res.Messages {
		resp.Items = append(resp.Items, gateway.Item{
			ID:      m.ID,
			Summary: messageSummary(m),
			Ref:     "thread:" + m.ThreadID,
		})
	}
	return resp
}

// messageSummary renders the one-line listing form of a message.
func messageSummary(m *gmail.Message) string {
	parts := make([]string, 0, 3)
	if m.From != "" {
		parts = append(parts, m.From)
	}
	if m.Subject != "" {
		parts = append(parts, m.Subject)
	}
	if m.Date != "" {
		parts = append(parts, m.Date)
	}
	if len(parts) == 0 {
		return m.Snippet
	}
	return strings.Join(parts, " | ")
}

// messageDetail renders the full form of a single fetched message.
func messageDetail(m *gmail.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", m.From)
	fmt.Fprintf(&b, "To: %s\n", m.To)
	fmt.Fprintf(&b, "Date: %s\n", m.Date)
	fmt.Fprintf(&b, "Subject: %s\n", m.Subject)
	b.WriteString("\n")
	if m.Body != "" {
		b.WriteString(m.Body)
	} else {
		b.WriteString(m.Snippet)
	}
	return b.String()
}

// splitAddresses splits a comma separated address list, dropping empties.
func splitAddresses(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
