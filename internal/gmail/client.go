package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/deskgate/internal/gateway"
)

// maxPageSize is the largest page the Gmail API serves per list call.
const maxPageSize = 100

// metadataHeaders are the headers fetched for listing results.
var metadataHeaders = []string{"From", "To", "Subject", "Date"}

// Client wraps the Gmail Users service.
type Client struct {
	svc *gmail.UsersService
}

// NewClient creates a Gmail client backed by the given token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users}, nil
}

// ListRecent lists the most recent inbox messages.
func (c *Client) ListRecent(ctx context.Context, maxResults int64) (*ListResult, error) {
	return c.list(ctx, "", []string{"INBOX"}, maxResults, "gmail.messages.list")
}

// Search lists messages matching a Gmail search query.
func (c *Client) Search(ctx context.Context, query string, maxResults int64) (*ListResult, error) {
	return c.list(ctx, query, nil, maxResults, "gmail.messages.search")
}

// list pages through message references and resolves each to its headers.
// It will fetch up to maxResults messages, making multiple API calls if
// necessary.
func (c *Client) list(ctx context.Context, query string, labelIDs []string, maxResults int64, operation string) (*ListResult, error) {
	var refs []*gmail.Message
	var total int64
	pageToken := ""
	hasMore := false

	for {
		remaining := maxResults - int64(len(refs))
		if remaining <= 0 {
			break
		}

		pageSize := remaining
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		req := c.svc.Messages.List("me").MaxResults(pageSize).Context(ctx)
		if query != "" {
			req = req.Q(query)
		}
		if len(labelIDs) > 0 {
			req = req.LabelIds(labelIDs...)
		}
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		res, err := req.Do()
		if err != nil {
			return nil, gateway.ClassifyOp(operation, err)
		}

		refs = append(refs, res.Messages...)
		if res.ResultSizeEstimate > total {
			total = res.ResultSizeEstimate
		}

		if res.NextPageToken == "" {
			break
		}
		if int64(len(refs)) >= maxResults {
			hasMore = true
			break
		}
		pageToken = res.NextPageToken
	}

	if int64(len(refs)) > maxResults {
		refs = refs[:maxResults]
		hasMore = true
	}

	result := &ListResult{Total: total, HasMore: hasMore}
	for _, ref := range refs {
		msg, err := c.svc.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders(metadataHeaders...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, gateway.ClassifyOp("gmail.messages.get", err)
		}
		result.Messages = append(result.Messages, fromAPIMessage(msg, false))
	}

	if result.Total < int64(len(result.Messages)) {
		result.Total = int64(len(result.Messages))
	}
	return result, nil
}

// Get retrieves a full message including its decoded plain-text body.
func (c *Client) Get(ctx context.Context, messageID string) (*Message, error) {
	if messageID == "" {
		return nil, gateway.InvalidArgument("message_id is required", "message_id")
	}

	msg, err := c.svc.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, gateway.ClassifyOp("gmail.messages.get", err)
	}
	return fromAPIMessage(msg, true), nil
}

// Send sends an email through the Gmail API and returns the new message ID.
func (c *Client) Send(ctx context.Context, msg *OutgoingMessage) (string, error) {
	if err := validateOutgoing(msg); err != nil {
		return "", err
	}

	gmailMsg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(buildRFC2822(msg))),
	}

	sent, err := c.svc.Messages.Send("me", gmailMsg).Context(ctx).Do()
	if err != nil {
		return "", gateway.ClassifyOp("gmail.messages.send", err)
	}
	return sent.Id, nil
}

func validateOutgoing(msg *OutgoingMessage) error {
	var fields []string
	if len(msg.To) == 0 {
		fields = append(fields, "to")
	}
	for _, addr := range msg.To {
		if !strings.Contains(addr, "@") {
			fields = append(fields, "to")
			break
		}
	}
	if msg.Subject == "" {
		fields = append(fields, "subject")
	}
	if msg.Body == "" {
		fields = append(fields, "body")
	}
	if len(fields) > 0 {
		return gateway.InvalidArgument("missing or malformed message fields", fields...)
	}
	return nil
}

// buildRFC2822 builds the outgoing message in RFC 2822 format.
func buildRFC2822(msg *OutgoingMessage) string {
	var b strings.Builder

	b.WriteString("To: ")
	b.WriteString(strings.Join(msg.To, ", "))
	b.WriteString("\r\n")

	if len(msg.Cc) > 0 {
		b.WriteString("Cc: ")
		b.WriteString(strings.Join(msg.Cc, ", "))
		b.WriteString("\r\n")
	}
	if len(msg.Bcc) > 0 {
		b.WriteString("Bcc: ")
		b.WriteString(strings.Join(msg.Bcc, ", "))
		b.WriteString("\r\n")
	}

	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(msg.Subject))
	b.WriteString("\r\n")

	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return b.String()
}

// encodeRFC2047 encodes a header value according to RFC 2047. Necessary for
// non-ASCII characters in subjects.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

// fromAPIMessage converts an API message to the simplified form.
func fromAPIMessage(msg *gmail.Message, withBody bool) *Message {
	m := &Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
		From:     headerValue(msg, "From"),
		To:       headerValue(msg, "To"),
		Subject:  headerValue(msg, "Subject"),
		Date:     headerValue(msg, "Date"),
	}
	if withBody {
		m.Body = decodeBody(msg.Payload)
	}
	return m
}

// headerValue returns the value of the named header, or "".
func headerValue(msg *gmail.Message, name string) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// decodeBody extracts and decodes the first text/plain body part.
func decodeBody(payload *gmail.MessagePart) string {
	var data string
	if payload != nil && payload.MimeType == "text/plain" && payload.Body != nil && payload.Body.Data != "" {
		data = payload.Body.Data
	} else {
		walkParts(payload, func(part *gmail.MessagePart) {
			if data == "" && part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
				data = part.Body.Data
			}
		})
	}
	if data == "" {
		return ""
	}

	// Gmail uses RFC 4648 base64url encoding for body data.
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}

// walkParts recursively walks through message parts.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, subpart := range part.Parts {
		walkParts(subpart, fn)
	}
}
