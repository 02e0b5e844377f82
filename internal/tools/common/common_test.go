package common

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/deskgate/internal/dispatch"
	"github.com/teemow/deskgate/internal/gateway"
	"github.com/teemow/deskgate/internal/instrumentation"
)

type fakeHinter struct{}

func (fakeHinter) AuthURL() string {
	return "https://accounts.example.com/consent?client_id=deskgate"
}

func TestBindTool(t *testing.T) {
	def := &dispatch.Definition{
		Name:        "search_messages",
		Description: "Search messages matching a query",
		Schema: dispatch.Schema{
			{Name: "query", Type: dispatch.TypeString, Required: true, Description: "Search query"},
			{Name: "limit", Type: dispatch.TypeInt, Description: "Maximum results"},
			{Name: "not_before", Type: dispatch.TypeTimestamp},
			{Name: "verbose", Type: dispatch.TypeBool},
		},
	}

	tool := BindTool(def)

	if tool.Name != "search_messages" {
		t.Errorf("tool name = %q", tool.Name)
	}
	if tool.Description != def.Description {
		t.Errorf("description = %q", tool.Description)
	}

	props := tool.InputSchema.Properties
	for _, name := range []string{"query", "limit", "not_before", "verbose"} {
		if _, ok := props[name]; !ok {
			t.Errorf("schema missing property %q", name)
		}
	}

	required := tool.InputSchema.Required
	if len(required) != 1 || required[0] != "query" {
		t.Errorf("required = %v, want [query]", required)
	}
}

func TestFormatEnvelope(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		got := FormatEnvelope(&gateway.Envelope{})
		if !strings.Contains(got, "No matching items") {
			t.Errorf("got %q", got)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		env := &gateway.Envelope{
			Items: []gateway.Item{
				{ID: "m-1", Summary: "alice: standup notes", Ref: "thread:t-1"},
				{ID: "m-2", Summary: "bob: retro"},
			},
			Total:     12,
			Returned:  2,
			Truncated: true,
		}
		got := FormatEnvelope(env)

		if !strings.Contains(got, "Found 12 matching items, returning 2 (truncated).") {
			t.Errorf("missing truncation header:\n%s", got)
		}
		if !strings.Contains(got, "1. [m-1] alice: standup notes") {
			t.Errorf("missing first item:\n%s", got)
		}
		if !strings.Contains(got, "ref: thread:t-1") {
			t.Errorf("missing ref line:\n%s", got)
		}
	})

	t.Run("complete", func(t *testing.T) {
		env := &gateway.Envelope{
			Items:    []gateway.Item{{ID: "ev-1", Summary: "Team Meeting"}},
			Total:    1,
			Returned: 1,
		}
		got := FormatEnvelope(env)
		if strings.Contains(got, "truncated") {
			t.Errorf("complete result should not mention truncation:\n%s", got)
		}
	})
}

func TestFormatErrorAuthRequired(t *testing.T) {
	err := gateway.E(gateway.KindAuthRequired, "no stored credential")

	result := FormatError(err, fakeHinter{})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	text := resultText(t, result)
	if !strings.Contains(text, "https://accounts.example.com/consent") {
		t.Errorf("consent URL missing:\n%s", text)
	}
	if !strings.Contains(text, "google_save_auth_code") {
		t.Errorf("recovery instructions missing:\n%s", text)
	}

	withoutHinter := FormatError(err, nil)
	if !strings.Contains(resultText(t, withoutHinter), "consent flow") {
		t.Error("fallback instructions missing without hinter")
	}
}

func TestFormatErrorRateLimited(t *testing.T) {
	gerr := gateway.E(gateway.KindRateLimited, "quota exhausted")
	gerr.RetryAfter = 120 * time.Second

	text := resultText(t, FormatError(gerr, nil))
	if !strings.Contains(text, "retry after 2m0s") {
		t.Errorf("retry hint missing:\n%s", text)
	}
}

func TestFormatErrorDefault(t *testing.T) {
	err := gateway.InvalidArgument("invalid tool arguments", "limit")

	result := FormatError(err, nil)
	if !result.IsError {
		t.Fatal("expected error result")
	}
	text := resultText(t, result)
	if !strings.Contains(text, "invalid_argument") || !strings.Contains(text, "limit") {
		t.Errorf("kind or field missing:\n%s", text)
	}
}

func TestInstrumentedToolHandlerPassesThrough(t *testing.T) {
	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("done"), nil
	}

	wrapped := InstrumentedToolHandler("google_auth_status", metrics, handler)
	result, err := wrapped(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("wrapped handler error = %v", err)
	}
	if !called {
		t.Error("inner handler not called")
	}
	if result == nil || result.IsError {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestInstrumentedToolHandlerPropagatesErrors(t *testing.T) {
	wantErr := errors.New("boom")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, wantErr
	}

	// Nil metrics must not panic.
	wrapped := InstrumentedToolHandler("google_auth_status", nil, handler)
	_, err := wrapped(context.Background(), mcp.CallToolRequest{})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("content is not text: %T", result.Content[0])
	}
	return text.Text
}
