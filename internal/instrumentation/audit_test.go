package instrumentation

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestToolInvocationComplete(t *testing.T) {
	inv := NewToolInvocation("search_messages").WithService("gmail", "messages.search")
	time.Sleep(time.Millisecond)
	inv.Complete(nil)

	if !inv.Success {
		t.Error("Complete(nil) should mark the invocation successful")
	}
	if inv.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", inv.Duration)
	}
	if got := inv.Status(); got != StatusSuccess {
		t.Errorf("Status() = %q, want %q", got, StatusSuccess)
	}

	failed := NewToolInvocation("send_message").Complete(errors.New("boom"))
	if failed.Success {
		t.Error("Complete(err) should mark the invocation failed")
	}
	if failed.Error != "boom" {
		t.Errorf("Error = %q, want %q", failed.Error, "boom")
	}
	if got := failed.Status(); got != StatusError {
		t.Errorf("Status() = %q, want %q", got, StatusError)
	}
}

func TestAuditLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	al.LogToolInvocation(NewToolInvocation("list_recent_messages").
		WithService("gmail", "messages.list").Complete(nil))

	out := buf.String()
	if !strings.Contains(out, "tool_executed") {
		t.Errorf("success record missing tool_executed: %q", out)
	}
	if !strings.Contains(out, "level=INFO") {
		t.Errorf("success record should log at info: %q", out)
	}
	if !strings.Contains(out, "service=gmail") || !strings.Contains(out, "operation=messages.list") {
		t.Errorf("record missing service/operation labels: %q", out)
	}

	buf.Reset()
	al.LogToolInvocation(NewToolInvocation("create_event").Complete(errors.New("insert failed")))

	out = buf.String()
	if !strings.Contains(out, "tool_failed") {
		t.Errorf("failure record missing tool_failed: %q", out)
	}
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("failure record should log at warn: %q", out)
	}
	if !strings.Contains(out, "insert failed") {
		t.Errorf("failure record missing error: %q", out)
	}
}

func TestAuditLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	al.SetEnabled(false)

	al.LogToolInvocation(NewToolInvocation("get_message").Complete(nil))

	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote output: %q", buf.String())
	}
}

func TestAuditLoggerNilSafe(t *testing.T) {
	var al *AuditLogger
	al.LogToolInvocation(NewToolInvocation("get_message").Complete(nil))
}
