package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewRespectsDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)
	logger.Debug("hidden")
	logger.Info("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message logged at info level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("info message not logged")
	}

	buf.Reset()
	logger = New(&buf, true)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug message not logged in debug mode")
	}
}

func TestErrAttr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError {
		t.Errorf("Err() key = %s, want %s", attr.Key, KeyError)
	}
	if attr.Value.String() != "boom" {
		t.Errorf("Err() value = %s, want boom", attr.Value.String())
	}
}

func TestErrNilOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("operation done", Err(nil))

	if strings.Contains(buf.String(), "error") {
		t.Errorf("nil error produced an error attribute: %s", buf.String())
	}
}

func TestSanitizeToken(t *testing.T) {
	token := "ya29.a0AfH6SMBx"
	sanitized := SanitizeToken(token)
	if strings.Contains(sanitized, "ya29") {
		t.Errorf("SanitizeToken() = %q, leaks token content", sanitized)
	}
	if SanitizeToken("") != "<empty>" {
		t.Errorf("SanitizeToken(\"\") = %q, want <empty>", SanitizeToken(""))
	}
}
