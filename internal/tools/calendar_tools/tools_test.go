package calendar_tools

import (
	"testing"
	"time"

	"github.com/teemow/deskgate/internal/calendar"
	"github.com/teemow/deskgate/internal/dispatch"
)

func TestDefinitionsWriteGate(t *testing.T) {
	readOnly := Definitions(nil, 10, false)
	want := []string{"search_events", "get_upcoming_events"}
	if len(readOnly) != len(want) {
		t.Fatalf("read-only definitions = %v, want %v", names(readOnly), want)
	}
	for i, name := range want {
		if readOnly[i].Name != name {
			t.Errorf("definition %d = %q, want %q", i, readOnly[i].Name, name)
		}
	}

	withWrite := Definitions(nil, 10, true)
	if len(withWrite) != 3 {
		t.Fatalf("definitions with write = %v", names(withWrite))
	}
	for _, def := range withWrite {
		if def.Name == "create_event" && def.Idempotent {
			t.Error("create_event must not be marked idempotent")
		}
	}
}

func TestUpcomingEventsNeedsNoQuery(t *testing.T) {
	var upcoming *dispatch.Definition
	for _, def := range Definitions(nil, 10, false) {
		if def.Name == "get_upcoming_events" {
			upcoming = def
		}
	}
	if upcoming == nil {
		t.Fatal("get_upcoming_events not registered")
	}

	validated, err := upcoming.Schema.Validate(map[string]any{})
	if err != nil {
		t.Fatalf("Validate() with no arguments error = %v", err)
	}
	if validated["limit"] != 10 {
		t.Errorf("default limit = %v, want 10", validated["limit"])
	}
	for _, f := range upcoming.Schema {
		if f.Name == "query" {
			t.Error("get_upcoming_events must not declare a query field")
		}
	}
}

func names(defs []*dispatch.Definition) []string {
	out := make([]string, len(defs))
	for i, def := range defs {
		out[i] = def.Name
	}
	return out
}

func TestEventSummary(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event *calendar.Event
		want  string
	}{
		{
			name: "timed event with location",
			event: &calendar.Event{
				Summary:  "Team Meeting",
				Start:    start,
				End:      start.Add(time.Hour),
				Location: "Room 2",
			},
			want: "Team Meeting | 2026-09-01 10:00-11:00 UTC | Room 2",
		},
		{
			name: "no end time",
			event: &calendar.Event{
				Summary: "Reminder",
				Start:   start,
			},
			want: "Reminder | 2026-09-01 10:00 UTC",
		},
		{
			name:  "title only",
			event: &calendar.Event{Summary: "Untimed"},
			want:  "Untimed",
		},
		{
			name: "non-UTC start normalized",
			event: &calendar.Event{
				Summary: "Call",
				Start:   time.Date(2026, 9, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600)),
			},
			want: "Call | 2026-09-01 10:00 UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eventSummary(tt.event); got != tt.want {
				t.Errorf("eventSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
