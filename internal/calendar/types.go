package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Event represents a simplified calendar event.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Status      string
	Organizer   string
	HTMLLink    string
}

// ListResult holds a page-merged listing of events.
type ListResult struct {
	Events []*Event
	// HasMore reports that more matching events exist beyond the
	// requested limit. The Calendar API does not report a total match
	// count.
	HasMore bool
}

// EventInput represents the input for creating a calendar event.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// toEvent converts a Calendar API event to the simplified form.
func toEvent(event *calendar.Event) *Event {
	e := &Event{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
		HTMLLink:    event.HtmlLink,
	}
	if event.Organizer != nil {
		e.Organizer = event.Organizer.Email
	}
	e.Start = parseEventTime(event.Start)
	e.End = parseEventTime(event.End)
	return e
}

// parseEventTime handles both timed and all-day event boundaries.
func parseEventTime(edt *calendar.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
