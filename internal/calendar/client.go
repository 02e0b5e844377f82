package calendar

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/deskgate/internal/gateway"
)

const (
	// defaultCalendarID addresses the authenticated user's primary calendar.
	defaultCalendarID = "primary"

	// maxPageSize is the page size used when listing events.
	maxPageSize = 100

	// maxSummaryLen is the longest accepted event summary, in runes.
	maxSummaryLen = 60
)

// Client wraps the Google Calendar service.
type Client struct {
	svc        *calendar.Service
	calendarID string
}

// NewClient creates a Calendar client backed by the given token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc, calendarID: defaultCalendarID}, nil
}

// SearchEvents lists upcoming events matching a free-text query, ordered by
// start time. notBefore sets the time floor; the zero value means now.
// Recurring events are expanded into single instances.
func (c *Client) SearchEvents(ctx context.Context, query string, notBefore time.Time, maxResults int64) (*ListResult, error) {
	if notBefore.IsZero() {
		notBefore = time.Now()
	}

	var events []*Event
	pageToken := ""
	hasMore := false

	for {
		remaining := maxResults - int64(len(events))
		if remaining <= 0 {
			break
		}

		pageSize := remaining
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		call := c.svc.Events.List(c.calendarID).
			TimeMin(notBefore.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(pageSize).
			Context(ctx)
		if query != "" {
			call = call.Q(query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, gateway.ClassifyOp("calendar.events.list", err)
		}

		for _, item := range res.Items {
			events = append(events, toEvent(item))
		}

		if res.NextPageToken == "" {
			break
		}
		if int64(len(events)) >= maxResults {
			hasMore = true
			break
		}
		pageToken = res.NextPageToken
	}

	if int64(len(events)) > maxResults {
		events = events[:maxResults]
		hasMore = true
	}

	return &ListResult{Events: events, HasMore: hasMore}, nil
}

// CreateEvent creates a new event on the primary calendar and returns it.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*Event, error) {
	if err := validateEventInput(input); err != nil {
		return nil, err
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, gateway.ClassifyOp("calendar.events.insert", err)
	}
	return toEvent(created), nil
}

func validateEventInput(input EventInput) error {
	var fields []string
	if input.Summary == "" {
		fields = append(fields, "summary")
	}
	if utf8.RuneCountInString(input.Summary) > maxSummaryLen {
		fields = append(fields, "summary")
	}
	if input.Start.IsZero() {
		fields = append(fields, "start")
	}
	if input.End.IsZero() {
		fields = append(fields, "end")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.End.After(input.Start) {
		fields = append(fields, "end")
	}
	if len(fields) > 0 {
		return gateway.InvalidArgument("missing or malformed event fields", fields...)
	}
	return nil
}
