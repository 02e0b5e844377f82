package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/deskgate/internal/calendar"
	"github.com/teemow/deskgate/internal/dispatch"
	"github.com/teemow/deskgate/internal/gateway"
	"github.com/teemow/deskgate/internal/server"
)

// listSummaryLen bounds the one-line summary shown per listed event.
const listSummaryLen = 200

// Definitions returns the Calendar tool definitions bound to the server
// context. Write tools are included only when includeWrite is set.
func Definitions(sc *server.ServerContext, defaultLimit int, includeWrite bool) []*dispatch.Definition {
	defs := []*dispatch.Definition{
		{
			Name:        "search_events",
			Description: "Search upcoming calendar events by free text, ordered by start time",
			Service:     "calendar",
			Operation:   "events.list",
			Schema: dispatch.Schema{
				{Name: "query", Type: dispatch.TypeString, Required: true,
					Description: "Free-text search over event fields"},
				{Name: "limit", Type: dispatch.TypeInt, Default: defaultLimit, Positive: true,
					Description: fmt.Sprintf("Maximum number of events to return (default: %d)", defaultLimit)},
				{Name: "not_before", Type: dispatch.TypeTimestamp,
					Description: "Earliest event start to consider, RFC 3339 (default: now)"},
			},
			Idempotent: true,
			Shape:      gateway.ShapeRule{MaxItems: defaultLimit, MaxSummaryLen: listSummaryLen},
			Call:       searchCapability(sc),
		},
		{
			Name:        "get_upcoming_events",
			Description: "List upcoming calendar events, ordered by start time",
			Service:     "calendar",
			Operation:   "events.list",
			Schema: dispatch.Schema{
				{Name: "limit", Type: dispatch.TypeInt, Default: defaultLimit, Positive: true,
					Description: fmt.Sprintf("Maximum number of events to return (default: %d)", defaultLimit)},
				{Name: "not_before", Type: dispatch.TypeTimestamp,
					Description: "Earliest event start to consider, RFC 3339 (default: now)"},
			},
			Idempotent: true,
			Shape:      gateway.ShapeRule{MaxItems: defaultLimit, MaxSummaryLen: listSummaryLen},
			Call:       upcomingCapability(sc),
		},
	}

	if includeWrite {
		defs = append(defs, &dispatch.Definition{
			Name:        "create_event",
			Description: "Create an event on the primary calendar",
			Service:     "calendar",
			Operation:   "events.insert",
			Schema: dispatch.Schema{
				{Name: "summary", Type: dispatch.TypeString, Required: true,
					Description: "Event title, at most 60 characters"},
				{Name: "start", Type: dispatch.TypeTimestamp, Required: true,
					Description: "Event start, RFC 3339"},
				{Name: "end", Type: dispatch.TypeTimestamp, Required: true,
					Description: "Event end, RFC 3339, after start"},
				{Name: "description", Type: dispatch.TypeString,
					Description: "Optional event description"},
				{Name: "location", Type: dispatch.TypeString,
					Description: "Optional event location"},
			},
			Idempotent: false,
			Shape:      gateway.ShapeRule{MaxItems: 1, MaxSummaryLen: listSummaryLen},
			Call:       createCapability(sc),
		})
	}

	return defs
}

func searchCapability(sc *server.ServerContext) dispatch.Capability {
	return func(ctx context.Context, args map[string]any) (*gateway.ProviderResponse, error) {
		return listEvents(ctx, sc, dispatch.StringArg(args, "query"), args)
	}
}

func upcomingCapability(sc *server.ServerContext) dispatch.Capability {
	return func(ctx context.Context, args map[string]any) (*gateway.ProviderResponse, error) {
		return listEvents(ctx, sc, "", args)
	}
}

func listEvents(ctx context.Context, sc *server.ServerContext, query string, args map[string]any) (*gateway.ProviderResponse, error) {
	client, err := sc.Calendar(ctx)
	if err != nil {
		return nil, gateway.Classify(err)
	}

	limit, _ := dispatch.IntArg(args, "limit")
	notBefore, _ := dispatch.TimeArg(args, "not_before")

	res, err := client.SearchEvents(ctx, query, notBefore, int64(limit))
	if err != nil {
		return nil, err
	}

	resp := &gateway.ProviderResponse{
		Total:   int64(len(res.Events)),
		HasMore: res.HasMore,
	}
	for _, ev := range res.Events {
		resp.Items = append(resp.Items, gateway.Item{
			ID:      ev.ID,
			Summary: eventSummary(ev),
			Ref:     ev.HTMLLink,
		})
	}
	return resp, nil
}

func createCapability(sc *server.ServerContext) dispatch.Capability {
	return func(ctx context.Context, args map[string]any) (*gateway.ProviderResponse, error) {
		client, err := sc.Calendar(ctx)
		if err != nil {
			return nil, gateway.Classify(err)
		}

		start, _ := dispatch.TimeArg(args, "start")
		end, _ := dispatch.TimeArg(args, "end")

		created, err := client.CreateEvent(ctx, calendar.EventInput{
			Summary:     dispatch.StringArg(args, "summary"),
			Description: dispatch.StringArg(args, "description"),
			Location:    dispatch.StringArg(args, "location"),
			Start:       start,
			End:         end,
		})
		if err != nil {
			return nil, err
		}

		return &gateway.ProviderResponse{
			Items: []gateway.Item{{
				ID:      created.ID,
				Summary: eventSummary(created),
				Ref:     created.HTMLLink,
			}},
			Total: 1,
		}, nil
	}
}

// eventSummary renders the one-line listing form of an event.
func eventSummary(ev *calendar.Event) string {
	var b strings.Builder
	b.WriteString(ev.Summary)

	if !ev.Start.IsZero() {
		fmt.Fprintf(&b, " | %s", ev.Start.UTC().Format("2006-01-02 15:04"))
		if !ev.End.IsZero() {
			fmt.Fprintf(&b, "-%s", ev.End.UTC().Format("15:04"))
		}
		b.WriteString(" UTC")
	}
	if ev.Location != "" {
		fmt.Fprintf(&b, " | %s", ev.Location)
	}

	return b.String()
}
