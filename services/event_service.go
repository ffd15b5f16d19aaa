package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pocketbase/dbx"

	"eventa/models"
	"eventa/store"
)

// EventService reads published events and their relations from the data
// service.
type EventService struct {
	store store.Store
	log   *slog.Logger
}

func NewEventService(st store.Store, log *slog.Logger) *EventService {
	return &EventService{store: st, log: log}
}

// BuildEventsQuery translates the feed's filter set into a remote query.
// Only clauses for present fields are included; search is a
// case-insensitive contains on title only; results are always published
// rows ordered ascending by start date. Status never becomes a clause:
// it is derived from two stored dates against wall-clock now, so it is
// filtered client-side after the fetch.
func BuildEventsQuery(filters models.EventFilters, search string, limit, offset int) store.QuerySpec {
	clauses := []string{"is_published = true"}
	params := dbx.Params{}

	if s := strings.TrimSpace(search); s != "" {
		clauses = append(clauses, "title ~ {:search}")
		params["search"] = s
	}
	if filters.Type != "" {
		clauses = append(clauses, "type = {:type}")
		params["type"] = filters.Type
	}
	if filters.Category != "" {
		clauses = append(clauses, "category = {:category}")
		params["category"] = filters.Category
	}

	return store.QuerySpec{
		Filter: strings.Join(clauses, " && "),
		Params: params,
		Sort:   "start_date",
		Limit:  limit,
		Offset: offset,
	}
}

// FetchPage returns one raw page of events. The caller applies the
// status filter; the returned length is the raw page length.
func (s *EventService) FetchPage(ctx context.Context, filters models.EventFilters, search string, limit, offset int) ([]models.Event, error) {
	spec := BuildEventsQuery(filters, search, limit, offset)

	rows, err := s.store.Query(ctx, "events", spec)
	if err != nil {
		return nil, err
	}

	events := make([]models.Event, len(rows))
	for i, row := range rows {
		events[i] = models.EventFromRow(row)
	}
	return events, nil
}

// ApplyStatusFilter keeps events whose derived status matches. An empty
// status keeps everything.
func ApplyStatusFilter(events []models.Event, status string, now time.Time) []models.Event {
	if status == "" {
		return events
	}

	filtered := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.Status(now) == status {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// GetEvent fetches a single event with its contestants and tickets.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	row, err := s.store.QueryOne(ctx, "events", eventID)
	if err != nil {
		return nil, err
	}
	event := models.EventFromRow(row)

	contestantRows, err := s.store.Query(ctx, "contestants", store.QuerySpec{
		Filter: "event_id = {:event}",
		Params: dbx.Params{"event": eventID},
		Sort:   "created",
	})
	if err != nil {
		return nil, err
	}
	for _, r := range contestantRows {
		event.Contestants = append(event.Contestants, models.ContestantFromRow(r))
	}

	ticketRows, err := s.store.Query(ctx, "tickets", store.QuerySpec{
		Filter: "event_id = {:event}",
		Params: dbx.Params{"event": eventID},
		Sort:   "price",
	})
	if err != nil {
		return nil, err
	}
	for _, r := range ticketRows {
		event.Tickets = append(event.Tickets, models.TicketFromRow(r))
	}

	return &event, nil
}
