package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"eventa/models"
	"eventa/services"
)

type FeedHandler struct {
	app      *pocketbase.PocketBase
	events   *services.EventService
	pageSize int
}

func NewFeedHandler(app *pocketbase.PocketBase, events *services.EventService, pageSize int) *FeedHandler {
	return &FeedHandler{
		app:      app,
		events:   events,
		pageSize: pageSize,
	}
}

// ListEvents serves one feed page. The status filter is applied locally
// after the fetch, so has_more always reflects the raw page length and
// a page can legitimately contribute fewer items than page_size.
func (h *FeedHandler) ListEvents(e *core.RequestEvent) error {
	query := e.Request.URL.Query()

	filters := models.EventFilters{
		Type:     query.Get("type"),
		Category: query.Get("category"),
		Status:   query.Get("status"),
	}
	search := query.Get("search")

	offset, err := strconv.Atoi(query.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	raw, err := h.events.FetchPage(e.Request.Context(), filters, search, h.pageSize, offset)
	if err != nil {
		return apiError(err, "Failed to load events")
	}

	now := time.Now()
	visible := services.ApplyStatusFilter(raw, filters.Status, now)

	items := make([]map[string]any, len(visible))
	for i, event := range visible {
		items[i] = eventPayload(event, now)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"items":     items,
		"offset":    offset + h.pageSize,
		"has_more":  len(raw) == h.pageSize,
		"page_size": h.pageSize,
	})
}

// GetEvent serves one event with its contestants and tickets.
func (h *FeedHandler) GetEvent(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	event, err := h.events.GetEvent(e.Request.Context(), eventID)
	if err != nil {
		return apiError(err, "Failed to load event")
	}

	payload := eventPayload(*event, time.Now())
	payload["contestants"] = event.Contestants

	tickets := make([]map[string]any, len(event.Tickets))
	for i, ticket := range event.Tickets {
		tickets[i] = map[string]any{
			"id":             ticket.ID,
			"type":           ticket.Type,
			"price":          ticket.Price,
			"quantity_total": ticket.QuantityTotal,
			"quantity_sold":  ticket.QuantitySold,
			"available":      ticket.Available(),
		}
	}
	payload["tickets"] = tickets

	return e.JSON(http.StatusOK, payload)
}

func eventPayload(event models.Event, now time.Time) map[string]any {
	return map[string]any{
		"id":           event.ID,
		"title":        event.Title,
		"type":         event.Type,
		"organizer_id": event.OrganizerID,
		"category":     event.Category,
		"location":     event.Location,
		"description":  event.Description,
		"start_date":   event.StartDate,
		"end_date":     event.EndDate,
		"image_url":    event.ImageURL,
		"status":       event.Status(now),
	}
}
