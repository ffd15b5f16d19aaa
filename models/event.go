package models

import (
	"time"

	"eventa/store"
)

const (
	EventTypeVote   = "vote"
	EventTypeTicket = "ticket"
)

// Event status is derived from the stored dates against wall-clock now;
// it is never persisted.
const (
	EventStatusUpcoming = "upcoming"
	EventStatusLive     = "live"
	EventStatusEnded    = "ended"
)

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Type        string    `json:"type"` // vote, ticket
	OrganizerID string    `json:"organizer_id"`
	Category    string    `json:"category"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsPublished bool      `json:"is_published"`
	Created     time.Time `json:"created"`

	// Relations, populated only on detail fetches.
	Contestants []Contestant `json:"contestants,omitempty"`
	Tickets     []Ticket     `json:"tickets,omitempty"`
}

// Status derives upcoming/live/ended from the event dates.
func (e Event) Status(now time.Time) string {
	if now.Before(e.StartDate) {
		return EventStatusUpcoming
	}
	if now.After(e.EndDate) {
		return EventStatusEnded
	}
	return EventStatusLive
}

// EventFilters is the structured filter set of the feed. Status is
// matched client-side against the derived status.
type EventFilters struct {
	Type     string `json:"type,omitempty"`
	Category string `json:"category,omitempty"`
	Status   string `json:"status,omitempty"`
}

func EventFromRow(r store.Row) Event {
	return Event{
		ID:          rowString(r, "id"),
		Title:       rowString(r, "title"),
		Type:        rowString(r, "type"),
		OrganizerID: rowString(r, "organizer_id"),
		Category:    rowString(r, "category"),
		Location:    rowString(r, "location"),
		Description: rowString(r, "description"),
		StartDate:   rowTime(r, "start_date"),
		EndDate:     rowTime(r, "end_date"),
		ImageURL:    rowString(r, "image_url"),
		IsPublished: rowBool(r, "is_published"),
		Created:     rowTime(r, "created"),
	}
}
