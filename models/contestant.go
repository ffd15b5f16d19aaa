package models

import (
	"time"

	"eventa/store"
)

type Contestant struct {
	ID       string    `json:"id"`
	EventID  string    `json:"event_id"`
	Name     string    `json:"name"`
	Bio      string    `json:"bio,omitempty"`
	MediaURL string    `json:"media_url,omitempty"`
	Code     string    `json:"code"` // short public identifier, unique within the event
	Created  time.Time `json:"created"`
}

func ContestantFromRow(r store.Row) Contestant {
	return Contestant{
		ID:       rowString(r, "id"),
		EventID:  rowString(r, "event_id"),
		Name:     rowString(r, "name"),
		Bio:      rowString(r, "bio"),
		MediaURL: rowString(r, "media_url"),
		Code:     rowString(r, "code"),
		Created:  rowTime(r, "created"),
	}
}
