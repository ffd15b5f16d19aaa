package models

import (
	"time"

	"eventa/store"
)

type CheckIn struct {
	ID          string    `json:"id"`
	PurchaseID  string    `json:"purchase_id"`
	EventID     string    `json:"event_id"`
	CheckInTime time.Time `json:"check_in_time"`
}

func CheckInFromRow(r store.Row) CheckIn {
	return CheckIn{
		ID:          rowString(r, "id"),
		PurchaseID:  rowString(r, "purchase_id"),
		EventID:     rowString(r, "event_id"),
		CheckInTime: rowTime(r, "check_in_time"),
	}
}
