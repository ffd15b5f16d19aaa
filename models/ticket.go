package models

import (
	"time"

	"eventa/store"
)

type Ticket struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"` // label, e.g. "VIP", "Regular"
	Price         float64   `json:"price"`
	QuantityTotal int       `json:"quantity_total"`
	QuantitySold  int       `json:"quantity_sold"`
	Created       time.Time `json:"created"`
}

// Available returns the remaining sellable quantity, never negative.
func (t Ticket) Available() int {
	if n := t.QuantityTotal - t.QuantitySold; n > 0 {
		return n
	}
	return 0
}

func TicketFromRow(r store.Row) Ticket {
	return Ticket{
		ID:            rowString(r, "id"),
		EventID:       rowString(r, "event_id"),
		Type:          rowString(r, "type"),
		Price:         rowFloat(r, "price"),
		QuantityTotal: rowInt(r, "quantity_total"),
		QuantitySold:  rowInt(r, "quantity_sold"),
		Created:       rowTime(r, "created"),
	}
}
