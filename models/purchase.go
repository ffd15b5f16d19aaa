package models

import (
	"time"

	"eventa/store"
)

// Payment status starts pending; the transition to completed/failed
// comes from the payment notification channel, never from this service
// deciding on its own.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

type Purchase struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	TicketID      string    `json:"ticket_id"`
	EventID       string    `json:"event_id"`
	Quantity      int       `json:"quantity"`
	TotalAmount   float64   `json:"total_amount"`
	QRCode        string    `json:"qr_code"`
	PaymentStatus string    `json:"payment_status"` // pending, completed, failed, refunded
	Created       time.Time `json:"created"`
}

func PurchaseFromRow(r store.Row) Purchase {
	return Purchase{
		ID:            rowString(r, "id"),
		UserID:        rowString(r, "user_id"),
		TicketID:      rowString(r, "ticket_id"),
		EventID:       rowString(r, "event_id"),
		Quantity:      rowInt(r, "quantity"),
		TotalAmount:   rowFloat(r, "total_amount"),
		QRCode:        rowString(r, "qr_code"),
		PaymentStatus: rowString(r, "payment_status"),
		Created:       rowTime(r, "created"),
	}
}
