package services

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventa/models"
	"eventa/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ticketRow(price float64, total, sold int) store.Row {
	return store.Row{
		"id":             "tk1",
		"event_id":       "ev1",
		"type":           "VIP",
		"price":          price,
		"quantity_total": total,
		"quantity_sold":  sold,
	}
}

func TestClampQuantity(t *testing.T) {
	tests := []struct {
		name       string
		requested  int
		available  int
		maxPerUser int
		want       int
	}{
		{"within limits", 3, 100, 10, 3},
		{"capped by per-user max", 15, 100, 10, 10},
		{"capped by availability", 7, 4, 10, 4},
		{"negative floors to zero", -3, 100, 10, 0},
		{"zero stays zero", 0, 100, 10, 0},
		{"sold out", 5, 0, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampQuantity(tt.requested, tt.available, tt.maxPerUser))
		})
	}
}

func TestPurchaseTicketTotalExact(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryOneFunc = func(table, id string) (store.Row, error) {
		require.Equal(t, "tickets", table)
		return ticketRow(25.00, 100, 0), nil
	}

	svc := NewTicketService(mock, nil, nil, 10, discardLogger())

	purchase, err := svc.PurchaseTicket(context.Background(), "u1", "tk1", 3)
	require.NoError(t, err)

	assert.Equal(t, 3, purchase.Quantity)
	assert.Equal(t, 75.00, purchase.TotalAmount)
	assert.Equal(t, models.PaymentPending, purchase.PaymentStatus)
	assert.Equal(t, "ev1", purchase.EventID)

	inserts := mock.InsertedInto("purchases")
	require.Len(t, inserts, 1)
	assert.Equal(t, 75.00, inserts[0]["total_amount"])
	assert.Equal(t, "ev1", inserts[0]["event_id"])
	assert.Equal(t, models.PaymentPending, inserts[0]["payment_status"])
}

func TestPurchaseTicketQRFormat(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryOneFunc = func(table, id string) (store.Row, error) {
		return ticketRow(10, 50, 0), nil
	}

	svc := NewTicketService(mock, nil, nil, 10, discardLogger())
	svc.now = func() time.Time { return time.UnixMilli(1756300000000) }

	purchase, err := svc.PurchaseTicket(context.Background(), "u1", "tk1", 1)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^EVT-1756300000000-[0-9a-z]{9}$`), purchase.QRCode)
}

func TestPurchaseTicketClampsToAvailability(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryOneFunc = func(table, id string) (store.Row, error) {
		return ticketRow(25.00, 10, 6), nil
	}

	svc := NewTicketService(mock, nil, nil, 10, discardLogger())

	purchase, err := svc.PurchaseTicket(context.Background(), "u1", "tk1", 7)
	require.NoError(t, err)

	assert.Equal(t, 4, purchase.Quantity)
	assert.Equal(t, 100.00, purchase.TotalAmount)
}

func TestPurchaseTicketSoldOut(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryOneFunc = func(table, id string) (store.Row, error) {
		return ticketRow(25.00, 10, 10), nil
	}

	svc := NewTicketService(mock, nil, nil, 10, discardLogger())

	_, err := svc.PurchaseTicket(context.Background(), "u1", "tk1", 1)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, mock.InsertedInto("purchases"))
}

func TestPurchaseTicketRequiresAuth(t *testing.T) {
	svc := NewTicketService(store.NewMockStore(), nil, nil, 10, discardLogger())

	_, err := svc.PurchaseTicket(context.Background(), "", "tk1", 1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestPurchaseTicketUnknownTicket(t *testing.T) {
	svc := NewTicketService(store.NewMockStore(), nil, nil, 10, discardLogger())

	_, err := svc.PurchaseTicket(context.Background(), "u1", "missing", 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPurchaseTicketRejectsZeroQuantity(t *testing.T) {
	svc := NewTicketService(store.NewMockStore(), nil, nil, 10, discardLogger())

	_, err := svc.PurchaseTicket(context.Background(), "u1", "tk1", 0)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestGetPurchaseOwnership(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryOneFunc = func(table, id string) (store.Row, error) {
		return store.Row{"id": "p1", "user_id": "owner"}, nil
	}

	svc := NewTicketService(mock, nil, nil, 10, discardLogger())

	_, err := svc.GetPurchase(context.Background(), "intruder", "p1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	purchase, err := svc.GetPurchase(context.Background(), "owner", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", purchase.ID)
}

func purchaseByQR(status string) func(table, filter string, params dbx.Params) (store.Row, error) {
	return func(table, filter string, params dbx.Params) (store.Row, error) {
		if table == "purchases" {
			return store.Row{"id": "p1", "user_id": "u1", "payment_status": status}, nil
		}
		return nil, store.ErrNotFound
	}
}

func TestCheckIn(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryOneByFunc = purchaseByQR(models.PaymentCompleted)

	svc := NewTicketService(mock, nil, nil, 10, discardLogger())

	checkIn, err := svc.CheckIn(context.Background(), "EVT-123-abcdefghi", "ev1")
	require.NoError(t, err)
	assert.Equal(t, "p1", checkIn.PurchaseID)

	inserts := mock.InsertedInto("check_ins")
	require.Len(t, inserts, 1)
	assert.Equal(t, "ev1", inserts[0]["event_id"])
	assert.NotNil(t, inserts[0]["check_in_time"])
}

func TestCheckInRejectsPendingPayment(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryOneByFunc = purchaseByQR(models.PaymentPending)

	svc := NewTicketService(mock, nil, nil, 10, discardLogger())

	_, err := svc.CheckIn(context.Background(), "EVT-123-abcdefghi", "ev1")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, mock.InsertedInto("check_ins"))
}

func TestCheckInRejectsDuplicate(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryOneByFunc = func(table, filter string, params dbx.Params) (store.Row, error) {
		switch table {
		case "purchases":
			return store.Row{"id": "p1", "payment_status": models.PaymentCompleted}, nil
		case "check_ins":
			return store.Row{"id": "ci1", "purchase_id": "p1"}, nil
		}
		return nil, store.ErrNotFound
	}

	svc := NewTicketService(mock, nil, nil, 10, discardLogger())

	_, err := svc.CheckIn(context.Background(), "EVT-123-abcdefghi", "ev1")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, mock.InsertedInto("check_ins"))
}

func TestCheckInLockHeldByAnotherGate(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryOneByFunc = purchaseByQR(models.PaymentCompleted)

	rdb, rmock := redismock.NewClientMock()
	rmock.ExpectSetNX("checkin:purchase:p1", "1", checkInLockTTL).SetVal(false)

	svc := NewTicketService(mock, rdb, nil, 10, discardLogger())

	_, err := svc.CheckIn(context.Background(), "EVT-123-abcdefghi", "ev1")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, mock.InsertedInto("check_ins"))
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestCheckInUnknownQR(t *testing.T) {
	svc := NewTicketService(store.NewMockStore(), nil, nil, 10, discardLogger())

	_, err := svc.CheckIn(context.Background(), "EVT-000-notarealqr", "ev1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
