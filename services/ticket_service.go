package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"eventa/models"
	"eventa/monitoring"
	"eventa/store"
	"eventa/utils"
)

// checkInLockTTL guards against the same pass being scanned twice at
// two gates within a short window; the check_ins table stays the
// authoritative dedup.
const checkInLockTTL = 5 * time.Minute

// TicketService handles ticket purchases, purchase history and entry
// check-in.
type TicketService struct {
	store      store.Store
	redis      *redis.Client
	pub        Publisher
	log        *slog.Logger
	maxPerUser int
	now        func() time.Time
}

func NewTicketService(st store.Store, rdb *redis.Client, pub Publisher, maxPerUser int, log *slog.Logger) *TicketService {
	return &TicketService{
		store:      st,
		redis:      rdb,
		pub:        pub,
		log:        log,
		maxPerUser: maxPerUser,
		now:        time.Now,
	}
}

// ClampQuantity bounds a requested quantity to
// [0, min(available, maxPerUser)].
func ClampQuantity(requested, available, maxPerUser int) int {
	if requested < 0 {
		return 0
	}
	limit := available
	if maxPerUser < limit {
		limit = maxPerUser
	}
	if requested > limit {
		return limit
	}
	return requested
}

// PurchaseTicket fetches the authoritative ticket row, computes the
// total from its current price, and inserts a pending purchase carrying
// a freshly generated QR token. No inventory decrement and no payment
// capture happen here: quantity_sold is advanced by the payment
// collaborator, and calling this twice creates two independent
// purchases.
func (s *TicketService) PurchaseTicket(ctx context.Context, userID, ticketID string, quantity int) (models.Purchase, error) {
	if userID == "" {
		return models.Purchase{}, ErrNotAuthenticated
	}
	if quantity < 1 {
		return models.Purchase{}, Validationf("quantity must be at least 1")
	}

	row, err := s.store.QueryOne(ctx, "tickets", ticketID)
	if err != nil {
		return models.Purchase{}, err
	}
	ticket := models.TicketFromRow(row)

	quantity = ClampQuantity(quantity, ticket.Available(), s.maxPerUser)
	if quantity == 0 {
		return models.Purchase{}, Validationf("ticket %q is sold out", ticket.Type)
	}

	total := decimal.NewFromFloat(ticket.Price).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2)

	qrCode, err := utils.NewTicketToken(s.now())
	if err != nil {
		return models.Purchase{}, fmt.Errorf("generate qr token: %w", err)
	}

	created, err := s.store.Insert(ctx, "purchases", store.Row{
		"user_id":        userID,
		"ticket_id":      ticketID,
		"event_id":       ticket.EventID,
		"quantity":       quantity,
		"total_amount":   total.InexactFloat64(),
		"qr_code":        qrCode,
		"payment_status": models.PaymentPending,
	})
	if err != nil {
		return models.Purchase{}, err
	}
	purchase := models.PurchaseFromRow(created)

	monitoring.TrackPurchaseCreated()
	s.log.Info("purchase created",
		"purchase", purchase.ID,
		"ticket", ticketID,
		"quantity", quantity,
		"total", total.StringFixed(2),
	)

	if s.pub != nil {
		s.pub.PublishPurchaseCreated(purchase)
	}

	return purchase, nil
}

// GetUserTickets returns the user's purchases, newest first.
func (s *TicketService) GetUserTickets(ctx context.Context, userID string) ([]models.Purchase, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	rows, err := s.store.Query(ctx, "purchases", store.QuerySpec{
		Filter: "user_id = {:user}",
		Params: dbx.Params{"user": userID},
		Sort:   "-created",
	})
	if err != nil {
		return nil, err
	}

	purchases := make([]models.Purchase, len(rows))
	for i, row := range rows {
		purchases[i] = models.PurchaseFromRow(row)
	}
	return purchases, nil
}

// GetPurchase fetches one purchase and verifies ownership.
func (s *TicketService) GetPurchase(ctx context.Context, userID, purchaseID string) (models.Purchase, error) {
	if userID == "" {
		return models.Purchase{}, ErrNotAuthenticated
	}

	row, err := s.store.QueryOne(ctx, "purchases", purchaseID)
	if err != nil {
		return models.Purchase{}, err
	}
	purchase := models.PurchaseFromRow(row)
	if purchase.UserID != userID {
		return models.Purchase{}, store.ErrNotFound
	}
	return purchase, nil
}

// CheckIn redeems a scanned QR payload at an event's entrance.
// Authenticity relies on an exact match against a purchase's qr_code;
// the payload itself carries no signature.
func (s *TicketService) CheckIn(ctx context.Context, qrCode, eventID string) (models.CheckIn, error) {
	row, err := s.store.QueryOneBy(ctx, "purchases", "qr_code = {:qr}", dbx.Params{"qr": qrCode})
	if err != nil {
		return models.CheckIn{}, err
	}
	purchase := models.PurchaseFromRow(row)

	if purchase.PaymentStatus != models.PaymentCompleted {
		return models.CheckIn{}, Validationf("purchase payment is %s", purchase.PaymentStatus)
	}

	if s.redis != nil {
		lockKey := fmt.Sprintf("checkin:purchase:%s", purchase.ID)
		acquired, err := s.redis.SetNX(ctx, lockKey, "1", checkInLockTTL).Result()
		if err != nil {
			s.log.Warn("check-in lock unavailable", "purchase", purchase.ID, "error", err)
		} else if !acquired {
			return models.CheckIn{}, Validationf("ticket already checked in")
		}
	}

	if _, err := s.store.QueryOneBy(ctx, "check_ins", "purchase_id = {:purchase}", dbx.Params{"purchase": purchase.ID}); err == nil {
		return models.CheckIn{}, Validationf("ticket already checked in")
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.CheckIn{}, err
	}

	created, err := s.store.Insert(ctx, "check_ins", store.Row{
		"purchase_id":   purchase.ID,
		"event_id":      eventID,
		"check_in_time": s.now().UTC(),
	})
	if err != nil {
		return models.CheckIn{}, err
	}

	monitoring.TrackCheckIn()
	s.log.Info("ticket checked in", "purchase", purchase.ID, "event", eventID)

	return models.CheckInFromRow(created), nil
}
