package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go"

	"eventa/models"
	"eventa/store"
	"eventa/utils"
)

// Realtime channel names shared with the clients.
const (
	ChannelVotes     = "votes"
	ChannelPurchases = "purchases"
)

// PaymentNotifier bridges the payment collaborator and the realtime
// layer. Inbound, it subscribes to bank payment notifications and moves
// purchases out of pending. Outbound, it publishes vote and purchase
// events; publishes run behind a breaker so a dead realtime backend
// fails fast instead of piling up.
type PaymentNotifier struct {
	store          store.Store
	pn             *pubnub.PubNub
	log            *slog.Logger
	breaker        *utils.Breaker
	paymentChannel string
}

func NewPaymentNotifier(st store.Store, pn *pubnub.PubNub, paymentChannel string, log *slog.Logger) *PaymentNotifier {
	return &PaymentNotifier{
		store:          st,
		pn:             pn,
		log:            log,
		breaker:        utils.NewBreaker("realtime-publish"),
		paymentChannel: paymentChannel,
	}
}

// Run subscribes to the payment notification channel until ctx ends.
// With no PubNub configured it returns immediately; purchases then stay
// pending until an operator resolves them.
func (n *PaymentNotifier) Run(ctx context.Context) {
	if n.pn == nil {
		n.log.Warn("realtime disabled, payment notifications will not be processed")
		return
	}

	listener := pubnub.NewListener()
	n.pn.AddListener(listener)
	n.pn.Subscribe().
		Channels([]string{n.paymentChannel}).
		Execute()

	n.log.Info("subscribed to payment notifications", "channel", n.paymentChannel)

	for {
		select {
		case <-ctx.Done():
			n.pn.Unsubscribe().
				Channels([]string{n.paymentChannel}).
				Execute()
			return
		case message := <-listener.Message:
			n.handlePaymentNotification(ctx, message)
		case <-listener.Status:
		case <-listener.Presence:
		}
	}
}

type paymentNotification struct {
	PurchaseID    string `json:"purchase_id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

// handlePaymentNotification applies a bank-confirmed status transition
// to the purchase row.
func (n *PaymentNotifier) handlePaymentNotification(ctx context.Context, message *pubnub.PNMessage) {
	data, ok := message.Message.(map[string]interface{})
	if !ok {
		return
	}

	jsonData, _ := json.Marshal(data)
	var notification paymentNotification
	if err := json.Unmarshal(jsonData, &notification); err != nil {
		n.log.Error("failed to parse payment notification", "error", err)
		return
	}

	status, ok := mapPaymentStatus(notification.Status)
	if !ok {
		n.log.Warn("ignoring payment notification with unknown status",
			"purchase", notification.PurchaseID,
			"status", notification.Status,
		)
		return
	}

	row, err := n.store.Update(ctx, "purchases", notification.PurchaseID, store.Row{
		"payment_status": status,
	})
	if err != nil {
		n.log.Error("failed to update payment status",
			"purchase", notification.PurchaseID,
			"status", status,
			"error", err,
		)
		return
	}
	purchase := models.PurchaseFromRow(row)

	n.log.Info("payment status updated",
		"purchase", purchase.ID,
		"status", status,
		"transaction", notification.TransactionID,
	)

	n.publish(fmt.Sprintf("user-%s", purchase.UserID), map[string]any{
		"type":        "payment_" + status,
		"purchase_id": purchase.ID,
	})
}

// mapPaymentStatus translates gateway statuses to purchase states.
func mapPaymentStatus(gatewayStatus string) (string, bool) {
	switch gatewayStatus {
	case "success", "completed":
		return models.PaymentCompleted, true
	case "failed":
		return models.PaymentFailed, true
	case "refunded":
		return models.PaymentRefunded, true
	default:
		return "", false
	}
}

// PublishVoteCast announces a cast vote on the votes channel.
func (n *PaymentNotifier) PublishVoteCast(eventID, contestantID string, voteCount int) {
	n.publish(ChannelVotes, map[string]any{
		"type":          "vote_cast",
		"event_id":      eventID,
		"contestant_id": contestantID,
		"vote_count":    voteCount,
	})
}

// PublishPurchaseCreated announces a new pending purchase on the
// purchases channel.
func (n *PaymentNotifier) PublishPurchaseCreated(purchase models.Purchase) {
	n.publish(ChannelPurchases, map[string]any{
		"type":        "purchase_created",
		"purchase_id": purchase.ID,
		"ticket_id":   purchase.TicketID,
		"quantity":    purchase.Quantity,
	})
}

func (n *PaymentNotifier) publish(channel string, message map[string]any) {
	if n.pn == nil {
		return
	}

	err := n.breaker.Execute(func() error {
		_, _, err := n.pn.Publish().
			Channel(channel).
			Message(message).
			Execute()
		return err
	})
	if err != nil {
		n.log.Warn("realtime publish failed", "channel", channel, "error", err)
	}
}
