package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"eventa/config"
	"eventa/services"
	"eventa/store"
)

// USSDHandler ingests votes relayed by the USSD gateway. The gateway
// authenticates with a pre-shared API key (stored here only as a bcrypt
// hash) and signs each request body with HMAC-SHA256.
type USSDHandler struct {
	voting *services.VotingService
	store  store.Store
	redis  *redis.Client
	cfg    *config.Config
	log    *slog.Logger
}

func NewUSSDHandler(voting *services.VotingService, st store.Store, rdb *redis.Client, cfg *config.Config, log *slog.Logger) *USSDHandler {
	return &USSDHandler{
		voting: voting,
		store:  st,
		redis:  rdb,
		cfg:    cfg,
		log:    log,
	}
}

type ussdVoteRequest struct {
	EventID        string `json:"event_id"`
	ContestantCode string `json:"contestant_code"`
	PhoneNumber    string `json:"phone_number"`
	VoteCount      int    `json:"vote_count"`
	Reference      string `json:"reference"`
}

// VoteWebhook records a vote cast over USSD. Replays of the same
// gateway reference are acknowledged without inserting a second row.
func (h *USSDHandler) VoteWebhook(e *core.RequestEvent) error {
	if h.cfg.USSDGatewayKeyHash == "" || h.cfg.USSDWebhookSecret == "" {
		return apis.NewForbiddenError("USSD ingestion is not configured", nil)
	}

	gatewayKey := e.Request.Header.Get("X-Gateway-Key")
	if bcrypt.CompareHashAndPassword([]byte(h.cfg.USSDGatewayKeyHash), []byte(gatewayKey)) != nil {
		return apis.NewForbiddenError("Unknown gateway", nil)
	}

	body, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if !verifySignature(body, h.cfg.USSDWebhookSecret, e.Request.Header.Get("X-Signature")) {
		return apis.NewForbiddenError("Invalid signature", nil)
	}

	var req ussdVoteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" || req.ContestantCode == "" || req.PhoneNumber == "" {
		return apis.NewBadRequestError("event_id, contestant_code and phone_number are required", nil)
	}

	reference := req.Reference
	if reference == "" {
		// No gateway reference means no dedup; tag the vote anyway so it
		// stays traceable.
		reference = uuid.NewString()
		h.log.Warn("ussd vote without gateway reference", "event", req.EventID)
	}

	result, err := h.processVote(e.Request.Context(), req, reference)
	if err != nil {
		return apiError(err, "Failed to record vote")
	}

	return e.JSON(http.StatusOK, result)
}

type ussdVoteResult struct {
	Status    string `json:"status"`
	VoteID    string `json:"vote_id,omitempty"`
	Reference string `json:"reference"`
}

// processVote claims the gateway reference, resolves the contestant and
// records the vote. A reference is only kept claimed once the vote row
// exists; any failure in between releases it so the gateway's retry is
// processed instead of being swallowed as a duplicate.
func (h *USSDHandler) processVote(ctx context.Context, req ussdVoteRequest, reference string) (ussdVoteResult, error) {
	claimed := false
	if h.redis != nil && req.Reference != "" {
		acquired, err := h.redis.SetNX(ctx, "ussd:ref:"+reference, "1", h.cfg.USSDDedupTTL).Result()
		if err != nil {
			h.log.Warn("ussd dedup unavailable", "reference", reference, "error", err)
		} else if !acquired {
			return ussdVoteResult{Status: "duplicate", Reference: reference}, nil
		} else {
			claimed = true
		}
	}

	contestant, err := h.resolveContestant(ctx, req.EventID, req.ContestantCode)
	if err != nil {
		h.releaseReference(ctx, reference, claimed)
		return ussdVoteResult{}, err
	}

	vote, err := h.voting.RecordUSSDVote(ctx, req.EventID, contestant, req.PhoneNumber, req.VoteCount)
	if err != nil {
		h.releaseReference(ctx, reference, claimed)
		return ussdVoteResult{}, err
	}

	return ussdVoteResult{Status: "accepted", VoteID: vote.ID, Reference: reference}, nil
}

func (h *USSDHandler) releaseReference(ctx context.Context, reference string, claimed bool) {
	if !claimed || h.redis == nil {
		return
	}
	if err := h.redis.Del(ctx, "ussd:ref:"+reference).Err(); err != nil {
		h.log.Warn("failed to release ussd reference", "reference", reference, "error", err)
	}
}

// resolveContestant maps the short public code dialed over USSD to the
// contestant id within the event.
func (h *USSDHandler) resolveContestant(ctx context.Context, eventID, code string) (string, error) {
	row, err := h.store.QueryOneBy(ctx, "contestants",
		"event_id = {:event} && code = {:code}",
		dbx.Params{"event": eventID, "code": code})
	if err != nil {
		return "", err
	}
	return store.RowID(row), nil
}

func verifySignature(body []byte, secret, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
