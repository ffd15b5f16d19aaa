package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventa/services"
)

type VotingHandler struct {
	app    *pocketbase.PocketBase
	voting *services.VotingService
}

func NewVotingHandler(app *pocketbase.PocketBase, voting *services.VotingService) *VotingHandler {
	return &VotingHandler{app: app, voting: voting}
}

// CastVote inserts a vote for the authenticated user. The response does
// not include refreshed counts; clients call GetVoteStats afterwards.
func (h *VotingHandler) CastVote(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Not authenticated", nil)
	}

	var req struct {
		ContestantID string `json:"contestant_id"`
		VoteCount    int    `json:"vote_count"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.ContestantID == "" {
		return apis.NewBadRequestError("contestant_id is required", nil)
	}

	vote, err := h.voting.CastVote(
		e.Request.Context(),
		e.Auth.Id,
		e.Request.PathValue("eventId"),
		req.ContestantID,
		req.VoteCount,
	)
	if err != nil {
		return apiError(err, "Failed to cast vote")
	}

	return e.JSON(http.StatusOK, vote)
}

// GetVoteStats serves the aggregate plus client-computed rankings.
func (h *VotingHandler) GetVoteStats(e *core.RequestEvent) error {
	stats, err := h.voting.VoteStats(e.Request.Context(), e.Request.PathValue("eventId"))
	if err != nil {
		return apiError(err, "Failed to load vote stats")
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event_id":    stats.EventID,
		"total_votes": stats.TotalVotes,
		"contestants": stats.Contestants,
		"by_method":   stats.ByMethod,
		"rankings":    services.Rankings(stats),
	})
}

// GetMyVotes lists the authenticated user's votes for one event.
func (h *VotingHandler) GetMyVotes(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Not authenticated", nil)
	}

	votes, err := h.voting.GetUserVotes(
		e.Request.Context(),
		e.Auth.Id,
		e.Request.URL.Query().Get("event"),
	)
	if err != nil {
		return apiError(err, "Failed to load votes")
	}

	return e.JSON(http.StatusOK, map[string]any{"votes": votes})
}
