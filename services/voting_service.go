package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/redis/go-redis/v9"

	"eventa/models"
	"eventa/monitoring"
	"eventa/store"
)

// Publisher pushes realtime notifications after successful writes.
// Publishing is best-effort: failures are logged, never propagated.
type Publisher interface {
	PublishVoteCast(eventID, contestantID string, voteCount int)
	PublishPurchaseCreated(purchase models.Purchase)
}

// VotingService casts votes and serves the vote aggregate.
type VotingService struct {
	store    store.Store
	redis    *redis.Client
	pub      Publisher
	log      *slog.Logger
	cacheTTL time.Duration
}

func NewVotingService(st store.Store, rdb *redis.Client, pub Publisher, cacheTTL time.Duration, log *slog.Logger) *VotingService {
	return &VotingService{
		store:    st,
		redis:    rdb,
		pub:      pub,
		log:      log,
		cacheTTL: cacheTTL,
	}
}

// CastVote inserts one vote row attributed to the given user. Votes are
// immutable and multiplicity is not constrained here; any
// one-vote-per-user policy lives server-side.
func (s *VotingService) CastVote(ctx context.Context, userID, eventID, contestantID string, voteCount int) (models.Vote, error) {
	if userID == "" {
		return models.Vote{}, ErrNotAuthenticated
	}
	if voteCount == 0 {
		voteCount = 1
	}
	if voteCount < 0 {
		return models.Vote{}, Validationf("vote count must be positive")
	}

	row, err := s.store.Insert(ctx, "votes", store.Row{
		"user_id":       userID,
		"event_id":      eventID,
		"contestant_id": contestantID,
		"method":        models.VoteMethodApp,
		"vote_count":    voteCount,
	})
	if err != nil {
		return models.Vote{}, err
	}
	vote := models.VoteFromRow(row)

	monitoring.TrackVoteCast(models.VoteMethodApp)
	s.invalidateStats(ctx, eventID)

	if s.pub != nil {
		s.pub.PublishVoteCast(eventID, contestantID, voteCount)
	}

	return vote, nil
}

// RecordUSSDVote inserts a vote arriving from the USSD gateway. No user
// session exists; the vote is attributed to the phone number only.
func (s *VotingService) RecordUSSDVote(ctx context.Context, eventID, contestantID, phoneNumber string, voteCount int) (models.Vote, error) {
	if voteCount <= 0 {
		voteCount = 1
	}

	row, err := s.store.Insert(ctx, "votes", store.Row{
		"event_id":      eventID,
		"contestant_id": contestantID,
		"method":        models.VoteMethodUSSD,
		"vote_count":    voteCount,
		"phone_number":  phoneNumber,
	})
	if err != nil {
		return models.Vote{}, err
	}

	monitoring.TrackVoteCast(models.VoteMethodUSSD)
	s.invalidateStats(ctx, eventID)

	if s.pub != nil {
		s.pub.PublishVoteCast(eventID, contestantID, voteCount)
	}

	return models.VoteFromRow(row), nil
}

// GetUserVotes returns the user's votes for one event, newest first. An
// absent session yields an empty list rather than an error.
func (s *VotingService) GetUserVotes(ctx context.Context, userID, eventID string) ([]models.Vote, error) {
	if userID == "" {
		return nil, nil
	}

	rows, err := s.store.Query(ctx, "votes", store.QuerySpec{
		Filter: "user_id = {:user} && event_id = {:event}",
		Params: dbx.Params{"user": userID, "event": eventID},
		Sort:   "-created",
	})
	if err != nil {
		return nil, err
	}

	votes := make([]models.Vote, len(rows))
	for i, row := range rows {
		votes[i] = models.VoteFromRow(row)
	}
	return votes, nil
}

// VoteStats fetches the server-computed aggregate for an event, with a
// short-lived cache in front of the RPC.
func (s *VotingService) VoteStats(ctx context.Context, eventID string) (models.VoteStats, error) {
	cacheKey := statsCacheKey(eventID)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var stats models.VoteStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				monitoring.TrackStatsCache(true)
				return stats, nil
			}
		}
	}
	monitoring.TrackStatsCache(false)

	raw, err := s.store.RPC(ctx, "get_vote_stats", store.Row{"event_uuid": eventID})
	if err != nil {
		return models.VoteStats{}, err
	}

	var stats models.VoteStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return models.VoteStats{}, fmt.Errorf("decode vote stats: %w", err)
	}
	if stats.EventID == "" {
		stats.EventID = eventID
	}

	// Cache the normalized form so hits and misses serve the same value.
	if s.redis != nil {
		normalized, err := json.Marshal(stats)
		if err == nil {
			err = s.redis.Set(ctx, cacheKey, string(normalized), s.cacheTTL).Err()
		}
		if err != nil {
			s.log.Warn("failed to cache vote stats", "event", eventID, "error", err)
		}
	}

	return stats, nil
}

func (s *VotingService) invalidateStats(ctx context.Context, eventID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, statsCacheKey(eventID)).Err(); err != nil {
		s.log.Warn("failed to invalidate vote stats cache", "event", eventID, "error", err)
	}
}

func statsCacheKey(eventID string) string {
	return fmt.Sprintf("votestats:%s", eventID)
}

// Standing is a contestant's place on the leaderboard.
type Standing struct {
	ContestantID string `json:"contestant_id"`
	VoteCount    int    `json:"vote_count"`
	Rank         int    `json:"rank"`
}

// Rankings orders the aggregate descending by vote count and assigns
// 1-based ranks. Ties keep the order the aggregate arrived in; the
// tie-break is deliberately unspecified.
func Rankings(stats models.VoteStats) []Standing {
	standings := make([]Standing, len(stats.Contestants))
	for i, c := range stats.Contestants {
		standings[i] = Standing{ContestantID: c.ContestantID, VoteCount: c.VoteCount}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].VoteCount > standings[j].VoteCount
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
