package models

import (
	"time"

	"eventa/store"
)

const (
	VoteMethodApp  = "app"
	VoteMethodUSSD = "ussd"
)

// Vote rows are immutable once written; there is no update or delete
// path. UserID is empty for USSD votes.
type Vote struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"`
	EventID      string    `json:"event_id"`
	ContestantID string    `json:"contestant_id"`
	Method       string    `json:"method"` // app, ussd
	VoteCount    int       `json:"vote_count"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	Created      time.Time `json:"created"`
}

func VoteFromRow(r store.Row) Vote {
	return Vote{
		ID:           rowString(r, "id"),
		UserID:       rowString(r, "user_id"),
		EventID:      rowString(r, "event_id"),
		ContestantID: rowString(r, "contestant_id"),
		Method:       rowString(r, "method"),
		VoteCount:    rowInt(r, "vote_count"),
		PhoneNumber:  rowString(r, "phone_number"),
		Created:      rowTime(r, "created"),
	}
}

// VoteStats is the server-computed aggregate returned by the
// get_vote_stats function.
type VoteStats struct {
	EventID     string            `json:"event_id"`
	TotalVotes  int               `json:"total_votes"`
	Contestants []ContestantVotes `json:"contestants"`
	ByMethod    map[string]int    `json:"by_method"`
}

type ContestantVotes struct {
	ContestantID string `json:"contestant_id"`
	VoteCount    int    `json:"vote_count"`
}
