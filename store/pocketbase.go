package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// PBStore implements Store on top of an embedded PocketBase app. The
// app owns auth, the relational store and the filtered record queries;
// this type only adapts them to the Store contract.
type PBStore struct {
	app core.App
}

func NewPBStore(app core.App) *PBStore {
	return &PBStore{app: app}
}

func (s *PBStore) Query(_ context.Context, table string, spec QuerySpec) ([]Row, error) {
	records, err := s.app.FindRecordsByFilter(
		table,
		spec.Filter,
		spec.Sort,
		spec.Limit,
		spec.Offset,
		spec.Params,
	)
	if err != nil {
		return nil, remoteErr("query "+table, err)
	}

	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = exportRecord(rec)
	}
	return rows, nil
}

func (s *PBStore) QueryOne(_ context.Context, table, id string) (Row, error) {
	rec, err := s.app.FindRecordById(table, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, remoteErr("query "+table, err)
	}
	return exportRecord(rec), nil
}

func (s *PBStore) QueryOneBy(_ context.Context, table, filter string, params dbx.Params) (Row, error) {
	rec, err := s.app.FindFirstRecordByFilter(table, filter, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, remoteErr("query "+table, err)
	}
	return exportRecord(rec), nil
}

func (s *PBStore) Insert(_ context.Context, table string, fields Row) (Row, error) {
	collection, err := s.app.FindCollectionByNameOrId(table)
	if err != nil {
		return nil, remoteErr("insert "+table, err)
	}

	rec := core.NewRecord(collection)
	rec.Load(fields)

	if err := s.app.Save(rec); err != nil {
		return nil, remoteErr("insert "+table, err)
	}
	return exportRecord(rec), nil
}

func (s *PBStore) Update(_ context.Context, table, id string, fields Row) (Row, error) {
	rec, err := s.app.FindRecordById(table, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, remoteErr("update "+table, err)
	}

	for k, v := range fields {
		rec.Set(k, v)
	}

	if err := s.app.Save(rec); err != nil {
		return nil, remoteErr("update "+table, err)
	}
	return exportRecord(rec), nil
}

// RPC dispatches the server-computed functions. get_vote_stats is the
// only one: a SQL aggregate over votes, grouped per contestant and per
// method, so counts are never derived row-by-row on the client side.
func (s *PBStore) RPC(_ context.Context, name string, args Row) (json.RawMessage, error) {
	switch name {
	case "get_vote_stats":
		eventID, _ := args["event_uuid"].(string)
		if eventID == "" {
			return nil, fmt.Errorf("get_vote_stats: missing event_uuid")
		}
		return s.voteStats(eventID)
	default:
		return nil, fmt.Errorf("unknown rpc function %q", name)
	}
}

func (s *PBStore) voteStats(eventID string) (json.RawMessage, error) {
	var perContestant []struct {
		ContestantID string `db:"contestant_id"`
		VoteCount    int    `db:"vote_count"`
	}
	err := s.app.DB().
		NewQuery(`SELECT contestant_id, COALESCE(SUM(vote_count), 0) AS vote_count
			FROM votes
			WHERE event_id = {:event}
			GROUP BY contestant_id
			ORDER BY vote_count DESC`).
		Bind(dbx.Params{"event": eventID}).
		All(&perContestant)
	if err != nil {
		return nil, remoteErr("rpc get_vote_stats", err)
	}

	var perMethod []struct {
		Method    string `db:"method"`
		VoteCount int    `db:"vote_count"`
	}
	err = s.app.DB().
		NewQuery(`SELECT method, COALESCE(SUM(vote_count), 0) AS vote_count
			FROM votes
			WHERE event_id = {:event}
			GROUP BY method`).
		Bind(dbx.Params{"event": eventID}).
		All(&perMethod)
	if err != nil {
		return nil, remoteErr("rpc get_vote_stats", err)
	}

	total := 0
	byMethod := map[string]int{}
	for _, m := range perMethod {
		byMethod[m.Method] = m.VoteCount
		total += m.VoteCount
	}

	contestants := make([]map[string]any, len(perContestant))
	for i, c := range perContestant {
		contestants[i] = map[string]any{
			"contestant_id": c.ContestantID,
			"vote_count":    c.VoteCount,
		}
	}

	return json.Marshal(map[string]any{
		"event_id":    eventID,
		"total_votes": total,
		"contestants": contestants,
		"by_method":   byMethod,
	})
}

func (s *PBStore) Auth() AuthStore {
	return &pbAuth{app: s.app}
}

type pbAuth struct {
	app core.App
}

func (a *pbAuth) SignUp(_ context.Context, email, password string, profile Row) (Row, error) {
	collection, err := a.app.FindCollectionByNameOrId("users")
	if err != nil {
		return nil, remoteErr("signup", err)
	}

	rec := core.NewRecord(collection)
	rec.Load(profile)
	rec.Set("email", email)
	rec.Set("emailVisibility", true)
	rec.Set("password", password)

	if err := a.app.Save(rec); err != nil {
		return nil, remoteErr("signup", err)
	}
	return exportRecord(rec), nil
}

func (a *pbAuth) SignIn(_ context.Context, email, password string) (Row, error) {
	rec, err := a.app.FindAuthRecordByEmail("users", email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !rec.ValidatePassword(password) {
		return nil, ErrInvalidCredentials
	}
	return exportRecord(rec), nil
}

func exportRecord(rec *core.Record) Row {
	return rec.PublicExport()
}
