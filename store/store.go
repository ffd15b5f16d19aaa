// Package store wraps the hosted data service behind a table-keyed
// query/insert/update/rpc contract so that services never touch the
// provider directly.
package store

import (
	"context"
	"encoding/json"

	"github.com/pocketbase/dbx"
)

// Row is one stored record, keyed by column name. Values carry whatever
// the provider returns; typed decoding happens in the models package.
type Row = map[string]any

// QuerySpec describes a server-side filtered read.
type QuerySpec struct {
	Filter string
	Params dbx.Params
	Sort   string
	Limit  int
	Offset int
}

// Store is the remote data service contract. A single implementation is
// created at startup and injected into every component that issues
// calls; it is never re-initialized during the process lifetime.
type Store interface {
	// Query runs a filtered, ordered, paginated read against a table.
	Query(ctx context.Context, table string, spec QuerySpec) ([]Row, error)

	// QueryOne fetches a single row by id. Returns ErrNotFound when the
	// row is absent.
	QueryOne(ctx context.Context, table, id string) (Row, error)

	// QueryOneBy fetches the first row matching a filter. Returns
	// ErrNotFound when nothing matches.
	QueryOneBy(ctx context.Context, table, filter string, params dbx.Params) (Row, error)

	// Insert creates a single row and returns the stored representation.
	Insert(ctx context.Context, table string, fields Row) (Row, error)

	// Update applies fields to the row with the given id and returns the
	// updated representation.
	Update(ctx context.Context, table, id string, fields Row) (Row, error)

	// RPC invokes a named server-side function. Only get_vote_stats is
	// defined today.
	RPC(ctx context.Context, name string, args Row) (json.RawMessage, error)

	// Auth exposes the session lifecycle of the provider.
	Auth() AuthStore
}

// AuthStore covers sign-up and credential verification. Token issuance
// and per-request session resolution stay with the provider's own HTTP
// layer.
type AuthStore interface {
	// SignUp registers a user with the given credentials and profile
	// fields and returns the created user row.
	SignUp(ctx context.Context, email, password string, profile Row) (Row, error)

	// SignIn verifies credentials and returns the matching user row.
	// Returns ErrInvalidCredentials when they do not match.
	SignIn(ctx context.Context, email, password string) (Row, error)
}

// RowID extracts the id column of a row, tolerating absent values.
func RowID(r Row) string {
	if r == nil {
		return ""
	}
	if id, ok := r["id"].(string); ok {
		return id
	}
	return ""
}
