package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pocketbase/dbx"
)

// MockStore is an in-memory Store for service tests. Behavior is
// customized per test through the *Func fields; every call is recorded
// so tests can assert on call counts and payloads.
type MockStore struct {
	mu sync.Mutex

	QueryFunc      func(table string, spec QuerySpec) ([]Row, error)
	QueryOneFunc   func(table, id string) (Row, error)
	QueryOneByFunc func(table, filter string, params dbx.Params) (Row, error)
	InsertFunc     func(table string, fields Row) (Row, error)
	UpdateFunc     func(table, id string, fields Row) (Row, error)
	RPCFunc        func(name string, args Row) (json.RawMessage, error)
	SignUpFunc     func(email, password string, profile Row) (Row, error)
	SignInFunc     func(email, password string) (Row, error)

	QueryCalls  []MockQueryCall
	InsertCalls []MockInsertCall
	UpdateCalls []MockUpdateCall
	RPCCalls    []string

	nextID int
}

type MockQueryCall struct {
	Table string
	Spec  QuerySpec
}

type MockInsertCall struct {
	Table  string
	Fields Row
}

type MockUpdateCall struct {
	Table  string
	ID     string
	Fields Row
}

func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Query(_ context.Context, table string, spec QuerySpec) ([]Row, error) {
	m.mu.Lock()
	m.QueryCalls = append(m.QueryCalls, MockQueryCall{Table: table, Spec: spec})
	fn := m.QueryFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(table, spec)
	}
	return nil, nil
}

func (m *MockStore) QueryOne(_ context.Context, table, id string) (Row, error) {
	m.mu.Lock()
	fn := m.QueryOneFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(table, id)
	}
	return nil, ErrNotFound
}

func (m *MockStore) QueryOneBy(_ context.Context, table, filter string, params dbx.Params) (Row, error) {
	m.mu.Lock()
	fn := m.QueryOneByFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(table, filter, params)
	}
	return nil, ErrNotFound
}

func (m *MockStore) Insert(_ context.Context, table string, fields Row) (Row, error) {
	m.mu.Lock()
	m.InsertCalls = append(m.InsertCalls, MockInsertCall{Table: table, Fields: fields})
	fn := m.InsertFunc
	m.nextID++
	id := fmt.Sprintf("rec-%d", m.nextID)
	m.mu.Unlock()

	if fn != nil {
		return fn(table, fields)
	}

	row := Row{}
	for k, v := range fields {
		row[k] = v
	}
	row["id"] = id
	row["created"] = time.Now().UTC().Format(time.RFC3339)
	return row, nil
}

func (m *MockStore) Update(_ context.Context, table, id string, fields Row) (Row, error) {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, MockUpdateCall{Table: table, ID: id, Fields: fields})
	fn := m.UpdateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(table, id, fields)
	}
	return nil, ErrNotFound
}

func (m *MockStore) RPC(_ context.Context, name string, args Row) (json.RawMessage, error) {
	m.mu.Lock()
	m.RPCCalls = append(m.RPCCalls, name)
	fn := m.RPCFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(name, args)
	}
	return nil, fmt.Errorf("unknown rpc function %q", name)
}

func (m *MockStore) Auth() AuthStore {
	return m
}

func (m *MockStore) SignUp(_ context.Context, email, password string, profile Row) (Row, error) {
	m.mu.Lock()
	fn := m.SignUpFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(email, password, profile)
	}

	row := Row{"email": email}
	for k, v := range profile {
		row[k] = v
	}
	return m.Insert(context.Background(), "users", row)
}

func (m *MockStore) SignIn(_ context.Context, email, password string) (Row, error) {
	m.mu.Lock()
	fn := m.SignInFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(email, password)
	}
	return nil, ErrInvalidCredentials
}

// InsertedInto returns the recorded insert payloads for one table.
func (m *MockStore) InsertedInto(table string) []Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []Row
	for _, call := range m.InsertCalls {
		if call.Table == table {
			rows = append(rows, call.Fields)
		}
	}
	return rows
}

// CountQueries returns how many Query calls hit one table.
func (m *MockStore) CountQueries(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, call := range m.QueryCalls {
		if call.Table == table {
			n++
		}
	}
	return n
}
