package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventa/models"
	"eventa/store"
)

func TestBuildEventsQuery(t *testing.T) {
	tests := []struct {
		name       string
		filters    models.EventFilters
		search     string
		wantFilter string
		wantParams map[string]any
	}{
		{
			name:       "no filters",
			wantFilter: "is_published = true",
			wantParams: map[string]any{},
		},
		{
			name:       "search is trimmed",
			search:     "  jazz night  ",
			wantFilter: "is_published = true && title ~ {:search}",
			wantParams: map[string]any{"search": "jazz night"},
		},
		{
			name:       "blank search is dropped",
			search:     "   ",
			wantFilter: "is_published = true",
			wantParams: map[string]any{},
		},
		{
			name:       "type and category",
			filters:    models.EventFilters{Type: models.EventTypeVote, Category: "music"},
			wantFilter: "is_published = true && type = {:type} && category = {:category}",
			wantParams: map[string]any{"type": "vote", "category": "music"},
		},
		{
			name:       "status never becomes a clause",
			filters:    models.EventFilters{Status: models.EventStatusLive},
			wantFilter: "is_published = true",
			wantParams: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := BuildEventsQuery(tt.filters, tt.search, 10, 20)

			assert.Equal(t, tt.wantFilter, spec.Filter)
			assert.Equal(t, len(tt.wantParams), len(spec.Params))
			for k, v := range tt.wantParams {
				assert.Equal(t, v, spec.Params[k])
			}
			assert.Equal(t, "start_date", spec.Sort)
			assert.Equal(t, 10, spec.Limit)
			assert.Equal(t, 20, spec.Offset)
		})
	}
}

func TestApplyStatusFilter(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	upcoming := models.Event{ID: "up", StartDate: now.Add(time.Hour), EndDate: now.Add(2 * time.Hour)}
	live := models.Event{ID: "live", StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)}
	ended := models.Event{ID: "done", StartDate: now.Add(-2 * time.Hour), EndDate: now.Add(-time.Hour)}
	all := []models.Event{upcoming, live, ended}

	assert.Equal(t, all, ApplyStatusFilter(all, "", now))

	liveOnly := ApplyStatusFilter(all, models.EventStatusLive, now)
	require.Len(t, liveOnly, 1)
	assert.Equal(t, "live", liveOnly[0].ID)

	endedOnly := ApplyStatusFilter(all, models.EventStatusEnded, now)
	require.Len(t, endedOnly, 1)
	assert.Equal(t, "done", endedOnly[0].ID)
}

func TestGetEventWithRelations(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryOneFunc = func(table, id string) (store.Row, error) {
		require.Equal(t, "events", table)
		return store.Row{"id": id, "title": "Battle of the Bands", "type": "vote"}, nil
	}
	mock.QueryFunc = func(table string, spec store.QuerySpec) ([]store.Row, error) {
		switch table {
		case "contestants":
			assert.Equal(t, "created", spec.Sort)
			return []store.Row{{"id": "c1", "name": "The Sparks"}}, nil
		case "tickets":
			assert.Equal(t, "price", spec.Sort)
			return []store.Row{{"id": "tk1", "price": 15.0}}, nil
		}
		return nil, nil
	}

	svc := NewEventService(mock, discardLogger())

	event, err := svc.GetEvent(context.Background(), "ev1")
	require.NoError(t, err)

	assert.Equal(t, "Battle of the Bands", event.Title)
	require.Len(t, event.Contestants, 1)
	assert.Equal(t, "The Sparks", event.Contestants[0].Name)
	require.Len(t, event.Tickets, 1)
	assert.Equal(t, 15.0, event.Tickets[0].Price)
}

func TestGetEventNotFound(t *testing.T) {
	svc := NewEventService(store.NewMockStore(), discardLogger())

	_, err := svc.GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
