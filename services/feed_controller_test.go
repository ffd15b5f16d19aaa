package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventa/models"
	"eventa/store"
)

var feedNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

// liveEventRows builds a raw page where only the first `live` rows have
// dates bracketing feedNow; the rest have already ended.
func liveEventRows(n, live int) []store.Row {
	rows := make([]store.Row, n)
	for i := range rows {
		start, end := feedNow.Add(-2*time.Hour), feedNow.Add(-time.Hour)
		if i < live {
			start, end = feedNow.Add(-time.Hour), feedNow.Add(time.Hour)
		}
		rows[i] = store.Row{
			"id":         fmt.Sprintf("ev%d", i),
			"title":      fmt.Sprintf("Event %d", i),
			"start_date": start,
			"end_date":   end,
		}
	}
	return rows
}

func newTestFeed(mock *store.MockStore, debounce time.Duration) *FeedController {
	events := NewEventService(mock, discardLogger())
	feed := NewFeedController(events, 10, debounce, discardLogger())
	feed.now = func() time.Time { return feedNow }
	return feed
}

func TestFeedDefaultDebounce(t *testing.T) {
	feed := NewFeedController(NewEventService(store.NewMockStore(), discardLogger()), 10, 0, discardLogger())
	assert.Equal(t, DefaultFeedDebounce, feed.debounce)
}

func TestFeedLoadPaginatesByRawPageLength(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryFunc = func(table string, spec store.QuerySpec) ([]store.Row, error) {
		if spec.Offset == 0 {
			return liveEventRows(10, 2), nil
		}
		return liveEventRows(3, 3), nil
	}

	feed := newTestFeed(mock, time.Minute)
	feed.filters = models.EventFilters{Status: models.EventStatusLive}

	require.NoError(t, feed.Load(context.Background(), true))

	snap := feed.Snapshot()
	// 10 raw rows, 2 survive the status filter; pagination only sees the
	// raw page.
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, 10, snap.Offset)
	assert.True(t, snap.HasMore)
	assert.False(t, snap.Loading)

	require.NoError(t, feed.LoadMore(context.Background()))

	snap = feed.Snapshot()
	assert.Len(t, snap.Items, 5)
	assert.Equal(t, 20, snap.Offset)
	assert.False(t, snap.HasMore, "short raw page ends pagination")
}

func TestFeedLoadMoreNoOpWithoutMore(t *testing.T) {
	mock := store.NewMockStore()
	feed := newTestFeed(mock, time.Minute)
	feed.hasMore = false

	require.NoError(t, feed.LoadMore(context.Background()))
	assert.Zero(t, mock.CountQueries("events"))
}

func TestFeedLoadMoreNoOpWhileLoading(t *testing.T) {
	mock := store.NewMockStore()
	feed := newTestFeed(mock, time.Minute)
	feed.loading = true

	require.NoError(t, feed.LoadMore(context.Background()))
	assert.Zero(t, mock.CountQueries("events"))
}

func TestFeedResetReplacesItems(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryFunc = func(table string, spec store.QuerySpec) ([]store.Row, error) {
		return liveEventRows(10, 10), nil
	}

	feed := newTestFeed(mock, time.Minute)

	require.NoError(t, feed.Load(context.Background(), true))
	require.NoError(t, feed.LoadMore(context.Background()))
	assert.Len(t, feed.Snapshot().Items, 20)

	require.NoError(t, feed.Refresh(context.Background()))

	snap := feed.Snapshot()
	assert.Len(t, snap.Items, 10)
	assert.Equal(t, 10, snap.Offset)
	assert.False(t, snap.Refreshing)
}

func TestFeedLoadErrorSurfacesRemoteMessage(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryFunc = func(table string, spec store.QuerySpec) ([]store.Row, error) {
		return nil, &store.RemoteError{Op: "query events", Err: errors.New("connection reset")}
	}

	feed := newTestFeed(mock, time.Minute)

	err := feed.Load(context.Background(), true)
	require.Error(t, err)

	snap := feed.Snapshot()
	assert.Equal(t, "connection reset", snap.Error)
	assert.False(t, snap.Loading)
	// No automatic retry.
	assert.Equal(t, 1, mock.CountQueries("events"))
}

func TestFeedDebounceCollapsesRapidEdits(t *testing.T) {
	mock := store.NewMockStore()
	mock.QueryFunc = func(table string, spec store.QuerySpec) ([]store.Row, error) {
		return nil, nil
	}

	feed := newTestFeed(mock, 30*time.Millisecond)
	defer feed.Stop()

	feed.SetSearchQuery("j")
	feed.SetSearchQuery("ja")
	feed.SetSearchQuery("jazz")

	time.Sleep(120 * time.Millisecond)

	require.Equal(t, 1, mock.CountQueries("events"), "rapid edits collapse to one fetch")
	assert.Equal(t, "jazz", mock.QueryCalls[0].Spec.Params["search"])
}

func TestFeedDebounceLastEditWins(t *testing.T) {
	mock := store.NewMockStore()
	feed := newTestFeed(mock, 30*time.Millisecond)
	defer feed.Stop()

	feed.SetSearchQuery("rock")
	time.Sleep(10 * time.Millisecond)
	feed.SetFilters(models.EventFilters{Type: models.EventTypeTicket})
	time.Sleep(120 * time.Millisecond)

	require.Equal(t, 1, mock.CountQueries("events"))
	spec := mock.QueryCalls[0].Spec
	assert.Equal(t, "rock", spec.Params["search"])
	assert.Equal(t, "ticket", spec.Params["type"])
}

func TestFeedUnchangedSetterDoesNotReload(t *testing.T) {
	mock := store.NewMockStore()
	feed := newTestFeed(mock, 10*time.Millisecond)
	defer feed.Stop()

	feed.SetSearchQuery("")
	feed.SetFilters(models.EventFilters{})

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, mock.CountQueries("events"))
}

func TestFeedStaleResponseDiscarded(t *testing.T) {
	slowStarted := make(chan struct{})
	release := make(chan struct{})

	mock := store.NewMockStore()
	mock.QueryFunc = func(table string, spec store.QuerySpec) ([]store.Row, error) {
		if spec.Params["search"] == "slow" {
			close(slowStarted)
			<-release
			return liveEventRows(10, 10), nil
		}
		return liveEventRows(1, 1), nil
	}

	feed := newTestFeed(mock, time.Minute)
	feed.searchQuery = "slow"

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = feed.Load(context.Background(), true)
	}()

	<-slowStarted
	feed.mu.Lock()
	feed.searchQuery = "fast"
	feed.mu.Unlock()
	require.NoError(t, feed.Load(context.Background(), true))

	close(release)
	wg.Wait()

	// The slow response belongs to an older generation and must not
	// clobber the newer page.
	snap := feed.Snapshot()
	assert.Len(t, snap.Items, 1)
	assert.Equal(t, 10, snap.Offset)
	assert.False(t, snap.HasMore)
}
