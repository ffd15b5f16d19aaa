package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"eventa/models"
	"eventa/monitoring"
	"eventa/store"
)

// FeedController owns the visible event list of one feed screen: the
// accumulated pages, the offset cursor, and the loading/refreshing/error
// flags, under a changing combination of free-text search and
// structured filters.
//
// Filter and search setters arm a debounce timer; rapid successive edits
// collapse into a single reset load per quiet period. Every load is
// stamped with a request generation, and a response is applied only if
// its generation is still the latest, so a slow response for old filters
// can never clobber the state of a newer one.
type FeedController struct {
	events *EventService
	log    *slog.Logger

	mu         sync.Mutex
	ctx        context.Context
	timer      *time.Timer
	generation uint64
	pageSize   int
	debounce   time.Duration
	now        func() time.Time

	items       []models.Event
	offset      int
	hasMore     bool
	loading     bool
	refreshing  bool
	errMsg      string
	searchQuery string
	filters     models.EventFilters
}

// FeedSnapshot is a point-in-time copy of the controller state for
// rendering.
type FeedSnapshot struct {
	Items       []models.Event      `json:"items"`
	Offset      int                 `json:"offset"`
	HasMore     bool                `json:"has_more"`
	Loading     bool                `json:"loading"`
	Refreshing  bool                `json:"refreshing"`
	Error       string              `json:"error,omitempty"`
	SearchQuery string              `json:"search_query,omitempty"`
	Filters     models.EventFilters `json:"filters"`
}

// DefaultFeedDebounce is the quiet period between a search or filter
// edit and the reset load it triggers.
const DefaultFeedDebounce = 300 * time.Millisecond

func NewFeedController(events *EventService, pageSize int, debounce time.Duration, log *slog.Logger) *FeedController {
	if debounce <= 0 {
		debounce = DefaultFeedDebounce
	}
	return &FeedController{
		events:   events,
		log:      log,
		ctx:      context.Background(),
		pageSize: pageSize,
		debounce: debounce,
		now:      time.Now,
		hasMore:  true,
	}
}

// Start performs the initial reset load. The context also backs the
// debounced reloads triggered by later setter calls.
func (c *FeedController) Start(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	return c.Load(ctx, true)
}

// Stop cancels any pending debounced reload.
func (c *FeedController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
}

// Load fetches one page. With reset it starts over from offset 0 and
// clears the error; otherwise it appends to the accumulated items.
func (c *FeedController) Load(ctx context.Context, reset bool) error {
	c.mu.Lock()
	if reset {
		c.offset = 0
		c.errMsg = ""
	}
	c.loading = true
	c.generation++
	gen := c.generation
	offset := c.offset
	search := c.searchQuery
	filters := c.filters
	c.mu.Unlock()

	raw, err := c.events.FetchPage(ctx, filters, search, c.pageSize, offset)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		// A newer request owns the state now; discard this response.
		return nil
	}

	c.loading = false
	c.refreshing = false

	if err != nil {
		monitoring.TrackFeedFetch("error")
		c.errMsg = loadErrorMessage(err)
		c.log.Error("failed to load events", "error", err, "offset", offset)
		return err
	}
	monitoring.TrackFeedFetch("ok")

	visible := ApplyStatusFilter(raw, filters.Status, c.now())
	if reset {
		c.items = visible
	} else {
		c.items = append(c.items, visible...)
	}

	// The cursor advances by the full page size and hasMore reflects the
	// raw page length. The local status filter may shrink what lands in
	// items, but it never affects pagination.
	c.offset = offset + c.pageSize
	c.hasMore = len(raw) == c.pageSize

	return nil
}

// LoadMore fetches the next page. It is a no-op while a load is in
// flight or when the last raw page was short.
func (c *FeedController) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.Load(ctx, false)
}

// Refresh re-runs a reset load with the refreshing flag raised.
func (c *FeedController) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.refreshing = true
	c.mu.Unlock()

	return c.Load(ctx, true)
}

// SetSearchQuery updates the free-text query and arms the debounced
// reset load. It does not fetch by itself.
func (c *FeedController) SetSearchQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.searchQuery == query {
		return
	}
	c.searchQuery = query
	c.scheduleReloadLocked()
}

// SetFilters updates the structured filters and arms the debounced
// reset load. It does not fetch by itself.
func (c *FeedController) SetFilters(filters models.EventFilters) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.filters == filters {
		return
	}
	c.filters = filters
	c.scheduleReloadLocked()
}

// scheduleReloadLocked restarts the debounce timer; the last edit wins.
// Caller must hold the lock.
func (c *FeedController) scheduleReloadLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}

	ctx := c.ctx
	c.timer = time.AfterFunc(c.debounce, func() {
		if err := c.Load(ctx, true); err != nil {
			c.log.Error("debounced reload failed", "error", err)
		}
	})
}

// Snapshot returns a copy of the current state.
func (c *FeedController) Snapshot() FeedSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]models.Event, len(c.items))
	copy(items, c.items)

	return FeedSnapshot{
		Items:       items,
		Offset:      c.offset,
		HasMore:     c.hasMore,
		Loading:     c.loading,
		Refreshing:  c.refreshing,
		Error:       c.errMsg,
		SearchQuery: c.searchQuery,
		Filters:     c.filters,
	}
}

// loadErrorMessage surfaces the provider's message, with a generic
// fallback.
func loadErrorMessage(err error) string {
	var remote *store.RemoteError
	if errors.As(err, &remote) && remote.Err != nil {
		return remote.Err.Error()
	}
	if err != nil {
		return err.Error()
	}
	return "failed to load events"
}
