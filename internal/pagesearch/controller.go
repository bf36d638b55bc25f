// Package pagesearch keeps one results page in sync with the URL-derived search
// query, with stale-while-revalidate display and rejection of superseded responses.
package pagesearch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/notify"
)

// Status is the controller's fetch status.
type Status int

const (
	// StatusEmpty: the query has neither a term nor a facet filter, nothing is fetched.
	StatusEmpty Status = iota
	StatusFetching
	StatusDisplaying
	// StatusError: the last fetch failed. A previously displayed page stays available.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusFetching:
		return "fetching"
	case StatusDisplaying:
		return "displaying"
	case StatusError:
		return "error"
	default:
		return "empty"
	}
}

// Fetcher loads a page of results.
type Fetcher interface {
	FetchSearchPage(ctx context.Context, q models.SearchQuery) (*models.SearchResultPage, error)
}

// Snapshot is the observable controller state. Page holds the last successful
// result; it is never mutated after being committed.
type Snapshot struct {
	Query     models.SearchQuery
	Page      *models.SearchResultPage
	Status    Status
	Stale     bool
	IsLoading bool
	Err       error
}

// Controller fetches result pages as the query changes.
type Controller struct {
	mu      sync.Mutex
	fetcher Fetcher
	logger  *zap.Logger
	hub     *notify.Hub[Snapshot]
	ctx     context.Context
	cancel  context.CancelFunc

	gen     uint64
	key     string
	applied bool
	query   models.SearchQuery
	page    *models.SearchResultPage
	status  Status
	err     error
	closed  bool
	settled chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a controller with no query applied.
func New(fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher: fetcher,
		logger:  zap.NewNop(),
		hub:     notify.NewHub[Snapshot](0),
		settled: closedChan(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Apply sets the current query. A fetch is issued only when the server-side part
// of the query changed; the client-only discount filter never triggers one.
func (c *Controller) Apply(q models.SearchQuery) {
	q.Normalize()
	key := q.ServerKey()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.query = q
	if c.applied && key == c.key {
		c.mu.Unlock()
		return
	}
	c.applied = true
	c.key = key
	c.startLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.hub.Publish(snap)
}

// Retry refetches the current query, typically after an error.
func (c *Controller) Retry() {
	c.mu.Lock()
	if c.closed || !c.applied {
		c.mu.Unlock()
		return
	}
	c.startLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.hub.Publish(snap)
}

func (c *Controller) startLocked() {
	c.gen++
	if !c.query.Searchable() {
		c.page = nil
		c.err = nil
		c.status = StatusEmpty
		c.markSettledLocked()
		return
	}
	c.status = StatusFetching
	c.err = nil
	if isClosed(c.settled) {
		c.settled = make(chan struct{})
	}
	go c.fetch(c.ctx, c.gen, c.query)
}

func (c *Controller) fetch(ctx context.Context, gen uint64, q models.SearchQuery) {
	page, err := c.fetcher.FetchSearchPage(ctx, q)

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("Discarding superseded search response",
			zap.String("term", q.Term), zap.Int("page", q.Page))
		return
	}
	if err != nil {
		c.status = StatusError
		c.err = err
		c.logger.Warn("Search page fetch failed", zap.String("term", q.Term), zap.Error(err))
	} else {
		// Items and totals come from the same response and are committed together.
		c.page = page
		c.status = StatusDisplaying
		c.err = nil
	}
	c.markSettledLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.hub.Publish(snap)
}

func (c *Controller) markSettledLocked() {
	if !isClosed(c.settled) {
		close(c.settled)
	}
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Query:     c.query,
		Page:      c.page,
		Status:    c.status,
		Stale:     c.status == StatusFetching && c.page != nil,
		IsLoading: c.status == StatusFetching,
		Err:       c.err,
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until no fetch is in flight or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	ch := c.settled
	c.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers for state updates.
func (c *Controller) Subscribe() (uint64, <-chan Snapshot) {
	return c.hub.Subscribe()
}

// Unsubscribe removes a subscription.
func (c *Controller) Unsubscribe(id uint64) {
	c.hub.Unsubscribe(id)
}

// Close stops the controller; in-flight responses are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.markSettledLocked()
	c.mu.Unlock()

	c.cancel()
	c.hub.Close()
}
