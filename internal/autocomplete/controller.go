// Package autocomplete drives the search dropdown: it debounces keystrokes, gates
// short terms, and commits only the response of the most recently issued fetch.
package autocomplete

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/debounce"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/notify"
)

// State is the controller's position in the dropdown lifecycle.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateFetching
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateDebouncing:
		return "debouncing"
	case StateFetching:
		return "fetching"
	case StateSettled:
		return "settled"
	default:
		return "idle"
	}
}

// Fetcher performs the autocomplete lookup. It must not fail; errors are expected
// to be absorbed into an empty result.
type Fetcher interface {
	FetchAutocomplete(ctx context.Context, term string) models.AutocompleteResult
}

// Snapshot is the observable dropdown state.
type Snapshot struct {
	Term        string                  `json:"term"`
	Results     []models.ProductSummary `json:"results"`
	Suggestions []models.Suggestion     `json:"suggestions"`
	DidYouMean  string                  `json:"did_you_mean,omitempty"`
	IsLoading   bool                    `json:"is_loading"`
	State       State                   `json:"-"`
}

// Controller owns the state of one search input.
type Controller struct {
	mu      sync.Mutex
	fetcher Fetcher
	logger  *zap.Logger
	minLen  int
	delay   time.Duration

	debouncer *debounce.Debouncer[string]
	hub       *notify.Hub[Snapshot]
	ctx       context.Context
	cancel    context.CancelFunc

	gen    uint64
	snap   Snapshot
	closed bool
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

// WithDelay sets the keystroke debounce delay.
func WithDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.delay = d
	}
}

// WithMinTermLength sets the shortest term that triggers a fetch.
func WithMinTermLength(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.minLen = n
		}
	}
}

// New creates a controller in the Idle state.
func New(fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher: fetcher,
		logger:  zap.NewNop(),
		minLen:  2,
		delay:   debounce.DefaultDelay,
		hub:     notify.NewHub[Snapshot](0),
		snap:    emptySnapshot(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.debouncer = debounce.New(c.delay, c.onDebounced)
	return c
}

func emptySnapshot(term string) Snapshot {
	return Snapshot{
		Term:        term,
		Results:     []models.ProductSummary{},
		Suggestions: []models.Suggestion{},
		State:       StateIdle,
	}
}

// SetTerm records a keystroke. Any in-flight fetch is invalidated.
func (c *Controller) SetTerm(term string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.gen++
	c.snap.Term = term
	c.snap.State = StateDebouncing
	c.snap.IsLoading = false
	snap := c.snap
	c.mu.Unlock()

	c.hub.Publish(snap)
	c.debouncer.Set(term)
}

func (c *Controller) onDebounced(term string) {
	c.mu.Lock()
	if c.closed || term != c.snap.Term {
		c.mu.Unlock()
		return
	}
	gen := c.gen

	if utf8.RuneCountInString(strings.TrimSpace(term)) < c.minLen {
		c.snap = emptySnapshot(term)
		c.snap.State = StateSettled
		snap := c.snap
		c.mu.Unlock()
		c.hub.Publish(snap)
		return
	}

	c.snap.State = StateFetching
	c.snap.IsLoading = true
	snap := c.snap
	ctx := c.ctx
	c.mu.Unlock()
	c.hub.Publish(snap)

	go c.fetch(ctx, gen, term)
}

func (c *Controller) fetch(ctx context.Context, gen uint64, term string) {
	res := c.fetcher.FetchAutocomplete(ctx, term)

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("Discarding superseded autocomplete response", zap.String("term", term))
		return
	}
	c.snap = Snapshot{
		Term:        term,
		Results:     nonNilProducts(res.Results),
		Suggestions: nonNilSuggestions(res.Suggestions),
		DidYouMean:  res.DidYouMean,
		State:       StateSettled,
	}
	snap := c.snap
	c.mu.Unlock()
	c.hub.Publish(snap)
}

// Snapshot returns the current dropdown state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe registers for snapshot updates.
func (c *Controller) Subscribe() (uint64, <-chan Snapshot) {
	return c.hub.Subscribe()
}

// Unsubscribe removes a subscription.
func (c *Controller) Unsubscribe(id uint64) {
	c.hub.Unsubscribe(id)
}

// Close tears the controller down. Responses arriving afterwards are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.debouncer.Stop()
	c.cancel()
	c.hub.Close()
}

func nonNilProducts(p []models.ProductSummary) []models.ProductSummary {
	if p == nil {
		return []models.ProductSummary{}
	}
	return p
}

func nonNilSuggestions(s []models.Suggestion) []models.Suggestion {
	if s == nil {
		return []models.Suggestion{}
	}
	return s
}
