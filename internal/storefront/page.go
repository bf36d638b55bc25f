// Package storefront composes the search page: URL state, the paginated search
// controller, the local facet engine and the discount slider, exposed to renderers
// as a single View with action methods.
package storefront

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/debounce"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/facets"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/notify"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/pagesearch"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/urlstate"
)

// View is everything a results renderer needs to draw the search page.
type View struct {
	URL                     string                  `json:"url"`
	Query                   models.SearchQuery      `json:"query"`
	Results                 []models.ProductSummary `json:"results"`
	TotalResults            int                     `json:"total_results"`
	TotalPages              int                     `json:"total_pages"`
	IsLoading               bool                    `json:"is_loading"`
	Stale                   bool                    `json:"stale"`
	Status                  string                  `json:"status"`
	Error                   string                  `json:"error,omitempty"`
	Suggestions             []models.Suggestion     `json:"suggestions"`
	DidYouMean              string                  `json:"did_you_mean,omitempty"`
	FilterGroups            models.FacetGroups      `json:"filter_groups"`
	DiscountPriceRange      models.PriceRange       `json:"discount_price_range"`
	DiscountPriceBounds     models.PriceRange       `json:"discount_price_bounds"`
	IsDiscountFilterEnabled bool                    `json:"is_discount_filter_enabled"`
}

// Page is one storefront search page bound to a URL store.
type Page struct {
	store  *urlstate.Store
	codec  *urlstate.Codec
	search *pagesearch.Controller
	engine *facets.Engine
	slider *debounce.Debouncer[models.PriceRange]
	hub    *notify.Hub[View]
	logger *zap.Logger

	sliderDelay time.Duration

	mu   sync.Mutex
	base *models.SearchResultPage
	// rebased is false until the engine has seen the controller's first snapshot.
	rebased bool
}

// Option configures a Page.
type Option func(*Page)

// WithLogger sets the page logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Page) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSliderDelay sets how long the discount slider must rest before the URL is updated.
func WithSliderDelay(d time.Duration) Option {
	return func(p *Page) {
		p.sliderDelay = d
	}
}

// New creates a page over store that fetches results with fetcher.
func New(store *urlstate.Store, fetcher pagesearch.Fetcher, opts ...Option) *Page {
	p := &Page{
		store:       store,
		codec:       urlstate.NewCodec(store),
		engine:      facets.NewEngine(),
		hub:         notify.NewHub[View](0),
		logger:      zap.NewNop(),
		sliderDelay: debounce.DefaultDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.search = pagesearch.New(fetcher, pagesearch.WithLogger(p.logger))
	p.slider = debounce.New(p.sliderDelay, p.codec.SetDiscountRange)
	return p
}

// Start runs the reconciliation loop until ctx is done: URL changes are applied to
// the search controller and every state change is published as a fresh View.
func (p *Page) Start(ctx context.Context) {
	urlID, urlCh := p.store.Subscribe()
	defer p.store.Unsubscribe(urlID)
	searchID, searchCh := p.search.Subscribe()
	defer p.search.Unsubscribe(searchID)

	p.sync()
	p.hub.Publish(p.View())

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-urlCh:
			if !ok {
				return
			}
			p.sync()
		case _, ok := <-searchCh:
			if !ok {
				return
			}
		}
		// Re-read current state instead of trusting the event payload.
		p.hub.Publish(p.View())
	}
}

// sync pushes the URL-derived query into the controller and the slider.
func (p *Page) sync() {
	q := p.codec.Decode()
	p.search.Apply(q)
	// A slider move still waiting for the URL wins over the URL's older range.
	if q.DiscountEnabled() && q.Discount.HasRange && !p.slider.Pending() {
		p.engine.SetRange(models.PriceRange{Min: q.Discount.Min, Max: q.Discount.Max})
	}
}

// rebase replaces the engine's base set when the controller committed a new page.
func (p *Page) rebase(snap pagesearch.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rebased && snap.Page == p.base {
		return
	}
	p.rebased = true
	p.base = snap.Page
	var items []models.ProductSummary
	if snap.Page != nil {
		items = snap.Page.Items
	}
	pending := p.slider.Pending()
	rng := p.engine.Range()
	p.engine.SetBase(items, snap.Query.Discount)
	if pending {
		p.engine.SetRange(rng)
	}
	p.logger.Debug("Facet base replaced", zap.Int("items", len(items)))
}

// View returns the current page state.
func (p *Page) View() View {
	snap := p.search.Snapshot()
	p.rebase(snap)

	q := urlstate.Decode(p.store.Values())
	rng := p.engine.Range()
	v := View{
		URL:                     p.store.String(),
		Query:                   q,
		Results:                 []models.ProductSummary{},
		Suggestions:             []models.Suggestion{},
		IsLoading:               snap.IsLoading,
		Stale:                   snap.Stale,
		Status:                  snap.Status.String(),
		FilterGroups:            p.engine.Groups(),
		DiscountPriceRange:      rng,
		DiscountPriceBounds:     p.engine.Bounds(),
		IsDiscountFilterEnabled: q.DiscountEnabled(),
	}
	if snap.Err != nil {
		v.Error = snap.Err.Error()
	}
	if snap.Page != nil {
		fv := p.engine.View(facets.SelectionFromQuery(q, rng), snap.Page.PageSize, snap.Page.TotalCount)
		v.Results = fv.Items
		v.TotalResults = fv.TotalResults
		v.TotalPages = fv.TotalPages
		if snap.Page.Suggestions != nil {
			v.Suggestions = snap.Page.Suggestions
		}
		v.DidYouMean = snap.Page.DidYouMean
	}
	return v
}

// Settle applies the current URL and waits for the resulting fetch to finish.
func (p *Page) Settle(ctx context.Context) (View, error) {
	p.sync()
	if err := p.search.Wait(ctx); err != nil {
		return View{}, err
	}
	return p.View(), nil
}

// Subscribe registers for View updates published by Start.
func (p *Page) Subscribe() (uint64, <-chan View) {
	return p.hub.Subscribe()
}

// Unsubscribe removes a subscription.
func (p *Page) Unsubscribe(id uint64) {
	p.hub.Unsubscribe(id)
}

// Store returns the URL store backing the page.
func (p *Page) Store() *urlstate.Store {
	return p.store
}

// UpdateFilters merges updates into the URL. The page resets to 1 unless updates
// sets it.
func (p *Page) UpdateFilters(updates urlstate.Updates) {
	p.codec.Encode(updates, urlstate.Push)
}

// ToggleFilterOption adds or removes value in the multi-value parameter key.
func (p *Page) ToggleFilterOption(key, value string) error {
	return p.codec.Toggle(key, value)
}

// HandleSuggestionClick searches for the clicked suggestion.
func (p *Page) HandleSuggestionClick(text string) {
	p.codec.Encode(urlstate.Updates{urlstate.KeyTerm: urlstate.Str(text)}, urlstate.Push)
}

// HandleClearFilters resets the URL to the search term alone.
func (p *Page) HandleClearFilters(term string) {
	p.slider.Flush()
	p.codec.ClearFilters(term)
}

// HandleDiscountFilterToggle enables or disables the discount range filter,
// seeding the URL with the current slider range.
func (p *Page) HandleDiscountFilterToggle(enabled bool) {
	p.codec.SetDiscount(enabled, p.engine.Range())
}

// HandlePriceRangeChange moves the slider. The range applies locally at once and
// reaches the URL after the slider rests.
func (p *Page) HandlePriceRangeChange(r models.PriceRange) {
	p.engine.SetRange(r)
	p.slider.Set(p.engine.Range())
	p.hub.Publish(p.View())
}

// GoToPage navigates to the 1-based page n.
func (p *Page) GoToPage(n int) {
	if n < 1 {
		n = 1
	}
	p.codec.Encode(urlstate.Updates{urlstate.KeyPage: urlstate.Str(strconv.Itoa(n))}, urlstate.Push)
}

// SetSort changes the result ordering.
func (p *Page) SetSort(s models.SortBy) {
	p.codec.Encode(urlstate.Updates{urlstate.KeySortBy: urlstate.Str(string(s))}, urlstate.Push)
}

// Retry refetches after a failed search.
func (p *Page) Retry() {
	p.search.Retry()
}

// Back navigates one history entry back.
func (p *Page) Back() bool {
	return p.store.Back()
}

// Forward navigates one history entry forward.
func (p *Page) Forward() bool {
	return p.store.Forward()
}

// Close stops the slider and the search controller.
func (p *Page) Close() {
	p.slider.Stop()
	p.search.Close()
	p.hub.Close()
}
