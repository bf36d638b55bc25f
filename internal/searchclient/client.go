package searchclient

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// Options tunes the client. Zero fields are replaced by DefaultOptions values.
type Options struct {
	AutocompleteLimit       int
	MinTermLength           int
	AutocompleteSimilarity  float64
	SuggestionLimit         int
	SuggestionMinSimilarity float64
	// DidYouMeanThreshold is the similarity a top suggestion must exceed to be
	// offered as a correction.
	DidYouMeanThreshold float64
	// LowResultThreshold: suggestions are fetched only for pages with fewer items.
	LowResultThreshold int
	MinRelevance       float64
	IncludeInactive    bool
	Timeout            time.Duration
}

// DefaultOptions returns the storefront defaults.
func DefaultOptions() Options {
	return Options{
		AutocompleteLimit:       5,
		MinTermLength:           2,
		AutocompleteSimilarity:  0.3,
		SuggestionLimit:         3,
		SuggestionMinSimilarity: 0.3,
		DidYouMeanThreshold:     0.6,
		LowResultThreshold:      5,
		MinRelevance:            0.1,
		Timeout:                 10 * time.Second,
	}
}

func (o *Options) applyDefaults() {
	d := DefaultOptions()
	if o.AutocompleteLimit <= 0 {
		o.AutocompleteLimit = d.AutocompleteLimit
	}
	if o.MinTermLength <= 0 {
		o.MinTermLength = d.MinTermLength
	}
	if o.AutocompleteSimilarity <= 0 {
		o.AutocompleteSimilarity = d.AutocompleteSimilarity
	}
	if o.SuggestionLimit <= 0 {
		o.SuggestionLimit = d.SuggestionLimit
	}
	if o.SuggestionMinSimilarity <= 0 {
		o.SuggestionMinSimilarity = d.SuggestionMinSimilarity
	}
	if o.DidYouMeanThreshold <= 0 {
		o.DidYouMeanThreshold = d.DidYouMeanThreshold
	}
	if o.LowResultThreshold <= 0 {
		o.LowResultThreshold = d.LowResultThreshold
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
}

// Client issues the storefront search operations against a Service. It holds no
// per-request state and is safe for concurrent use.
type Client struct {
	svc    Service
	opts   Options
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOptions overrides the tuning options.
func WithOptions(o Options) Option {
	return func(c *Client) {
		c.opts = o
	}
}

// New creates a client over svc.
func New(svc Service, opts ...Option) *Client {
	c := &Client{
		svc:    svc,
		opts:   DefaultOptions(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.opts.applyDefaults()
	return c
}

// Options returns the effective options.
func (c *Client) Options() Options {
	return c.opts
}

// FetchAutocomplete returns dropdown results and suggestions for term. It never
// fails: terms shorter than MinTermLength and remote errors both yield the empty shape.
func (c *Client) FetchAutocomplete(ctx context.Context, term string) models.AutocompleteResult {
	term = strings.TrimSpace(term)
	empty := models.AutocompleteResult{
		Results:     []models.ProductSummary{},
		Suggestions: []models.Suggestion{},
	}
	if utf8.RuneCountInString(term) < c.opts.MinTermLength {
		return empty
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var (
		results     []models.ProductSummary
		suggestions []models.Suggestion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		results, err = c.svc.AutocompleteSearch(gctx, AutocompleteRequest{
			Query:               term,
			MaxResults:          c.opts.AutocompleteLimit,
			SimilarityThreshold: c.opts.AutocompleteSimilarity,
		})
		return err
	})
	g.Go(func() error {
		var err error
		suggestions, err = c.svc.SearchSuggestions(gctx, SuggestionsRequest{
			Term:           term,
			MaxSuggestions: c.opts.SuggestionLimit,
			MinSimilarity:  c.opts.SuggestionMinSimilarity,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.Warn("Autocomplete failed", zap.String("term", term), zap.Error(err))
		return empty
	}

	suggestions = NormalizeSuggestions(suggestions)
	return models.AutocompleteResult{
		Results:     NormalizeProducts(results),
		Suggestions: suggestions,
		DidYouMean:  DidYouMean(suggestions, c.opts.DidYouMeanThreshold),
	}
}

// FetchSearchPage fetches one ranked page and its total count. Both requests use the
// same filters and run concurrently. Errors are returned as *SearchError.
func (c *Client) FetchSearchPage(ctx context.Context, q models.SearchQuery) (*models.SearchResultPage, error) {
	q.Normalize()

	filters := q.Filters()
	filters.IncludeInactive = c.opts.IncludeInactive
	params := models.SearchParams{
		SearchFilters: filters,
		SortBy:        q.SortBy,
		PageNumber:    q.Page,
		PageSize:      q.PageSize,
		MinRelevance:  c.opts.MinRelevance,
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var (
		items []models.ProductSummary
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = c.svc.UnifiedProductSearch(gctx, params)
		if err != nil {
			return &SearchError{Op: FnUnifiedProductSearch, Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = c.svc.ProductSearchCount(gctx, filters)
		if err != nil {
			return &SearchError{Op: FnProductSearchCount, Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		c.logger.Error("Search failed", zap.String("term", q.Term), zap.Int("page", q.Page), zap.Error(err))
		return nil, err
	}

	items = NormalizeProducts(items)
	if total < 0 {
		total = 0
	}

	page := &models.SearchResultPage{
		Items:       items,
		TotalCount:  total,
		Page:        q.Page,
		PageSize:    q.PageSize,
		TotalPages:  TotalPages(total, q.PageSize),
		Suggestions: []models.Suggestion{},
	}

	if len(items) < c.opts.LowResultThreshold && q.Term != "" {
		suggestions, err := c.svc.SearchSuggestions(ctx, SuggestionsRequest{
			Term:           q.Term,
			MaxSuggestions: c.opts.SuggestionLimit,
			MinSimilarity:  c.opts.SuggestionMinSimilarity,
		})
		if err != nil {
			// Results are still valid without corrections.
			c.logger.Warn("Suggestion lookup failed", zap.String("term", q.Term), zap.Error(err))
		} else {
			page.Suggestions = NormalizeSuggestions(suggestions)
			page.DidYouMean = DidYouMean(page.Suggestions, c.opts.DidYouMeanThreshold)
		}
	}

	c.logger.Debug("Search page fetched",
		zap.String("term", q.Term),
		zap.Int("page", q.Page),
		zap.Int("items", len(items)),
		zap.Int("total", total),
	)
	return page, nil
}

// DidYouMean returns the first suggestion when its similarity exceeds threshold.
func DidYouMean(suggestions []models.Suggestion, threshold float64) string {
	if len(suggestions) == 0 {
		return ""
	}
	if suggestions[0].SimilarityScore > threshold {
		return suggestions[0].Text
	}
	return ""
}

// TotalPages returns ceil(total/pageSize), or 0 when there is nothing to page.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// NormalizeProducts returns a non-nil slice with pricing invariants enforced.
func NormalizeProducts(items []models.ProductSummary) []models.ProductSummary {
	out := make([]models.ProductSummary, 0, len(items))
	for _, p := range items {
		p.NormalizePricing()
		out = append(out, p)
	}
	return out
}

// NormalizeSuggestions drops blank suggestions and clamps similarity into [0, 1].
func NormalizeSuggestions(suggestions []models.Suggestion) []models.Suggestion {
	out := make([]models.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		if math.IsNaN(s.SimilarityScore) {
			s.SimilarityScore = 0
		}
		s.SimilarityScore = math.Max(0, math.Min(1, s.SimilarityScore))
		if s.EstimatedResults < 0 {
			s.EstimatedResults = 0
		}
		out = append(out, s)
	}
	return out
}
