package searchclient

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// mockService is a hand-written Service whose behaviour is set per test.
type mockService struct {
	mu sync.Mutex

	autocompleteCalls int32
	suggestionCalls   int32

	results     []models.ProductSummary
	suggestions []models.Suggestion
	items       []models.ProductSummary
	total       int

	autocompleteErr error
	suggestionErr   error
	searchErr       error
	countErr        error

	gotParams  models.SearchParams
	gotFilters models.SearchFilters
}

func (m *mockService) AutocompleteSearch(ctx context.Context, req AutocompleteRequest) ([]models.ProductSummary, error) {
	atomic.AddInt32(&m.autocompleteCalls, 1)
	return m.results, m.autocompleteErr
}

func (m *mockService) SearchSuggestions(ctx context.Context, req SuggestionsRequest) ([]models.Suggestion, error) {
	atomic.AddInt32(&m.suggestionCalls, 1)
	return m.suggestions, m.suggestionErr
}

func (m *mockService) UnifiedProductSearch(ctx context.Context, params models.SearchParams) ([]models.ProductSummary, error) {
	m.mu.Lock()
	m.gotParams = params
	m.mu.Unlock()
	return m.items, m.searchErr
}

func (m *mockService) ProductSearchCount(ctx context.Context, filters models.SearchFilters) (int, error) {
	m.mu.Lock()
	m.gotFilters = filters
	m.mu.Unlock()
	return m.total, m.countErr
}

func products(n int) []models.ProductSummary {
	out := make([]models.ProductSummary, n)
	for i := range out {
		out[i] = models.ProductSummary{ProductID: string(rune('a' + i)), Price: 100, DiscountPrice: 90}
	}
	return out
}

func TestFetchAutocomplete_MinLengthGate(t *testing.T) {
	svc := &mockService{results: products(2)}
	c := New(svc)

	for _, term := range []string{"", "p", " p "} {
		res := c.FetchAutocomplete(context.Background(), term)
		if len(res.Results) != 0 || len(res.Suggestions) != 0 || res.DidYouMean != "" {
			t.Errorf("term %q: got %+v, want empty", term, res)
		}
		if res.Results == nil || res.Suggestions == nil {
			t.Errorf("term %q: empty shape must use empty slices", term)
		}
	}
	if n := atomic.LoadInt32(&svc.autocompleteCalls); n != 0 {
		t.Errorf("remote called %d times for short terms", n)
	}

	res := c.FetchAutocomplete(context.Background(), "ps")
	if len(res.Results) != 2 {
		t.Errorf("results = %d, want 2", len(res.Results))
	}
}

func TestFetchAutocomplete_ErrorYieldsEmpty(t *testing.T) {
	svc := &mockService{
		results:       products(3),
		suggestionErr: errors.New("boom"),
	}
	res := New(svc).FetchAutocomplete(context.Background(), "ps5")
	if len(res.Results) != 0 || len(res.Suggestions) != 0 || res.DidYouMean != "" {
		t.Errorf("got %+v, want the empty shape on error", res)
	}
}

func TestDidYouMean(t *testing.T) {
	tests := []struct {
		name        string
		suggestions []models.Suggestion
		want        string
	}{
		{"none", nil, ""},
		{"above threshold", []models.Suggestion{{Text: "playstation", SimilarityScore: 0.65}}, "playstation"},
		{"below threshold", []models.Suggestion{{Text: "playstation", SimilarityScore: 0.55}}, ""},
		{"at threshold", []models.Suggestion{{Text: "playstation", SimilarityScore: 0.6}}, ""},
		{"only first counts", []models.Suggestion{{Text: "a", SimilarityScore: 0.2}, {Text: "b", SimilarityScore: 0.9}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DidYouMean(tt.suggestions, 0.6); got != tt.want {
				t.Errorf("DidYouMean = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchAutocomplete_DidYouMean(t *testing.T) {
	svc := &mockService{suggestions: []models.Suggestion{{Text: "playstation", SimilarityScore: 0.65}}}
	res := New(svc).FetchAutocomplete(context.Background(), "playstatoin")
	if res.DidYouMean != "playstation" {
		t.Errorf("didYouMean = %q, want playstation", res.DidYouMean)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{45, 20, 3},
		{40, 20, 2},
		{0, 20, 0},
		{1, 20, 1},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.size); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestFetchSearchPage(t *testing.T) {
	svc := &mockService{items: products(20), total: 45}
	c := New(svc)

	q := models.SearchQuery{Term: "ps5", Categories: []string{"Consoles"}, SortBy: models.SortPriceAsc, Page: 2, PageSize: 20}
	page, err := c.FetchSearchPage(context.Background(), q)
	if err != nil {
		t.Fatalf("FetchSearchPage: %v", err)
	}
	if page.TotalCount != 45 || page.TotalPages != 3 || page.Page != 2 || len(page.Items) != 20 {
		t.Errorf("page = %+v", page)
	}
	if n := atomic.LoadInt32(&svc.suggestionCalls); n != 0 {
		t.Errorf("suggestions fetched %d times for a confident result set", n)
	}
	if !reflect.DeepEqual(svc.gotParams.SearchFilters, svc.gotFilters) {
		t.Errorf("search filters %+v differ from count filters %+v", svc.gotParams.SearchFilters, svc.gotFilters)
	}
	if svc.gotParams.PageNumber != 2 || svc.gotParams.SortBy != models.SortPriceAsc {
		t.Errorf("params = %+v", svc.gotParams)
	}
}

func TestFetchSearchPage_LowResultsFetchSuggestions(t *testing.T) {
	svc := &mockService{
		items:       products(2),
		total:       2,
		suggestions: []models.Suggestion{{Text: "xbox series x", SimilarityScore: 0.8}, {Text: " "}},
	}
	page, err := New(svc).FetchSearchPage(context.Background(), models.SearchQuery{Term: "xbox seris"})
	if err != nil {
		t.Fatalf("FetchSearchPage: %v", err)
	}
	if n := atomic.LoadInt32(&svc.suggestionCalls); n != 1 {
		t.Errorf("suggestion calls = %d, want 1", n)
	}
	if len(page.Suggestions) != 1 || page.DidYouMean != "xbox series x" {
		t.Errorf("suggestions = %+v didYouMean = %q", page.Suggestions, page.DidYouMean)
	}
	if page.TotalPages != 1 {
		t.Errorf("total pages = %d, want 1", page.TotalPages)
	}
}

func TestFetchSearchPage_SuggestionFailureIsNotFatal(t *testing.T) {
	svc := &mockService{items: products(1), total: 1, suggestionErr: errors.New("down")}
	page, err := New(svc).FetchSearchPage(context.Background(), models.SearchQuery{Term: "ps5"})
	if err != nil {
		t.Fatalf("FetchSearchPage: %v", err)
	}
	if len(page.Items) != 1 || page.DidYouMean != "" {
		t.Errorf("page = %+v", page)
	}
}

func TestFetchSearchPage_TypedError(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name string
		svc  *mockService
		op   string
	}{
		{"search fails", &mockService{searchErr: cause}, FnUnifiedProductSearch},
		{"count fails", &mockService{countErr: cause}, FnProductSearchCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := New(tt.svc).FetchSearchPage(context.Background(), models.SearchQuery{Term: "ps5"})
			if page != nil {
				t.Errorf("page = %+v, want nil on error", page)
			}
			if !errors.Is(err, ErrSearchFailed) {
				t.Fatalf("err = %v, want ErrSearchFailed", err)
			}
			if !errors.Is(err, cause) {
				t.Errorf("err = %v, want wrapped cause", err)
			}
			var se *SearchError
			if !errors.As(err, &se) || se.Op != tt.op {
				t.Errorf("err = %#v, want *SearchError for %s", err, tt.op)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	items := NormalizeProducts([]models.ProductSummary{{Price: 50, DiscountPrice: 0}, {Price: 50, DiscountPrice: 70}})
	for _, p := range items {
		if p.DiscountPrice != 50 {
			t.Errorf("discount = %v, want clamped to price", p.DiscountPrice)
		}
	}
	if NormalizeProducts(nil) == nil {
		t.Error("nil input should become an empty slice")
	}

	sg := NormalizeSuggestions([]models.Suggestion{{Text: "a", SimilarityScore: 1.7}, {Text: "b", SimilarityScore: -1}})
	if sg[0].SimilarityScore != 1 || sg[1].SimilarityScore != 0 {
		t.Errorf("similarity not clamped: %+v", sg)
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	c := New(&mockService{}, WithOptions(Options{AutocompleteLimit: 8}))
	o := c.Options()
	if o.AutocompleteLimit != 8 {
		t.Errorf("limit = %d, want override 8", o.AutocompleteLimit)
	}
	if o.DidYouMeanThreshold != 0.6 || o.MinTermLength != 2 || o.Timeout <= 0 {
		t.Errorf("defaults not applied: %+v", o)
	}
}
