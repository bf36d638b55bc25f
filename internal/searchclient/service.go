// Package searchclient talks to the Product Search Service: autocomplete lookups,
// spelling suggestions, and the paginated ranked search with its total count.
package searchclient

import (
	"context"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// Remote function names, shared by every transport.
const (
	FnAutocompleteSearch   = "autocomplete_search"
	FnSearchSuggestions    = "search_suggestions"
	FnUnifiedProductSearch = "unified_product_search"
	FnProductSearchCount   = "product_search_count"
)

// Service is the remote search contract. Implementations must apply identical
// filter semantics in UnifiedProductSearch and ProductSearchCount.
type Service interface {
	AutocompleteSearch(ctx context.Context, req AutocompleteRequest) ([]models.ProductSummary, error)
	SearchSuggestions(ctx context.Context, req SuggestionsRequest) ([]models.Suggestion, error)
	UnifiedProductSearch(ctx context.Context, params models.SearchParams) ([]models.ProductSummary, error)
	ProductSearchCount(ctx context.Context, filters models.SearchFilters) (int, error)
}

// AutocompleteRequest are the parameters of autocomplete_search.
type AutocompleteRequest struct {
	Query               string  `json:"search_query"`
	MaxResults          int     `json:"max_results"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

// SuggestionsRequest are the parameters of search_suggestions.
type SuggestionsRequest struct {
	Term           string  `json:"search_term"`
	MaxSuggestions int     `json:"max_suggestions"`
	MinSimilarity  float64 `json:"min_similarity"`
}
