package models

// Suggestion is a spelling or term suggestion returned by search_suggestions.
type Suggestion struct {
	Text             string  `json:"suggestion"`
	SimilarityScore  float64 `json:"similarity_score"`
	EstimatedResults int     `json:"estimated_results"`
}

// AutocompleteResult is the dropdown payload for a partially typed term.
// DidYouMean is empty when there is no confident correction.
type AutocompleteResult struct {
	Results     []ProductSummary `json:"results"`
	Suggestions []Suggestion     `json:"suggestions"`
	DidYouMean  string           `json:"did_you_mean,omitempty"`
}

// SearchResultPage is one fetched page of server results. It is replaced wholesale on
// every successful fetch and never mutated afterwards.
// TotalCount counts server-side filters only, not client-side facet narrowing.
type SearchResultPage struct {
	Items       []ProductSummary `json:"items"`
	TotalCount  int              `json:"total_count"`
	Page        int              `json:"page"`
	PageSize    int              `json:"page_size"`
	TotalPages  int              `json:"total_pages"`
	Suggestions []Suggestion     `json:"suggestions"`
	DidYouMean  string           `json:"did_you_mean,omitempty"`
}

// FacetOption is one selectable facet value with its occurrence count.
type FacetOption struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FacetGroups holds the derived facet options, each sorted by count descending.
type FacetGroups struct {
	Categories    []FacetOption `json:"categories"`
	Subcategories []FacetOption `json:"subcategories"`
	Labels        []FacetOption `json:"labels"`
}

// PriceRange is an inclusive [Min, Max] price interval.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the inclusive range.
func (r PriceRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}
