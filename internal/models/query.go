package models

import (
	"strconv"
	"strings"
)

// SortBy is the result ordering requested by the storefront.
type SortBy string

const (
	SortRelevance SortBy = "relevance"
	SortPriceAsc  SortBy = "price_asc"
	SortPriceDesc SortBy = "price_desc"
	SortRating    SortBy = "rating"
	SortNewest    SortBy = "newest"
)

// ValidSortOptions returns every accepted sort option, default first.
func ValidSortOptions() []SortBy {
	return []SortBy{SortRelevance, SortPriceAsc, SortPriceDesc, SortRating, SortNewest}
}

// ParseSortBy returns the sort option named by s, or SortRelevance when s is unknown.
func ParseSortBy(s string) SortBy {
	for _, opt := range ValidSortOptions() {
		if string(opt) == s {
			return opt
		}
	}
	return SortRelevance
}

const (
	// DefaultPage is the 1-based page used when none is given.
	DefaultPage = 1
	// DefaultPageSize is the page size used when none is given.
	DefaultPageSize = 20
)

// DiscountFilter is the client-only discount price range filter.
// HasRange is true when Min and Max were provided explicitly (e.g. from a bookmarked URL).
type DiscountFilter struct {
	Enabled  bool    `json:"enabled"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	HasRange bool    `json:"has_range"`
}

// SearchQuery is the structured search state decoded from the URL.
// Categories, Subcategories and Labels are ordered sets in selection order.
type SearchQuery struct {
	Term          string          `json:"term"`
	Categories    []string        `json:"categories,omitempty"`
	Subcategories []string        `json:"subcategories,omitempty"`
	Labels        []string        `json:"labels,omitempty"`
	Condition     string          `json:"condition,omitempty"`
	SortBy        SortBy          `json:"sort_by"`
	Page          int             `json:"page"`
	PageSize      int             `json:"page_size"`
	Discount      *DiscountFilter `json:"discount,omitempty"`
}

// Normalize enforces the query invariants: page >= 1, pageSize > 0, a known sort,
// de-duplicated facet sets and min <= max on the discount range.
func (q *SearchQuery) Normalize() {
	q.Term = strings.TrimSpace(q.Term)
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	q.SortBy = ParseSortBy(string(q.SortBy))
	q.Categories = OrderedSet(q.Categories)
	q.Subcategories = OrderedSet(q.Subcategories)
	q.Labels = OrderedSet(q.Labels)
	if q.Discount != nil && q.Discount.Min > q.Discount.Max {
		q.Discount.Min, q.Discount.Max = q.Discount.Max, q.Discount.Min
	}
}

// HasFacetFilters reports whether any category, subcategory or label is selected.
func (q *SearchQuery) HasFacetFilters() bool {
	return len(q.Categories) > 0 || len(q.Subcategories) > 0 || len(q.Labels) > 0
}

// Searchable reports whether the query may hit the remote search: a non-empty term
// or at least one facet filter.
func (q *SearchQuery) Searchable() bool {
	return q.Term != "" || q.HasFacetFilters()
}

// DiscountEnabled reports whether the client-side discount filter is on.
func (q *SearchQuery) DiscountEnabled() bool {
	return q.Discount != nil && q.Discount.Enabled
}

// ServerKey identifies the server-side part of the query. Two queries with the same key
// produce the same remote request; the client-only discount filter is not part of it.
func (q *SearchQuery) ServerKey() string {
	var b strings.Builder
	b.WriteString(q.Term)
	b.WriteByte(0)
	b.WriteString(strings.Join(q.Categories, ","))
	b.WriteByte(0)
	b.WriteString(strings.Join(q.Subcategories, ","))
	b.WriteByte(0)
	b.WriteString(strings.Join(q.Labels, ","))
	b.WriteByte(0)
	b.WriteString(q.Condition)
	b.WriteByte(0)
	b.WriteString(string(q.SortBy))
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(q.Page))
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(q.PageSize))
	return b.String()
}

// OrderedSet trims values and removes blanks and duplicates, keeping first-seen order.
func OrderedSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SearchFilters are the server-side filter parameters shared by the ranked search and
// the count request. Both must be built from the same value to stay consistent.
type SearchFilters struct {
	Term            string   `json:"term"`
	Categories      []string `json:"categories,omitempty"`
	Subcategories   []string `json:"subcategories,omitempty"`
	Labels          []string `json:"labels,omitempty"`
	MinPrice        *float64 `json:"min_price,omitempty"`
	MaxPrice        *float64 `json:"max_price,omitempty"`
	Condition       string   `json:"condition,omitempty"`
	IncludeInactive bool     `json:"include_inactive"`
}

// SearchParams are the parameters of unified_product_search.
type SearchParams struct {
	SearchFilters
	SortBy       SortBy  `json:"sort_by"`
	PageNumber   int     `json:"page_number"`
	PageSize     int     `json:"page_size"`
	MinRelevance float64 `json:"min_relevance"`
}

// Filters derives the server-side filters of q.
func (q *SearchQuery) Filters() SearchFilters {
	return SearchFilters{
		Term:          q.Term,
		Categories:    q.Categories,
		Subcategories: q.Subcategories,
		Labels:        q.Labels,
		Condition:     q.Condition,
	}
}
