// Package facets derives filter options from a fetched result page and narrows
// that page locally by facet selection and discount price range.
package facets

import (
	"math"
	"sort"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// Selection is the local filter state applied to the base result set.
type Selection struct {
	Categories      []string
	Subcategories   []string
	Labels          []string
	DiscountEnabled bool
	Range           models.PriceRange
}

// SelectionFromQuery builds the selection for q using rng as the discount range.
func SelectionFromQuery(q models.SearchQuery, rng models.PriceRange) Selection {
	return Selection{
		Categories:      q.Categories,
		Subcategories:   q.Subcategories,
		Labels:          q.Labels,
		DiscountEnabled: q.DiscountEnabled(),
		Range:           rng,
	}
}

// Groups counts categories, subcategories and labels across base. Options are
// ordered by count descending, ties by first appearance.
func Groups(base []models.ProductSummary) models.FacetGroups {
	return models.FacetGroups{
		Categories:    count(base, func(p *models.ProductSummary) string { return p.Category }),
		Subcategories: count(base, func(p *models.ProductSummary) string { return p.Subcategory }),
		Labels:        count(base, func(p *models.ProductSummary) string { return p.Label }),
	}
}

func count(base []models.ProductSummary, field func(*models.ProductSummary) string) []models.FacetOption {
	idx := make(map[string]int)
	out := []models.FacetOption{}
	for i := range base {
		name := field(&base[i])
		if name == "" {
			continue
		}
		if j, ok := idx[name]; ok {
			out[j].Count++
			continue
		}
		idx[name] = len(out)
		out = append(out, models.FacetOption{Name: name, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Bounds returns [floor(min), ceil(max)] of the discount prices in base, or the
// zero range when base is empty.
func Bounds(base []models.ProductSummary) models.PriceRange {
	if len(base) == 0 {
		return models.PriceRange{}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range base {
		lo = math.Min(lo, base[i].DiscountPrice)
		hi = math.Max(hi, base[i].DiscountPrice)
	}
	return models.PriceRange{Min: math.Floor(lo), Max: math.Ceil(hi)}
}

// Filter returns the items of base matching sel: AND across facet types, OR within
// a type, and the inclusive discount range when enabled.
func Filter(base []models.ProductSummary, sel Selection) []models.ProductSummary {
	cats := toSet(sel.Categories)
	subs := toSet(sel.Subcategories)
	labels := toSet(sel.Labels)

	out := make([]models.ProductSummary, 0, len(base))
	for _, p := range base {
		if !matches(cats, p.Category) || !matches(subs, p.Subcategory) || !matches(labels, p.Label) {
			continue
		}
		if sel.DiscountEnabled && !sel.Range.Contains(p.DiscountPrice) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func matches(set map[string]struct{}, v string) bool {
	if set == nil {
		return true
	}
	_, ok := set[v]
	return ok
}
