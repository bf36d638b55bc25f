// Package urlstate maps the storefront search state to and from URL query
// parameters and keeps the current URL as the single shared state of a search page.
package urlstate

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// URL query parameter names. These form the bookmarkable contract of the search page.
const (
	KeyTerm             = "q"
	KeyCategory         = "category"
	KeySubcategory      = "subcategory"
	KeyLabel            = "label"
	KeyCondition        = "condition"
	KeySortBy           = "sortBy"
	KeyPage             = "page"
	KeyPageSize         = "pageSize"
	KeyFilterByDiscount = "filterByDiscount"
	KeyMinDiscountPrice = "minDiscountPrice"
	KeyMaxDiscountPrice = "maxDiscountPrice"
)

// MultiValueKeys are the parameters carrying comma-joined ordered sets.
var MultiValueKeys = []string{KeyCategory, KeySubcategory, KeyLabel}

// IsMultiValue reports whether key holds a comma-joined list.
func IsMultiValue(key string) bool {
	for _, k := range MultiValueKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Decode parses URL parameters into a normalized SearchQuery. Missing or invalid
// numeric values fall back to their defaults.
func Decode(v url.Values) models.SearchQuery {
	q := models.SearchQuery{
		Term:          v.Get(KeyTerm),
		Categories:    SplitList(v.Get(KeyCategory)),
		Subcategories: SplitList(v.Get(KeySubcategory)),
		Labels:        SplitList(v.Get(KeyLabel)),
		Condition:     strings.TrimSpace(v.Get(KeyCondition)),
		SortBy:        models.ParseSortBy(v.Get(KeySortBy)),
		Page:          parseInt(v.Get(KeyPage), models.DefaultPage),
		PageSize:      parseInt(v.Get(KeyPageSize), models.DefaultPageSize),
	}

	if v.Get(KeyFilterByDiscount) == "true" {
		d := &models.DiscountFilter{Enabled: true}
		minV, minOK := parseFloat(v.Get(KeyMinDiscountPrice))
		maxV, maxOK := parseFloat(v.Get(KeyMaxDiscountPrice))
		if minOK && maxOK {
			d.Min, d.Max, d.HasRange = minV, maxV, true
		}
		q.Discount = d
	}

	q.Normalize()
	return q
}

// Encode renders q as canonical URL parameters. Default page and sort values and
// empty sets are omitted so that Decode(Encode(q)) reproduces q.
func Encode(q models.SearchQuery) url.Values {
	v := url.Values{}
	if q.Term != "" {
		v.Set(KeyTerm, q.Term)
	}
	if s := JoinList(q.Categories); s != "" {
		v.Set(KeyCategory, s)
	}
	if s := JoinList(q.Subcategories); s != "" {
		v.Set(KeySubcategory, s)
	}
	if s := JoinList(q.Labels); s != "" {
		v.Set(KeyLabel, s)
	}
	if q.Condition != "" {
		v.Set(KeyCondition, q.Condition)
	}
	if q.SortBy != "" && q.SortBy != models.SortRelevance {
		v.Set(KeySortBy, string(q.SortBy))
	}
	if q.Page > models.DefaultPage {
		v.Set(KeyPage, strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 && q.PageSize != models.DefaultPageSize {
		v.Set(KeyPageSize, strconv.Itoa(q.PageSize))
	}
	if q.DiscountEnabled() {
		v.Set(KeyFilterByDiscount, "true")
		if q.Discount.HasRange {
			v.Set(KeyMinDiscountPrice, FormatPrice(q.Discount.Min))
			v.Set(KeyMaxDiscountPrice, FormatPrice(q.Discount.Max))
		}
	}
	return v
}

// SplitList parses a comma-joined parameter into an ordered, de-duplicated set.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	return models.OrderedSet(strings.Split(s, ","))
}

// JoinList renders an ordered set as a comma-joined parameter value.
func JoinList(values []string) string {
	return strings.Join(models.OrderedSet(values), ",")
}

// FormatPrice renders a price with the shortest exact representation.
func FormatPrice(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
