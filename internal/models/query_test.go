package models

import (
	"reflect"
	"testing"
)

func TestSearchQuery_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		query SearchQuery
		check func(t *testing.T, q SearchQuery)
	}{
		{"default page", SearchQuery{Page: 0}, func(t *testing.T, q SearchQuery) {
			if q.Page != 1 {
				t.Errorf("page = %d, want 1", q.Page)
			}
		}},
		{"default page size", SearchQuery{PageSize: -3}, func(t *testing.T, q SearchQuery) {
			if q.PageSize != DefaultPageSize {
				t.Errorf("page size = %d, want %d", q.PageSize, DefaultPageSize)
			}
		}},
		{"unknown sort falls back to relevance", SearchQuery{SortBy: "cheapest"}, func(t *testing.T, q SearchQuery) {
			if q.SortBy != SortRelevance {
				t.Errorf("sort = %q, want relevance", q.SortBy)
			}
		}},
		{"swaps inverted discount range", SearchQuery{Discount: &DiscountFilter{Enabled: true, Min: 500, Max: 100}}, func(t *testing.T, q SearchQuery) {
			if q.Discount.Min != 100 || q.Discount.Max != 500 {
				t.Errorf("discount = %+v, want min 100 max 500", q.Discount)
			}
		}},
		{"dedups facet sets keeping order", SearchQuery{Categories: []string{"PC", " Consoles", "PC", ""}}, func(t *testing.T, q SearchQuery) {
			want := []string{"PC", "Consoles"}
			if !reflect.DeepEqual(q.Categories, want) {
				t.Errorf("categories = %v, want %v", q.Categories, want)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			q.Normalize()
			tt.check(t, q)
		})
	}
}

func TestSearchQuery_Searchable(t *testing.T) {
	if (&SearchQuery{}).Searchable() {
		t.Error("empty query should not be searchable")
	}
	if !(&SearchQuery{Term: "ps5"}).Searchable() {
		t.Error("term-only query should be searchable")
	}
	if !(&SearchQuery{Labels: []string{"Sale"}}).Searchable() {
		t.Error("label-only browse should be searchable")
	}
}

func TestSearchQuery_ServerKeyIgnoresDiscount(t *testing.T) {
	a := SearchQuery{Term: "ps5", Page: 1, PageSize: 20}
	b := a
	b.Discount = &DiscountFilter{Enabled: true, Min: 10, Max: 20}
	if a.ServerKey() != b.ServerKey() {
		t.Error("discount filter must not change the server key")
	}
	c := a
	c.Page = 2
	if a.ServerKey() == c.ServerKey() {
		t.Error("page change must change the server key")
	}
}

func TestProductSummary_NormalizePricing(t *testing.T) {
	tests := []struct {
		price, discount, want float64
	}{
		{100, 80, 80},
		{100, 0, 100},
		{100, 120, 100},
		{-5, 0, 0},
	}
	for _, tt := range tests {
		p := ProductSummary{Price: tt.price, DiscountPrice: tt.discount}
		p.NormalizePricing()
		if p.DiscountPrice != tt.want {
			t.Errorf("NormalizePricing(%v, %v) discount = %v, want %v", tt.price, tt.discount, p.DiscountPrice, tt.want)
		}
		if p.DiscountPrice > p.Price {
			t.Errorf("discount %v exceeds price %v", p.DiscountPrice, p.Price)
		}
	}
	p := ProductSummary{Price: 100, DiscountPrice: 80}
	if !p.HasDiscount() {
		t.Error("expected HasDiscount for 100/80")
	}
}
