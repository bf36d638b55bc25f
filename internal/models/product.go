// Package models defines core data structures for products, queries, and search results.
package models

import "time"

// ProductSummary is the listing view of a product returned by every search operation.
type ProductSummary struct {
	ProductID     string   `json:"product_id" yaml:"product_id"`
	Slug          string   `json:"slug" yaml:"slug"`
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description,omitempty" yaml:"description"`
	PrimaryImage  string   `json:"primary_image,omitempty" yaml:"primary_image"`
	Price         float64  `json:"price" yaml:"price"`
	DiscountPrice float64  `json:"discount_price" yaml:"discount_price"`
	Category      string   `json:"category,omitempty" yaml:"category"`
	Subcategory   string   `json:"subcategory,omitempty" yaml:"subcategory"`
	Label         string   `json:"label,omitempty" yaml:"label"`
	Condition     string   `json:"condition,omitempty" yaml:"condition"`
	IsFeatured    bool     `json:"is_featured" yaml:"is_featured"`
	IsBestseller  bool     `json:"is_bestseller" yaml:"is_bestseller"`
	AverageRating *float64 `json:"average_rating,omitempty" yaml:"average_rating"`
}

// HasDiscount reports whether the product sells below its list price.
func (p *ProductSummary) HasDiscount() bool {
	return p.Price > p.DiscountPrice
}

// NormalizePricing clamps DiscountPrice into [0, Price]. A missing (zero) discount
// price means the product sells at list price.
func (p *ProductSummary) NormalizePricing() {
	if p.Price < 0 {
		p.Price = 0
	}
	if p.DiscountPrice <= 0 || p.DiscountPrice > p.Price {
		p.DiscountPrice = p.Price
	}
}

// Product is a stored catalog record.
type Product struct {
	ProductSummary `yaml:",inline"`
	IsActive       bool      `json:"is_active" yaml:"is_active"`
	Source         string    `json:"source,omitempty" yaml:"-"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"-"`
}

// ProductInput is the input for creating or updating a product.
// IsActive is a pointer so omitted values default to active.
type ProductInput struct {
	ProductSummary `yaml:",inline"`
	IsActive       *bool     `json:"is_active,omitempty" yaml:"is_active"`
	CreatedAt      time.Time `json:"created_at,omitempty" yaml:"created_at"`
}
