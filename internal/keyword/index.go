// Package keyword provides full-text product indexing, filtered search and
// spelling suggestions.
package keyword

import (
	"context"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// ProductIndex defines product search operations. Search and Count must build
// their queries from the same filters so counts always agree with results.
type ProductIndex interface {
	Index(ctx context.Context, p *models.Product) error
	IndexBatch(ctx context.Context, products []*models.Product) error
	Delete(ctx context.Context, id string) error
	// Search returns one sorted page of matching product ids.
	Search(ctx context.Context, params models.SearchParams) ([]*Hit, error)
	// Count returns the number of products matching filters.
	Count(ctx context.Context, filters models.SearchFilters) (int, error)
	// Autocomplete returns active products whose name matches a partially typed
	// query with at least the given similarity.
	Autocomplete(ctx context.Context, query string, limit int, similarity float64) ([]*Hit, error)
	Close() error
	// DocCount returns the total number of products in the index.
	DocCount() (uint64, error)
}

// Hit is a single search hit.
type Hit struct {
	ID    string
	Score float64
}

// TermDictionary provides access to the term dictionary for spell checking.
// This interface allows dependency injection for testing.
type TermDictionary interface {
	// GetAllTerms returns all unique terms in the index.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the document frequency for a term.
	GetTermFrequency(term string) (int, error)
	// ContainsTerm checks if a term exists in the index.
	ContainsTerm(term string) (bool, error)
}
