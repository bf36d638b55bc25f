// Package storage defines the persistence interface for the product catalog.
package storage

import (
	"context"
	"errors"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = errors.New("product not found")

// Storage defines product catalog persistence operations.
type Storage interface {
	// Product operations
	UpsertProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, offset, limit int) ([]*models.Product, error)

	// Batch operations
	BatchUpsertProducts(ctx context.Context, products []*models.Product) error
	// GetProducts returns the products with the given ids in the same order,
	// skipping ids that do not exist.
	GetProducts(ctx context.Context, ids []string) ([]*models.Product, error)
	// DeleteProductsBySource removes every product imported from source and
	// returns the removed ids.
	DeleteProductsBySource(ctx context.Context, source string) ([]string, error)

	// Stats
	CountProducts(ctx context.Context) (int64, error)
	CountActiveProducts(ctx context.Context) (int64, error)

	Close() error
}
