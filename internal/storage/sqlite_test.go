package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func product(id, slug, source string) *models.Product {
	rating := 4.5
	return &models.Product{
		ProductSummary: models.ProductSummary{
			ProductID:     id,
			Slug:          slug,
			Name:          "Product " + id,
			Price:         100,
			DiscountPrice: 80,
			Category:      "Consoles",
			AverageRating: &rating,
		},
		IsActive: true,
		Source:   source,
	}
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := product("p1", "ps5-console", "catalog.json")
	if err := store.UpsertProduct(ctx, p); err != nil {
		t.Fatal(err)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}

	got, err := store.GetProduct(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Product p1" || got.DiscountPrice != 80 || got.AverageRating == nil || *got.AverageRating != 4.5 {
		t.Errorf("got %+v", got)
	}
	if got.Source != "catalog.json" || !got.IsActive {
		t.Errorf("source/active = %q/%v", got.Source, got.IsActive)
	}

	p.Name = "PS5 Console"
	p.AverageRating = nil
	if err := store.UpsertProduct(ctx, p); err != nil {
		t.Fatal(err)
	}
	got, err = store.GetProductBySlug(ctx, "ps5-console")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "PS5 Console" || got.AverageRating != nil {
		t.Errorf("after update got %+v", got)
	}

	if err := store.DeleteProduct(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetProduct(ctx, "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProduct after delete: err = %v, want ErrNotFound", err)
	}
	if err := store.DeleteProduct(ctx, "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetProductBySlug(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProductBySlug: err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_Validation(t *testing.T) {
	store := newTestStore(t)
	if err := store.UpsertProduct(context.Background(), product("", "slug", "")); err == nil {
		t.Error("expected an error for a product without id")
	}
}

func TestSQLiteStorage_PricingNormalized(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := product("p1", "p1", "")
	p.DiscountPrice = 150
	if err := store.UpsertProduct(ctx, p); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetProduct(ctx, "p1")
	if got.DiscountPrice != 100 {
		t.Errorf("discount = %v, want clamped to price 100", got.DiscountPrice)
	}
}

func TestSQLiteStorage_Batch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := []*models.Product{
		product("a", "a", "one.json"),
		product("b", "b", "one.json"),
		product("c", "c", "two.yaml"),
	}
	batch[2].IsActive = false
	if err := store.BatchUpsertProducts(ctx, batch); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetProducts(ctx, []string{"c", "missing", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ProductID != "c" || got[1].ProductID != "a" {
		t.Errorf("GetProducts order = %v", ids(got))
	}
	if empty, err := store.GetProducts(ctx, nil); err != nil || len(empty) != 0 {
		t.Errorf("GetProducts(nil) = %v, %v", empty, err)
	}

	list, err := store.ListProducts(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Errorf("expected 3 products, got %d", len(list))
	}

	removed, err := store.DeleteProductsBySource(ctx, "one.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 2 {
		t.Errorf("removed = %v, want 2 ids", removed)
	}
	n, _ := store.CountProducts(ctx)
	if n != 1 {
		t.Errorf("expected 1 product left, got %d", n)
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.CountProducts(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountProducts: %v, %d", err, n)
	}
	inactive := product("x", "x", "")
	inactive.IsActive = false
	_ = store.UpsertProduct(ctx, inactive)
	_ = store.UpsertProduct(ctx, product("y", "y", ""))

	n, _ = store.CountProducts(ctx)
	if n != 2 {
		t.Errorf("expected 2 products, got %d", n)
	}
	n, _ = store.CountActiveProducts(ctx)
	if n != 1 {
		t.Errorf("expected 1 active product, got %d", n)
	}
}

func ids(products []*models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ProductID
	}
	return out
}
