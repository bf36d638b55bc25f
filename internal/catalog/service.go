// Package catalog is the in-process Product Search Service: it answers the four
// remote search functions from the SQLite catalog and the bleve product index,
// and keeps both in sync when products are imported or removed.
package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/keyword"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/searchclient"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/storage"
)

// suggestionOverfetch is how many phrase candidates are requested per wanted
// suggestion; candidates without results are dropped afterwards.
const suggestionOverfetch = 3

// Service implements searchclient.Service against the local catalog.
type Service struct {
	store  storage.Storage
	index  keyword.ProductIndex
	spell  *keyword.SpellChecker
	logger *zap.Logger
}

var _ searchclient.Service = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithSpellChecker enables search_suggestions. Without one, SearchSuggestions
// always returns an empty list.
func WithSpellChecker(sc *keyword.SpellChecker) Option {
	return func(s *Service) { s.spell = sc }
}

// NewService creates a Service over store and index.
func NewService(store storage.Storage, index keyword.ProductIndex, opts ...Option) *Service {
	s := &Service{
		store:  store,
		index:  index,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AutocompleteSearch returns active products whose names match a partially typed query.
func (s *Service) AutocompleteSearch(ctx context.Context, req searchclient.AutocompleteRequest) ([]models.ProductSummary, error) {
	hits, err := s.index.Autocomplete(ctx, req.Query, req.MaxResults, req.SimilarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	return s.resolve(ctx, hits)
}

// SearchSuggestions returns corrected phrases for term, each with the number of
// products it would find. Phrases that find nothing are not suggested.
func (s *Service) SearchSuggestions(ctx context.Context, req searchclient.SuggestionsRequest) ([]models.Suggestion, error) {
	out := make([]models.Suggestion, 0, req.MaxSuggestions)
	if s.spell == nil || req.MaxSuggestions <= 0 {
		return out, nil
	}
	phrases, err := s.spell.SuggestPhrases(req.Term, req.MaxSuggestions*suggestionOverfetch, req.MinSimilarity)
	if err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}
	for _, p := range phrases {
		n, err := s.index.Count(ctx, models.SearchFilters{Term: p.Text})
		if err != nil {
			return nil, fmt.Errorf("suggestions: count %q: %w", p.Text, err)
		}
		if n == 0 {
			continue
		}
		out = append(out, models.Suggestion{
			Text:             p.Text,
			SimilarityScore:  p.Similarity,
			EstimatedResults: n,
		})
		if len(out) == req.MaxSuggestions {
			break
		}
	}
	return out, nil
}

// UnifiedProductSearch returns one sorted page of products.
func (s *Service) UnifiedProductSearch(ctx context.Context, params models.SearchParams) ([]models.ProductSummary, error) {
	hits, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return s.resolve(ctx, hits)
}

// ProductSearchCount returns the total number of products matching filters.
func (s *Service) ProductSearchCount(ctx context.Context, filters models.SearchFilters) (int, error) {
	n, err := s.index.Count(ctx, filters)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// resolve loads the products behind hits, keeping hit order. Hits whose product
// has disappeared from the store are skipped.
func (s *Service) resolve(ctx context.Context, hits []*keyword.Hit) ([]models.ProductSummary, error) {
	out := make([]models.ProductSummary, 0, len(hits))
	if len(hits) == 0 {
		return out, nil
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	products, err := s.store.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if len(products) != len(ids) {
		s.logger.Warn("index references missing products", zap.Int("hits", len(ids)), zap.Int("found", len(products)))
	}
	for _, p := range products {
		out = append(out, p.ProductSummary)
	}
	return out, nil
}

// GetProductBySlug returns a stored product.
func (s *Service) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.store.GetProductBySlug(ctx, slug)
}

// UpsertProducts stores and indexes products.
func (s *Service) UpsertProducts(ctx context.Context, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}
	// Storage fills timestamps, which the index sorts on, so it goes first.
	if err := s.store.BatchUpsertProducts(ctx, products); err != nil {
		return fmt.Errorf("failed to store products: %w", err)
	}
	if err := s.index.IndexBatch(ctx, products); err != nil {
		return fmt.Errorf("failed to index products: %w", err)
	}
	s.invalidateSpelling()
	s.logger.Debug("catalog products upserted", zap.Int("count", len(products)))
	return nil
}

// DeleteProduct removes a product from the index and the store.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.index.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from index: %w", err)
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateSpelling()
	s.logger.Debug("catalog product deleted", zap.String("id", id))
	return nil
}

// DeleteSource removes every product imported from source and returns how many
// were removed.
func (s *Service) DeleteSource(ctx context.Context, source string) (int, error) {
	ids, err := s.store.DeleteProductsBySource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete products of %s: %w", source, err)
	}
	for _, id := range ids {
		if err := s.index.Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("failed to delete from index: %w", err)
		}
	}
	if len(ids) > 0 {
		s.invalidateSpelling()
	}
	s.logger.Debug("catalog source removed", zap.String("source", source), zap.Int("products", len(ids)))
	return len(ids), nil
}

// ReplaceSource replaces the products of source with products.
func (s *Service) ReplaceSource(ctx context.Context, source string, products []*models.Product) error {
	if _, err := s.DeleteSource(ctx, source); err != nil {
		return err
	}
	for _, p := range products {
		p.Source = source
	}
	return s.UpsertProducts(ctx, products)
}

// Reindex rebuilds the index from the store when their sizes disagree, e.g.
// after the index directory was removed. It returns the number of products indexed.
func (s *Service) Reindex(ctx context.Context, force bool) (int, error) {
	stored, err := s.store.CountProducts(ctx)
	if err != nil {
		return 0, err
	}
	indexed, err := s.index.DocCount()
	if err != nil {
		return 0, err
	}
	if !force && uint64(stored) == indexed {
		return 0, nil
	}

	const pageSize = 500
	n := 0
	for offset := 0; ; offset += pageSize {
		products, err := s.store.ListProducts(ctx, offset, pageSize)
		if err != nil {
			return n, err
		}
		if len(products) == 0 {
			break
		}
		if err := s.index.IndexBatch(ctx, products); err != nil {
			return n, fmt.Errorf("failed to index products: %w", err)
		}
		n += len(products)
	}
	s.invalidateSpelling()
	s.logger.Info("catalog reindexed", zap.Int("products", n))
	return n, nil
}

func (s *Service) invalidateSpelling() {
	if s.spell != nil {
		s.spell.Invalidate()
	}
}
