package searchclient

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// PostgresService calls the search functions as set-returning SQL functions of a
// Postgres database, the shape the functions take on a hosted backend.
type PostgresService struct {
	db *sql.DB
}

// OpenPostgres opens dsn with the lib/pq driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresService, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresService{db: db}, nil
}

// NewPostgresService wraps an existing connection pool.
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

// Close closes the connection pool.
func (s *PostgresService) Close() error {
	return s.db.Close()
}

const summaryColumns = `product_id, slug, name, description, primary_image, price, discount_price,
	category, subcategory, label, condition, is_featured, is_bestseller, average_rating`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (models.ProductSummary, error) {
	var (
		p                                         models.ProductSummary
		description, image, category, subcategory sql.NullString
		label, condition                          sql.NullString
		discount, rating                          sql.NullFloat64
	)
	err := row.Scan(
		&p.ProductID, &p.Slug, &p.Name, &description, &image, &p.Price, &discount,
		&category, &subcategory, &label, &condition, &p.IsFeatured, &p.IsBestseller, &rating,
	)
	if err != nil {
		return p, err
	}
	p.Description = description.String
	p.PrimaryImage = image.String
	p.Category = category.String
	p.Subcategory = subcategory.String
	p.Label = label.String
	p.Condition = condition.String
	p.DiscountPrice = discount.Float64
	if rating.Valid {
		r := rating.Float64
		p.AverageRating = &r
	}
	return p, nil
}

func (s *PostgresService) querySummaries(ctx context.Context, query string, args ...any) ([]models.ProductSummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ProductSummary
	for rows.Next() {
		p, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresService) AutocompleteSearch(ctx context.Context, req AutocompleteRequest) ([]models.ProductSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM autocomplete_search($1, $2, $3)`
	out, err := s.querySummaries(ctx, query, req.Query, req.MaxResults, req.SimilarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FnAutocompleteSearch, err)
	}
	return out, nil
}

func (s *PostgresService) SearchSuggestions(ctx context.Context, req SuggestionsRequest) ([]models.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT suggestion, similarity_score, estimated_results FROM search_suggestions($1, $2, $3)`,
		req.Term, req.MaxSuggestions, req.MinSimilarity,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FnSearchSuggestions, err)
	}
	defer rows.Close()

	var out []models.Suggestion
	for rows.Next() {
		var sg models.Suggestion
		if err := rows.Scan(&sg.Text, &sg.SimilarityScore, &sg.EstimatedResults); err != nil {
			return nil, fmt.Errorf("%s: failed to scan suggestion: %w", FnSearchSuggestions, err)
		}
		out = append(out, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", FnSearchSuggestions, err)
	}
	return out, nil
}

func (s *PostgresService) UnifiedProductSearch(ctx context.Context, params models.SearchParams) ([]models.ProductSummary, error) {
	args := filterArgs(params.SearchFilters)
	args = append(args, string(params.SortBy), params.PageNumber, params.PageSize, params.MinRelevance)
	query := `SELECT ` + summaryColumns + ` FROM unified_product_search(` + placeholders(len(args)) + `)`
	out, err := s.querySummaries(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FnUnifiedProductSearch, err)
	}
	return out, nil
}

func (s *PostgresService) ProductSearchCount(ctx context.Context, filters models.SearchFilters) (int, error) {
	args := filterArgs(filters)
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT product_search_count(`+placeholders(len(args))+`)`, args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", FnProductSearchCount, err)
	}
	return total, nil
}

// filterArgs builds the shared leading arguments of the search and count functions
// so both always receive the same filters in the same order.
func filterArgs(f models.SearchFilters) []any {
	return []any{
		nullIfEmpty(f.Term),
		arrayOrNull(f.Categories),
		arrayOrNull(f.Subcategories),
		arrayOrNull(f.Labels),
		f.MinPrice,
		f.MaxPrice,
		nullIfEmpty(f.Condition),
		f.IncludeInactive,
	}
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func arrayOrNull(values []string) any {
	if len(values) == 0 {
		return nil
	}
	return pq.Array(values)
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}
