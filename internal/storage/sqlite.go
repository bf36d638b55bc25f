// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT,
		primary_image TEXT,
		price REAL NOT NULL DEFAULT 0,
		discount_price REAL NOT NULL DEFAULT 0,
		category TEXT,
		subcategory TEXT,
		label TEXT,
		condition TEXT,
		is_featured INTEGER NOT NULL DEFAULT 0,
		is_bestseller INTEGER NOT NULL DEFAULT 0,
		average_rating REAL,
		is_active INTEGER NOT NULL DEFAULT 1,
		source TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_products_source ON products(source);
	CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

const productColumns = `id, slug, name, description, primary_image, price, discount_price,
	category, subcategory, label, condition, is_featured, is_bestseller, average_rating,
	is_active, source, created_at, updated_at`

const upsertSQL = `INSERT INTO products (` + productColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		slug = excluded.slug,
		name = excluded.name,
		description = excluded.description,
		primary_image = excluded.primary_image,
		price = excluded.price,
		discount_price = excluded.discount_price,
		category = excluded.category,
		subcategory = excluded.subcategory,
		label = excluded.label,
		condition = excluded.condition,
		is_featured = excluded.is_featured,
		is_bestseller = excluded.is_bestseller,
		average_rating = excluded.average_rating,
		is_active = excluded.is_active,
		source = excluded.source,
		updated_at = excluded.updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, p *models.Product, now time.Time) error {
	p.NormalizePricing()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	var rating sql.NullFloat64
	if p.AverageRating != nil {
		rating = sql.NullFloat64{Float64: *p.AverageRating, Valid: true}
	}
	_, err := db.ExecContext(ctx, upsertSQL,
		p.ProductID, p.Slug, p.Name, p.Description, p.PrimaryImage, p.Price, p.DiscountPrice,
		p.Category, p.Subcategory, p.Label, p.Condition, p.IsFeatured, p.IsBestseller, rating,
		p.IsActive, p.Source, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var (
		p                                         models.Product
		description, image, category, subcategory sql.NullString
		label, condition, source                  sql.NullString
		rating                                    sql.NullFloat64
	)
	err := row.Scan(
		&p.ProductID, &p.Slug, &p.Name, &description, &image, &p.Price, &p.DiscountPrice,
		&category, &subcategory, &label, &condition, &p.IsFeatured, &p.IsBestseller, &rating,
		&p.IsActive, &source, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.PrimaryImage = image.String
	p.Category = category.String
	p.Subcategory = subcategory.String
	p.Label = label.String
	p.Condition = condition.String
	p.Source = source.String
	if rating.Valid {
		r := rating.Float64
		p.AverageRating = &r
	}
	return &p, nil
}

// UpsertProduct inserts a product or replaces the stored one with the same ID.
// CreatedAt is kept from the first insert.
func (s *SQLiteStorage) UpsertProduct(ctx context.Context, p *models.Product) error {
	if p.ProductID == "" || p.Slug == "" {
		return fmt.Errorf("product id and slug are required")
	}
	return upsert(ctx, s.db, p, time.Now())
}

// GetProduct returns a product by ID.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, err
}

// GetProductBySlug returns a product by its slug.
func (s *SQLiteStorage) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return p, err
}

// DeleteProduct removes a product by ID.
func (s *SQLiteStorage) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ListProducts returns products with offset and limit, newest first.
func (s *SQLiteStorage) ListProducts(ctx context.Context, offset, limit int) ([]*models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// BatchUpsertProducts upserts multiple products in a transaction.
func (s *SQLiteStorage) BatchUpsertProducts(ctx context.Context, products []*models.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, p := range products {
		if err := upsert(ctx, tx, p, now); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", p.ProductID, err)
		}
	}
	return tx.Commit()
}

// GetProducts returns products by ID preserving the order of ids.
func (s *SQLiteStorage) GetProducts(ctx context.Context, ids []string) ([]*models.Product, error) {
	if len(ids) == 0 {
		return []*models.Product{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*models.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		byID[p.ProductID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// DeleteProductsBySource removes all products imported from source.
func (s *SQLiteStorage) DeleteProductsBySource(ctx context.Context, source string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM products WHERE source = ?`, source)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE source = ?`, source); err != nil {
		return nil, err
	}
	return ids, tx.Commit()
}

// CountProducts returns the total number of products.
func (s *SQLiteStorage) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}

// CountActiveProducts returns the number of products visible to shoppers.
func (s *SQLiteStorage) CountActiveProducts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE is_active = 1`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
