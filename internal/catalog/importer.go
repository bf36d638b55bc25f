package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// SupportedExtensions lists the catalog file formats the importer reads.
var SupportedExtensions = []string{".json", ".yaml", ".yml", ".xlsx"}

// Importer loads catalog files into a Service. Each file is a product source:
// re-importing a file replaces its products, removing it drops them.
type Importer struct {
	svc    *Service
	logger *zap.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithImporterLogger sets the logger.
func WithImporterLogger(l *zap.Logger) ImporterOption {
	return func(im *Importer) { im.logger = l }
}

// NewImporter creates an importer writing into svc.
func NewImporter(svc *Service, opts ...ImporterOption) *Importer {
	im := &Importer{svc: svc, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportFile parses the file at path and replaces the products previously
// imported from it. It returns the number of products imported.
func (im *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	products, err := ParseFile(abs)
	if err != nil {
		return 0, err
	}
	if err := im.svc.ReplaceSource(ctx, abs, products); err != nil {
		return 0, err
	}
	im.logger.Info("catalog file imported", zap.String("path", abs), zap.Int("products", len(products)))
	return len(products), nil
}

// RemoveFile drops the products imported from path.
func (im *Importer) RemoveFile(ctx context.Context, path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	n, err := im.svc.DeleteSource(ctx, abs)
	if err != nil {
		return 0, err
	}
	im.logger.Info("catalog file removed", zap.String("path", abs), zap.Int("products", n))
	return n, nil
}

// ImportDirectory imports every supported file under dir. It returns the number
// of files and products imported and stops at the first error.
func (im *Importer) ImportDirectory(ctx context.Context, dir string) (files, products int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}
		n, err := im.ImportFile(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		files++
		products += n
		return nil
	})
	return files, products, err
}

// Supported reports whether path has a catalog file extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ParseFile reads and parses a catalog file. The absolute path is the products'
// source and seeds generated ids.
func ParseFile(path string) ([]*models.Product, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Parse(content, strings.ToLower(filepath.Ext(path)), path)
}

// Parse parses catalog content in the format named by ext (with leading dot).
func Parse(content []byte, ext, source string) ([]*models.Product, error) {
	var (
		inputs []models.ProductInput
		err    error
	)
	switch ext {
	case ".json":
		inputs, err = parseJSON(content)
	case ".yaml", ".yml":
		inputs, err = parseYAML(content)
	case ".xlsx":
		inputs, err = parseExcel(content)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return toProducts(inputs, source)
}

// catalogFile is the object form of JSON and YAML catalogs; a bare list of
// products is accepted as well.
type catalogFile struct {
	Products []models.ProductInput `json:"products" yaml:"products"`
}

func parseJSON(content []byte) ([]models.ProductInput, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var f catalogFile
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, fmt.Errorf("parse JSON catalog: %w", err)
		}
		return f.Products, nil
	}
	var list []models.ProductInput
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("parse JSON catalog: %w", err)
	}
	return list, nil
}

func parseYAML(content []byte) ([]models.ProductInput, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(content, &node); err != nil {
		return nil, fmt.Errorf("parse YAML catalog: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.MappingNode {
		var f catalogFile
		if err := node.Decode(&f); err != nil {
			return nil, fmt.Errorf("parse YAML catalog: %w", err)
		}
		return f.Products, nil
	}
	var list []models.ProductInput
	if err := node.Decode(&list); err != nil {
		return nil, fmt.Errorf("parse YAML catalog: %w", err)
	}
	return list, nil
}

// excelColumns maps normalized header names to product fields.
var excelColumns = map[string]string{
	"product_id":     "product_id",
	"id":             "product_id",
	"slug":           "slug",
	"name":           "name",
	"description":    "description",
	"primary_image":  "primary_image",
	"image":          "primary_image",
	"price":          "price",
	"discount_price": "discount_price",
	"category":       "category",
	"subcategory":    "subcategory",
	"label":          "label",
	"condition":      "condition",
	"is_featured":    "is_featured",
	"featured":       "is_featured",
	"is_bestseller":  "is_bestseller",
	"bestseller":     "is_bestseller",
	"average_rating": "average_rating",
	"rating":         "average_rating",
	"is_active":      "is_active",
	"active":         "is_active",
	"created_at":     "created_at",
}

// parseExcel reads every sheet; the first row of a sheet names its columns and
// unknown columns are ignored.
func parseExcel(content []byte) ([]models.ProductInput, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var out []models.ProductInput
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}
		fields := make([]string, len(rows[0]))
		for i, h := range rows[0] {
			key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
			fields[i] = excelColumns[key]
		}
		for r, row := range rows[1:] {
			if blankRow(row) {
				continue
			}
			in, err := excelRow(fields, row)
			if err != nil {
				return nil, fmt.Errorf("sheet %q row %d: %w", sheet, r+2, err)
			}
			out = append(out, in)
		}
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func excelRow(fields, row []string) (models.ProductInput, error) {
	var in models.ProductInput
	for i, cell := range row {
		if i >= len(fields) || fields[i] == "" {
			continue
		}
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		var err error
		switch fields[i] {
		case "product_id":
			in.ProductID = cell
		case "slug":
			in.Slug = cell
		case "name":
			in.Name = cell
		case "description":
			in.Description = cell
		case "primary_image":
			in.PrimaryImage = cell
		case "category":
			in.Category = cell
		case "subcategory":
			in.Subcategory = cell
		case "label":
			in.Label = cell
		case "condition":
			in.Condition = cell
		case "price":
			in.Price, err = parseNumber(cell)
		case "discount_price":
			in.DiscountPrice, err = parseNumber(cell)
		case "average_rating":
			var v float64
			if v, err = parseNumber(cell); err == nil {
				in.AverageRating = &v
			}
		case "is_featured":
			in.IsFeatured, err = parseFlag(cell)
		case "is_bestseller":
			in.IsBestseller, err = parseFlag(cell)
		case "is_active":
			var v bool
			if v, err = parseFlag(cell); err == nil {
				in.IsActive = &v
			}
		case "created_at":
			in.CreatedAt, err = time.Parse(time.DateOnly, cell)
			if err != nil {
				in.CreatedAt, err = time.Parse(time.RFC3339, cell)
			}
		}
		if err != nil {
			return in, fmt.Errorf("column %s: %w", fields[i], err)
		}
	}
	return in, nil
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// toProducts validates inputs and fills defaults: products are active unless
// stated otherwise, slugs derive from names and are unique within the file, and
// missing ids are derived from source and slug so re-imports keep them.
func toProducts(inputs []models.ProductInput, source string) ([]*models.Product, error) {
	slugs := slugSet{}
	out := make([]*models.Product, 0, len(inputs))
	for i, in := range inputs {
		if strings.TrimSpace(in.Name) == "" {
			return nil, fmt.Errorf("product %d: name is required", i+1)
		}
		if in.Price < 0 || in.DiscountPrice < 0 {
			return nil, fmt.Errorf("product %d (%s): negative price", i+1, in.Name)
		}
		p := &models.Product{
			ProductSummary: in.ProductSummary,
			IsActive:       in.IsActive == nil || *in.IsActive,
			Source:         source,
			CreatedAt:      in.CreatedAt,
		}
		p.Name = strings.TrimSpace(p.Name)
		slug := p.Slug
		if slug == "" {
			slug = Slugify(p.Name)
		}
		if slug == "" {
			slug = "product"
		}
		p.Slug = slugs.unique(slug)
		if p.ProductID == "" {
			p.ProductID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"#"+p.Slug)).String()
		}
		p.NormalizePricing()
		out = append(out, p)
	}
	return out, nil
}
