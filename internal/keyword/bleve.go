// Package keyword provides Bleve implementation of ProductIndex.
package keyword

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// Indexed field names.
const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldCategory    = "category"
	fieldSubcategory = "subcategory"
	fieldLabel       = "label"
	fieldCondition   = "condition"
	fieldPrice       = "price"
	fieldDiscount    = "discount_price"
	fieldRating      = "average_rating"
	fieldCreated     = "created_unix"
	fieldActive      = "is_active"
	fieldFeatured    = "is_featured"
	fieldBestseller  = "is_bestseller"
)

const maxAutocompleteFetch = 50

// textFields are the analyzed fields feeding the term dictionary.
var textFields = []string{fieldName, fieldDescription}

// BleveIndex implements ProductIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so that model names like
	// "ps5" or "rtx4070" match exactly.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(fieldName, textFieldMapping)
	docMapping.AddFieldMappingsAt(fieldDescription, textFieldMapping)

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	for _, f := range []string{fieldCategory, fieldSubcategory, fieldLabel, fieldCondition} {
		docMapping.AddFieldMappingsAt(f, keywordFieldMapping)
	}

	numericFieldMapping := bleve.NewNumericFieldMapping()
	for _, f := range []string{fieldPrice, fieldDiscount, fieldRating, fieldCreated} {
		docMapping.AddFieldMappingsAt(f, numericFieldMapping)
	}

	boolFieldMapping := bleve.NewBooleanFieldMapping()
	for _, f := range []string{fieldActive, fieldFeatured, fieldBestseller} {
		docMapping.AddFieldMappingsAt(f, boolFieldMapping)
	}

	im.AddDocumentMapping("product", docMapping)
	im.DefaultType = "product"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path creates an
// in-memory index. If you change the index mapping in code, remove the index
// directory to force a full re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := buildMapping()

	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// productDocument flattens a product into the indexed field set.
func productDocument(p *models.Product) map[string]interface{} {
	doc := map[string]interface{}{
		fieldName:        p.Name,
		fieldDescription: p.Description,
		fieldCategory:    p.Category,
		fieldSubcategory: p.Subcategory,
		fieldLabel:       p.Label,
		fieldCondition:   p.Condition,
		fieldPrice:       p.Price,
		fieldDiscount:    p.DiscountPrice,
		fieldCreated:     float64(p.CreatedAt.Unix()),
		fieldActive:      p.IsActive,
		fieldFeatured:    p.IsFeatured,
		fieldBestseller:  p.IsBestseller,
	}
	if p.AverageRating != nil {
		doc[fieldRating] = *p.AverageRating
	}
	return doc
}

// Index indexes or replaces a product.
func (b *BleveIndex) Index(ctx context.Context, p *models.Product) error {
	return b.index.Index(p.ProductID, productDocument(p))
}

// IndexBatch indexes products in a single batch.
func (b *BleveIndex) IndexBatch(ctx context.Context, products []*models.Product) error {
	batch := b.index.NewBatch()
	for _, p := range products {
		if err := batch.Index(p.ProductID, productDocument(p)); err != nil {
			return fmt.Errorf("failed to batch %s: %w", p.ProductID, err)
		}
	}
	return b.index.Batch(batch)
}

// buildFilterQuery is the single query builder shared by Search and Count.
func buildFilterQuery(f models.SearchFilters) blevequery.Query {
	var must []blevequery.Query

	if term := strings.TrimSpace(f.Term); term != "" {
		must = append(must, buildTextQuery(term))
	}
	if q := anyOf(fieldCategory, f.Categories); q != nil {
		must = append(must, q)
	}
	if q := anyOf(fieldSubcategory, f.Subcategories); q != nil {
		must = append(must, q)
	}
	if q := anyOf(fieldLabel, f.Labels); q != nil {
		must = append(must, q)
	}
	if f.Condition != "" {
		tq := bleve.NewTermQuery(f.Condition)
		tq.SetField(fieldCondition)
		must = append(must, tq)
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		inclusive := true
		rq := bleve.NewNumericRangeInclusiveQuery(f.MinPrice, f.MaxPrice, &inclusive, &inclusive)
		rq.SetField(fieldDiscount)
		must = append(must, rq)
	}
	if !f.IncludeInactive {
		aq := bleve.NewBoolFieldQuery(true)
		aq.SetField(fieldActive)
		must = append(must, aq)
	}

	if len(must) == 0 {
		return bleve.NewMatchAllQuery()
	}
	return bleve.NewConjunctionQuery(must...)
}

// buildTextQuery matches every term of the query against the name (boosted) or
// the description. Misspelled terms are left to search suggestions: fuzzy
// matching here would let "ps5" match "ps4".
func buildTextQuery(term string) blevequery.Query {
	nameQuery := bleve.NewMatchQuery(term)
	nameQuery.SetField(fieldName)
	nameQuery.SetOperator(blevequery.MatchQueryOperatorAnd)
	nameQuery.SetBoost(3.0)

	descQuery := bleve.NewMatchQuery(term)
	descQuery.SetField(fieldDescription)
	descQuery.SetOperator(blevequery.MatchQueryOperatorAnd)

	return bleve.NewDisjunctionQuery(nameQuery, descQuery)
}

func anyOf(field string, values []string) blevequery.Query {
	if len(values) == 0 {
		return nil
	}
	queries := make([]blevequery.Query, 0, len(values))
	for _, v := range values {
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		queries = append(queries, tq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// sortOrder maps a sort option to Bleve sort keys. _id is the final tiebreaker so
// pages are stable.
func sortOrder(s models.SortBy) []string {
	switch s {
	case models.SortPriceAsc:
		return []string{fieldDiscount, "-_score", "_id"}
	case models.SortPriceDesc:
		return []string{"-" + fieldDiscount, "-_score", "_id"}
	case models.SortRating:
		return []string{"-" + fieldRating, "-_score", "_id"}
	case models.SortNewest:
		return []string{"-" + fieldCreated, "_id"}
	default:
		return []string{"-_score", "_id"}
	}
}

// Search returns one sorted page. MinRelevance is not applied: Bleve scores are
// not normalized, and dropping hits here would make Count disagree with Search.
func (b *BleveIndex) Search(ctx context.Context, params models.SearchParams) ([]*Hit, error) {
	page := params.PageNumber
	if page < 1 {
		page = 1
	}
	size := params.PageSize
	if size <= 0 {
		size = models.DefaultPageSize
	}

	req := bleve.NewSearchRequestOptions(buildFilterQuery(params.SearchFilters), size, (page-1)*size, false)
	req.SortBy(sortOrder(params.SortBy))

	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Hit, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Hit{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Count returns the number of products matching filters.
func (b *BleveIndex) Count(ctx context.Context, filters models.SearchFilters) (int, error) {
	req := bleve.NewSearchRequestOptions(buildFilterQuery(filters), 0, 0, false)
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("Bleve count failed: %w", err)
	}
	return int(results.Total), nil
}

// Autocomplete matches the last typed token as a name prefix, earlier tokens as
// typo tolerant name terms, and falls back to a fuzzy match of the whole query.
// Hits whose name is less similar to the query than similarity are dropped.
func (b *BleveIndex) Autocomplete(ctx context.Context, query string, limit int, similarity float64) ([]*Hit, error) {
	terms := tokenizeQuery(query)
	if len(terms) == 0 || limit <= 0 {
		return []*Hit{}, nil
	}

	prefixed := make([]blevequery.Query, 0, len(terms))
	for _, t := range terms[:len(terms)-1] {
		mq := bleve.NewMatchQuery(t)
		mq.SetField(fieldName)
		mq.SetFuzziness(1)
		prefixed = append(prefixed, mq)
	}
	pq := bleve.NewPrefixQuery(terms[len(terms)-1])
	pq.SetField(fieldName)
	prefixed = append(prefixed, pq)
	prefixQuery := bleve.NewConjunctionQuery(prefixed...)
	prefixQuery.SetBoost(2.0)

	fuzzy := bleve.NewMatchQuery(strings.Join(terms, " "))
	fuzzy.SetField(fieldName)
	fuzzy.SetOperator(blevequery.MatchQueryOperatorAnd)
	fuzzy.SetFuzziness(2)

	active := bleve.NewBoolFieldQuery(true)
	active.SetField(fieldActive)

	q := bleve.NewConjunctionQuery(bleve.NewDisjunctionQuery(prefixQuery, fuzzy), active)
	fetch := limit * 4
	if fetch > maxAutocompleteFetch {
		fetch = maxAutocompleteFetch
	}
	req := bleve.NewSearchRequestOptions(q, fetch, 0, false)
	req.Fields = []string{fieldName}
	req.SortBy([]string{"-_score", "_id"})

	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve autocomplete failed: %w", err)
	}

	out := make([]*Hit, 0, limit)
	for _, hit := range results.Hits {
		name, _ := hit.Fields[fieldName].(string)
		if NameSimilarity(query, name) < similarity {
			continue
		}
		out = append(out, &Hit{ID: hit.ID, Score: hit.Score})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Delete removes a product from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of products in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// tokenizeQuery splits query into lowercase terms, filtering out empty strings.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// GetAllTerms returns all unique terms of the name and description fields, sorted.
// This is used for spell checking to build the term dictionary.
func (b *BleveIndex) GetAllTerms() ([]string, error) {
	seen := make(map[string]struct{})
	for _, field := range textFields {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s dictionary: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			seen[entry.Term] = struct{}{}
		}
		dict.Close()
	}

	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms, nil
}

// GetTermFrequency returns the number of active products containing term in
// their name or description.
func (b *BleveIndex) GetTermFrequency(term string) (int, error) {
	nameTerm := bleve.NewTermQuery(strings.ToLower(term))
	nameTerm.SetField(fieldName)
	descTerm := bleve.NewTermQuery(strings.ToLower(term))
	descTerm.SetField(fieldDescription)
	active := bleve.NewBoolFieldQuery(true)
	active.SetField(fieldActive)

	q := bleve.NewConjunctionQuery(bleve.NewDisjunctionQuery(nameTerm, descTerm), active)
	results, err := b.index.Search(bleve.NewSearchRequestOptions(q, 0, 0, false))
	if err != nil {
		return 0, fmt.Errorf("failed to search for term frequency: %w", err)
	}
	return int(results.Total), nil
}

// ContainsTerm checks if a term exists in the index.
func (b *BleveIndex) ContainsTerm(term string) (bool, error) {
	freq, err := b.GetTermFrequency(term)
	if err != nil {
		return false, err
	}
	return freq > 0, nil
}
