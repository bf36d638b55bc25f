package searchclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// HTTPService calls the search functions as JSON RPC endpoints at
// POST {baseURL}/rpc/{function}.
type HTTPService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// HTTPOption configures an HTTPService.
type HTTPOption func(*HTTPService)

// WithAPIKey sends key in the apikey and Authorization headers.
func WithAPIKey(key string) HTTPOption {
	return func(s *HTTPService) {
		s.apiKey = key
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPService) {
		if c != nil {
			s.client = c
		}
	}
}

// NewHTTPService creates an RPC transport for baseURL.
func NewHTTPService(baseURL string, opts ...HTTPOption) *HTTPService {
	s := &HTTPService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPService) AutocompleteSearch(ctx context.Context, req AutocompleteRequest) ([]models.ProductSummary, error) {
	var out []models.ProductSummary
	if err := s.call(ctx, FnAutocompleteSearch, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HTTPService) SearchSuggestions(ctx context.Context, req SuggestionsRequest) ([]models.Suggestion, error) {
	var out []models.Suggestion
	if err := s.call(ctx, FnSearchSuggestions, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HTTPService) UnifiedProductSearch(ctx context.Context, params models.SearchParams) ([]models.ProductSummary, error) {
	var out []models.ProductSummary
	if err := s.call(ctx, FnUnifiedProductSearch, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HTTPService) ProductSearchCount(ctx context.Context, filters models.SearchFilters) (int, error) {
	var out int
	if err := s.call(ctx, FnProductSearchCount, filters, &out); err != nil {
		return 0, err
	}
	return out, nil
}

func (s *HTTPService) call(ctx context.Context, fn string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", fn, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/rpc/"+fn, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", fn, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", fn, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeRPCError(fn, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", fn, err)
	}
	return nil
}

func decodeRPCError(fn string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			msg = payload.Error
		} else if payload.Message != "" {
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("%s returned status %d: %s", fn, resp.StatusCode, msg)
}
