package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/catalog"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/searchclient"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/storage"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/storefront"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/urlstate"
)

const maxBodyBytes = 8 << 20

// apiSource is the source recorded for products created through the API.
const apiSource = "api"

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog not enabled")
		return
	}
	fn := chi.URLParam(r, "fn")
	ctx := r.Context()
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	s.logger.Debug("rpc request", zap.String("fn", fn))

	var (
		out any
		err error
	)
	switch fn {
	case searchclient.FnAutocompleteSearch:
		var req searchclient.AutocompleteRequest
		if !s.decode(w, body, &req) {
			return
		}
		out, err = s.catalog.AutocompleteSearch(ctx, req)
	case searchclient.FnSearchSuggestions:
		var req searchclient.SuggestionsRequest
		if !s.decode(w, body, &req) {
			return
		}
		out, err = s.catalog.SearchSuggestions(ctx, req)
	case searchclient.FnUnifiedProductSearch:
		var params models.SearchParams
		if !s.decode(w, body, &params) {
			return
		}
		out, err = s.catalog.UnifiedProductSearch(ctx, params)
	case searchclient.FnProductSearchCount:
		var filters models.SearchFilters
		if !s.decode(w, body, &filters) {
			return
		}
		out, err = s.catalog.ProductSearchCount(ctx, filters)
	default:
		s.respondError(w, http.StatusNotFound, "unknown function "+fn)
		return
	}
	if err != nil {
		s.logger.Error("rpc failed", zap.String("fn", fn), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) decode(w http.ResponseWriter, body io.Reader, v any) bool {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleUpsertProducts(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog not enabled")
		return
	}
	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	products, err := catalog.Parse(content, ".json", apiSource)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(products) == 0 {
		s.respondError(w, http.StatusBadRequest, "no products in request body")
		return
	}
	for _, p := range products {
		p.Source = apiSource
	}
	s.logger.Debug("upsert products request", zap.Int("count", len(products)))
	if err := s.catalog.UpsertProducts(r.Context(), products); err != nil {
		s.logger.Error("upsert failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ProductID
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"ids": ids, "status": "indexed"})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog not enabled")
		return
	}
	slug := chi.URLParam(r, "slug")
	p, err := s.catalog.GetProductBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "product not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete product request", zap.String("id", id))
	if err := s.catalog.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "product not found")
			return
		}
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	*catalog.Status
	RemoteMode   string `json:"remote_mode"`
	LiveSessions int    `json:"live_sessions"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		RemoteMode:   s.config.Remote.Mode,
		LiveSessions: s.LiveSessions(),
	}
	if s.catalog != nil {
		st, err := s.catalog.Status(r.Context(), s.config.Storage.DatabasePath, s.config.Storage.IndexPath)
		if err != nil {
			s.logger.Error("status failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Status = st
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleStorefrontSearch renders the search page for the URL's query string once
// its fetch has settled.
func (s *Server) handleStorefrontSearch(w http.ResponseWriter, r *http.Request) {
	page := storefront.New(urlstate.NewStore(r.URL.RawQuery), s.client, storefront.WithLogger(s.logger))
	defer page.Close()

	ctx, cancel := context.WithTimeout(r.Context(), s.client.Options().Timeout)
	defer cancel()
	view, err := page.Settle(ctx)
	if err != nil {
		s.respondError(w, http.StatusGatewayTimeout, err.Error())
		return
	}
	if view.Error != "" {
		s.respondJSON(w, http.StatusBadGateway, view)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleStorefrontAutocomplete(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get(urlstate.KeyTerm)
	s.respondJSON(w, http.StatusOK, s.client.FetchAutocomplete(r.Context(), term))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respondJSON encodes data before writing the header so that an unencodable
// value becomes a 500 instead of an empty 200.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
