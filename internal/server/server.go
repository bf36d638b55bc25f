// Package server provides the HTTP API for the GNT Store: the product search RPC
// functions, catalog management, and the storefront search page.
package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/catalog"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/config"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/searchclient"
)

// Server is the HTTP server for the GNT Store API.
type Server struct {
	catalog *catalog.Service
	client  *searchclient.Client
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server

	upgrader websocket.Upgrader

	sessionsMu sync.Mutex
	sessions   map[string]*liveSession
}

// NewServer creates a server. catalog may be nil when the storefront reaches a
// remote search service; the catalog endpoints then answer 501.
func NewServer(
	svc *catalog.Service,
	client *searchclient.Client,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		catalog: svc,
		client:  client,
		config:  cfg,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*liveSession),
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Live sessions are long-lived and hijack the connection.
	r.Get("/api/v1/storefront/live", s.handleLive)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.Compress(5))

		r.With(s.requireAPIKey).Post("/rpc/{fn}", s.handleRPC)

		r.Post("/api/v1/products", s.handleUpsertProducts)
		r.Get("/api/v1/products/{slug}", s.handleGetProduct)
		r.Delete("/api/v1/products/{id}", s.handleDeleteProduct)
		r.Get("/api/v1/status", s.handleStatus)

		r.Get("/api/v1/storefront/search", s.handleStorefrontSearch)
		r.Get("/api/v1/storefront/autocomplete", s.handleStorefrontAutocomplete)

		r.Get("/health", s.handleHealth)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop closes live sessions and gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.sessionsMu.Lock()
	for _, sess := range s.sessions {
		sess.close()
	}
	s.sessionsMu.Unlock()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requireAPIKey rejects RPC calls without the configured key. The key is accepted
// in the apikey header or as a bearer token.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := s.config.Server.APIKey
		if want == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := r.Header.Get("apikey")
		if got == "" {
			got = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			s.respondError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) addSession(sess *liveSession) {
	s.sessionsMu.Lock()
	s.sessions[sess.id] = sess
	s.sessionsMu.Unlock()
}

func (s *Server) removeSession(id string) {
	s.sessionsMu.Lock()
	delete(s.sessions, id)
	s.sessionsMu.Unlock()
}

// LiveSessions returns the number of connected live storefront sessions.
func (s *Server) LiveSessions() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions)
}
