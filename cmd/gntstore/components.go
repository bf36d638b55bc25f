package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/catalog"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/config"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/keyword"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/searchclient"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/storage"
)

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Index    *keyword.BleveIndex
	Catalog  *catalog.Service
	Importer *catalog.Importer
}

func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// initializeComponents opens the local catalog: SQLite storage, the bleve product
// index, the spell checker over it, and the catalog service.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	for _, p := range []string{cfg.Storage.DatabasePath, cfg.Storage.IndexPath} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	index, err := keyword.NewBleveIndex(cfg.Storage.IndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize product index: %w", err)
	}

	spell := keyword.NewSpellChecker(index, keyword.WithMaxDistance(cfg.Search.SpellMaxDistance))
	svc := catalog.NewService(store, index,
		catalog.WithLogger(logger),
		catalog.WithSpellChecker(spell),
	)
	return &Components{
		Storage:  store,
		Index:    index,
		Catalog:  svc,
		Importer: catalog.NewImporter(svc, catalog.WithImporterLogger(logger)),
	}, nil
}

// clientOptions maps the search config onto the storefront client options.
func clientOptions(cfg *config.SearchConfig) searchclient.Options {
	return searchclient.Options{
		AutocompleteLimit:       cfg.AutocompleteLimit,
		MinTermLength:           cfg.MinTermLength,
		AutocompleteSimilarity:  cfg.AutocompleteSimilarity,
		SuggestionLimit:         cfg.SuggestionLimit,
		SuggestionMinSimilarity: cfg.SuggestionMinSimilarity,
		DidYouMeanThreshold:     cfg.DidYouMeanThreshold,
		LowResultThreshold:      cfg.LowResultThreshold,
		MinRelevance:            cfg.MinRelevance,
		IncludeInactive:         cfg.IncludeInactive,
		Timeout:                 cfg.Timeout,
	}
}

// remoteService is the search service selected by the remote mode, plus how to
// release it.
type remoteService struct {
	searchclient.Service
	close func()
}

// openService returns the search service for cfg.Remote.Mode. Local mode needs
// comps; the other modes ignore it.
func openService(ctx context.Context, cfg *config.Config, comps *Components) (*remoteService, error) {
	switch cfg.Remote.Mode {
	case config.RemoteHTTP:
		var opts []searchclient.HTTPOption
		if cfg.Remote.APIKey != "" {
			opts = append(opts, searchclient.WithAPIKey(cfg.Remote.APIKey))
		}
		return &remoteService{Service: searchclient.NewHTTPService(cfg.Remote.URL, opts...), close: func() {}}, nil
	case config.RemotePostgres:
		pg, err := searchclient.OpenPostgres(ctx, cfg.Remote.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return &remoteService{Service: pg, close: func() { _ = pg.Close() }}, nil
	default:
		if comps == nil || comps.Catalog == nil {
			return nil, fmt.Errorf("local search requires the catalog")
		}
		return &remoteService{Service: comps.Catalog, close: func() {}}, nil
	}
}

// newClient builds the storefront search client over svc.
func newClient(cfg *config.Config, svc searchclient.Service, logger *zap.Logger) *searchclient.Client {
	return searchclient.New(svc,
		searchclient.WithOptions(clientOptions(&cfg.Search)),
		searchclient.WithLogger(logger),
	)
}
