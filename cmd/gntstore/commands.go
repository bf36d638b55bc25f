package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/catalog"
	render "github.com/NebXTeaath/GNT-Store-sub001/internal/cli"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/config"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/searchclient"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/server"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/storefront"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/urlstate"
	"github.com/NebXTeaath/GNT-Store-sub001/internal/watcher"
)

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "output",
		Usage: "Output format: text, compact, or json",
		Value: string(render.OutputText),
	}
}

func serverFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "server",
		Usage: "Search through a running server at this URL instead of the configured remote",
	}
}

// applyServerFlag switches cfg to the HTTP transport when --server is given.
func applyServerFlag(cfg *config.Config, serverURL string) {
	if serverURL == "" {
		return
	}
	cfg.Remote.Mode = config.RemoteHTTP
	cfg.Remote.URL = strings.TrimRight(serverURL, "/")
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// session bundles what the search commands need; closing it releases the
// service and the local catalog.
type session struct {
	comps  *Components
	svc    *remoteService
	client *searchclient.Client
}

func (s *session) Close() {
	if s.svc != nil {
		s.svc.close()
	}
	if s.comps != nil {
		s.comps.Close()
	}
}

func openSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*session, error) {
	s := &session{}
	if cfg.Remote.Mode == config.RemoteLocal {
		comps, err := initializeComponents(cfg, logger)
		if err != nil {
			return nil, err
		}
		s.comps = comps
	}
	svc, err := openService(ctx, cfg, s.comps)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.svc = svc
	s.client = newClient(cfg, svc, logger)
	return s, nil
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Start the HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (overrides config)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (overrides config)"},
			&cli.BoolFlag{Name: "watch", Usage: "Watch catalog directories for changes (overrides config)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if c.IsSet("host") {
				cfg.Server.Host = c.String("host")
			}
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}
			if c.IsSet("watch") {
				cfg.Catalog.Watch = c.Bool("watch")
			}
			return runServer(ctx, cfg, logger)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	var svc *catalog.Service
	if sess.comps != nil {
		svc = sess.comps.Catalog
		if n, err := svc.Reindex(ctx, false); err != nil {
			logger.Warn("reindex failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("product index rebuilt", zap.Int("products", n))
		}

		watchCtx, watchCancel := context.WithCancel(ctx)
		defer watchCancel()
		w, err := loadCatalog(watchCtx, cfg, sess.comps, logger)
		if err != nil {
			return err
		}
		if w != nil {
			defer w.Stop()
		}
	}

	srv := server.NewServer(svc, sess.client, cfg, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	select {
	case <-sigChan:
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// loadCatalog imports the configured catalog directories. With watching enabled
// the files are imported through the watcher, which keeps re-importing changed
// files and dropping the products of removed ones.
func loadCatalog(ctx context.Context, cfg *config.Config, comps *Components, logger *zap.Logger) (*watcher.Watcher, error) {
	dirs := cfg.Catalog.Directories
	if len(dirs) == 0 {
		return nil, nil
	}
	if !cfg.Catalog.Watch {
		for _, dir := range dirs {
			files, products, err := comps.Importer.ImportDirectory(ctx, dir)
			if err != nil {
				logger.Warn("catalog import failed", zap.String("dir", dir), zap.Error(err))
				continue
			}
			logger.Info("catalog imported", zap.String("dir", dir), zap.Int("files", files), zap.Int("products", products))
		}
		return nil, nil
	}

	w := watcher.NewWatcher(
		dirs,
		cfg.Catalog.Extensions,
		cfg.Catalog.RecursiveOrDefault(),
		func(path string) {
			if _, err := comps.Importer.ImportFile(ctx, path); err != nil {
				logger.Warn("catalog import failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if _, err := comps.Importer.RemoveFile(ctx, path); err != nil {
				logger.Warn("catalog remove failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(logger),
	)
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	w.SyncExistingFiles()
	return w, nil
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import catalog files (.json, .yaml, .yml, .xlsx) or directories",
		ArgsUsage: "<path>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "remove", Usage: "Remove the products imported from the given files instead"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return fmt.Errorf("at least one path is required")
			}
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			defer logger.Sync()
			comps, err := initializeComponents(cfg, logger)
			if err != nil {
				return err
			}
			defer comps.Close()
			return runImport(ctx, c.Root().Writer, comps.Importer, paths, c.Bool("remove"))
		},
	}
}

func runImport(ctx context.Context, w io.Writer, im *catalog.Importer, paths []string, remove bool) error {
	var files, products int
	for _, path := range paths {
		if remove {
			n, err := im.RemoveFile(ctx, path)
			if err != nil {
				return fmt.Errorf("remove %s: %w", path, err)
			}
			files++
			products += n
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			f, n, err := im.ImportDirectory(ctx, path)
			if err != nil {
				return err
			}
			files += f
			products += n
			continue
		}
		n, err := im.ImportFile(ctx, path)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		files++
		products += n
	}
	verb := "Imported"
	if remove {
		verb = "Removed"
	}
	fmt.Fprintf(w, "%s %d products from %d files\n", verb, products, files)
	return nil
}

// searchFlags are the storefront filters accepted by the search command.
type searchFlags struct {
	Categories    []string
	Subcategories []string
	Labels        []string
	Condition     string
	SortBy        string
	Page          int
	PageSize      int
	Discount      bool
	MinPrice      *float64
	MaxPrice      *float64
}

// searchURL renders term and flags as the storefront URL query string.
func searchURL(term string, f searchFlags) string {
	q := models.SearchQuery{
		Term:          term,
		Categories:    f.Categories,
		Subcategories: f.Subcategories,
		Labels:        f.Labels,
		Condition:     f.Condition,
		SortBy:        models.ParseSortBy(f.SortBy),
		Page:          f.Page,
		PageSize:      f.PageSize,
	}
	if f.Discount {
		d := &models.DiscountFilter{Enabled: true}
		if f.MinPrice != nil && f.MaxPrice != nil {
			d.Min, d.Max, d.HasRange = *f.MinPrice, *f.MaxPrice, true
		}
		q.Discount = d
	}
	q.Normalize()
	return urlstate.Encode(q).Encode()
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search products the way the storefront search page does",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "category", Usage: "Category filter (repeatable)"},
			&cli.StringSliceFlag{Name: "subcategory", Usage: "Subcategory filter (repeatable)"},
			&cli.StringSliceFlag{Name: "label", Usage: "Label filter (repeatable)"},
			&cli.StringFlag{Name: "condition", Usage: "Condition filter"},
			&cli.StringFlag{Name: "sort", Usage: "Sort: relevance, price_asc, price_desc, rating, newest", Value: string(models.SortRelevance)},
			&cli.IntFlag{Name: "page", Usage: "Page number", Value: models.DefaultPage},
			&cli.IntFlag{Name: "page-size", Usage: "Results per page", Value: models.DefaultPageSize},
			&cli.BoolFlag{Name: "discount", Usage: "Filter by discount price range"},
			&cli.FloatFlag{Name: "min-price", Usage: "Minimum discount price (with --discount)"},
			&cli.FloatFlag{Name: "max-price", Usage: "Maximum discount price (with --discount)"},
			outputFlag(),
			serverFlag(),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			format, err := render.ParseOutputFormat(c.String("output"))
			if err != nil {
				return err
			}
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			defer logger.Sync()
			applyServerFlag(cfg, c.String("server"))

			f := searchFlags{
				Categories:    c.StringSlice("category"),
				Subcategories: c.StringSlice("subcategory"),
				Labels:        c.StringSlice("label"),
				Condition:     c.String("condition"),
				SortBy:        c.String("sort"),
				Page:          c.Int("page"),
				PageSize:      c.Int("page-size"),
				Discount:      c.Bool("discount"),
			}
			if c.IsSet("min-price") {
				v := c.Float("min-price")
				f.MinPrice = &v
			}
			if c.IsSet("max-price") {
				v := c.Float("max-price")
				f.MaxPrice = &v
			}

			sess, err := openSession(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer sess.Close()
			return runSearch(ctx, c.Root().Writer, sess.client, searchURL(buildSearchQuery(c.Args().Slice()), f), format, logger)
		},
	}
}

func runSearch(ctx context.Context, w io.Writer, client *searchclient.Client, rawQuery string, format render.OutputFormat, logger *zap.Logger) error {
	page := storefront.New(urlstate.NewStore(rawQuery), client, storefront.WithLogger(logger))
	defer page.Close()

	ctx, cancel := context.WithTimeout(ctx, client.Options().Timeout)
	defer cancel()
	view, err := page.Settle(ctx)
	if err != nil {
		return fmt.Errorf("search did not finish: %w", err)
	}
	if err := render.WriteView(w, view, format); err != nil {
		return err
	}
	if view.Error != "" {
		return errors.New(view.Error)
	}
	return nil
}

func autocompleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "autocomplete",
		Usage:     "Show the search box dropdown for a partially typed term",
		ArgsUsage: "<term>",
		Flags:     []cli.Flag{outputFlag(), serverFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			format, err := render.ParseOutputFormat(c.String("output"))
			if err != nil {
				return err
			}
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			defer logger.Sync()
			applyServerFlag(cfg, c.String("server"))

			sess, err := openSession(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer sess.Close()
			term := buildSearchQuery(c.Args().Slice())
			return render.WriteAutocomplete(c.Root().Writer, term, sess.client.FetchAutocomplete(ctx, term), format)
		},
	}
}

func suggestCommand() *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Show spelling suggestions for a term",
		ArgsUsage: "<term>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of suggestions (default from config)"},
			&cli.FloatFlag{Name: "min-similarity", Usage: "Minimum similarity (default from config)"},
			outputFlag(),
			serverFlag(),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			format, err := render.ParseOutputFormat(c.String("output"))
			if err != nil {
				return err
			}
			term := buildSearchQuery(c.Args().Slice())
			if term == "" {
				return fmt.Errorf("a term is required")
			}
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			defer logger.Sync()
			applyServerFlag(cfg, c.String("server"))

			req := searchclient.SuggestionsRequest{
				Term:           term,
				MaxSuggestions: cfg.Search.SuggestionLimit,
				MinSimilarity:  cfg.Search.SuggestionMinSimilarity,
			}
			if c.IsSet("limit") {
				req.MaxSuggestions = c.Int("limit")
			}
			if c.IsSet("min-similarity") {
				req.MinSimilarity = c.Float("min-similarity")
			}

			sess, err := openSession(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer sess.Close()
			suggestions, err := sess.svc.SearchSuggestions(ctx, req)
			if err != nil {
				return fmt.Errorf("suggestions failed: %w", err)
			}
			return render.WriteSuggestions(c.Root().Writer, term, searchclient.NormalizeSuggestions(suggestions), format)
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show catalog, index and disk usage status",
		Flags: []cli.Flag{outputFlag(), serverFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			format, err := render.ParseOutputFormat(c.String("output"))
			if err != nil {
				return err
			}
			if serverURL := c.String("server"); serverURL != "" {
				st, err := statusViaHTTP(ctx, strings.TrimRight(serverURL, "/"))
				if err != nil {
					return err
				}
				return render.WriteStatus(c.Root().Writer, st, format)
			}

			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			defer logger.Sync()
			comps, err := initializeComponents(cfg, logger)
			if err != nil {
				return err
			}
			defer comps.Close()
			st, err := comps.Catalog.Status(ctx, cfg.Storage.DatabasePath, cfg.Storage.IndexPath)
			if err != nil {
				return err
			}
			return render.WriteStatus(c.Root().Writer, st, format)
		},
	}
}

func statusViaHTTP(ctx context.Context, serverURL string) (*catalog.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/api/v1/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var st catalog.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &st, nil
}

func reindexCommand() *cli.Command {
	return &cli.Command{
		Name:  "reindex",
		Usage: "Rebuild the product index from the catalog database",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "Rebuild even when the index looks complete"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}
			defer logger.Sync()
			comps, err := initializeComponents(cfg, logger)
			if err != nil {
				return err
			}
			defer comps.Close()
			n, err := comps.Catalog.Reindex(ctx, c.Bool("force"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "Indexed %d products\n", n)
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(ctx context.Context, c *cli.Command) error {
			fmt.Fprintf(c.Root().Writer, "gntstore version %s\n", version)
			return nil
		},
	}
}
