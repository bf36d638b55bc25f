// Package main is the GNT Store CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/config"
	"github.com/NebXTeaath/GNT-Store-sub001/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/gntstore/config.yaml"

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "gntstore",
		Usage: "Storefront product search: catalog server, faceted search and autocomplete",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: defaultConfigPath,
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file with GNTSTORE_* overrides",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			serverCommand(),
			importCommand(),
			searchCommand(),
			autocompleteCommand(),
			suggestCommand(),
			statusCommand(),
			reindexCommand(),
			versionCommand(),
		},
	}
}

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if neither exists the
// defaults and environment are used. Returns the config and the path that was
// actually loaded ("" when running on defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			cfg, err := config.Default()
			if err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads .env, the config and the logger shared by every command.
func setup(c *cli.Command) (*config.Config, *zap.Logger, error) {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return nil, nil, err
	}
	cfg, resolved, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	debug := cfg.Debug || c.Bool("debug")
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.String("remote_mode", cfg.Remote.Mode),
		zap.Bool("debug", debug),
	)
	return cfg, logger, nil
}
