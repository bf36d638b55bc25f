// Package config provides configuration loading and structs for the GNT Store
// search service and storefront.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Remote search transport modes.
const (
	RemoteLocal    = "local"
	RemoteHTTP     = "http"
	RemotePostgres = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Catalog CatalogConfig `yaml:"catalog"`
	Search  SearchConfig  `yaml:"search"`
	Remote  RemoteConfig  `yaml:"remote"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// APIKey, when set, is required on /rpc calls.
	APIKey string `yaml:"api_key"`
}

// StorageConfig holds paths for the catalog database and product index.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	IndexPath    string `yaml:"index_path"`
}

// CatalogConfig holds catalog import and watch settings.
type CatalogConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	Watch       bool     `yaml:"watch"`
}

// RecursiveOrDefault returns whether to scan directories recursively; defaults
// to true when unset.
func (c *CatalogConfig) RecursiveOrDefault() bool {
	if c.Recursive != nil {
		return *c.Recursive
	}
	return true
}

// SearchConfig holds storefront search tuning.
type SearchConfig struct {
	AutocompleteLimit       int           `yaml:"autocomplete_limit"`
	MinTermLength           int           `yaml:"min_term_length"`
	AutocompleteSimilarity  float64       `yaml:"autocomplete_similarity"`
	SuggestionLimit         int           `yaml:"suggestion_limit"`
	SuggestionMinSimilarity float64       `yaml:"suggestion_min_similarity"`
	DidYouMeanThreshold     float64       `yaml:"did_you_mean_threshold"`
	LowResultThreshold      int           `yaml:"low_result_threshold"`
	MinRelevance            float64       `yaml:"min_relevance"`
	PageSize                int           `yaml:"page_size"`
	IncludeInactive         bool          `yaml:"include_inactive"`
	DebounceDelay           time.Duration `yaml:"debounce_delay"`
	Timeout                 time.Duration `yaml:"timeout"`
	SpellMaxDistance        int           `yaml:"spell_max_distance"`
}

// RemoteConfig selects how the storefront reaches the Product Search Service:
// in process (local), over HTTP RPC, or through Postgres SQL functions.
type RemoteConfig struct {
	Mode        string `yaml:"mode"`
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Validate reports configuration errors that defaults cannot fix.
func (c *Config) Validate() error {
	switch c.Remote.Mode {
	case RemoteLocal:
	case RemoteHTTP:
		if c.Remote.URL == "" {
			return fmt.Errorf("remote.url is required in %s mode", RemoteHTTP)
		}
	case RemotePostgres:
		if c.Remote.PostgresDSN == "" {
			return fmt.Errorf("remote.postgres_dsn is required in %s mode", RemotePostgres)
		}
	default:
		return fmt.Errorf("unknown remote.mode %q", c.Remote.Mode)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

// Load reads and parses the config file at path, applies environment overrides
// and defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	for i := range cfg.Catalog.Directories {
		cfg.Catalog.Directories[i] = expandPath(cfg.Catalog.Directories[i], configDir)
	}

	return &cfg, nil
}

// Default returns a config built from the environment and defaults only, for
// running without a config file.
func Default() (*Config, error) {
	var cfg Config
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
