package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
search:
  page_size: 12
  debounce_delay: 250ms
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Search.PageSize != 12 {
		t.Errorf("page_size = %d, want 12", cfg.Search.PageSize)
	}
	if cfg.Search.DebounceDelay != 250*time.Millisecond {
		t.Errorf("debounce_delay = %v, want 250ms", cfg.Search.DebounceDelay)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/db/catalog.db"
  index_path: "./data/indices/products.bleve"
catalog:
  directories: ["./catalog"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "catalog.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantIndex := filepath.Join(dir, "data", "indices", "products.bleve")
	if cfg.Storage.IndexPath != wantIndex {
		t.Errorf("index_path = %s, want %s", cfg.Storage.IndexPath, wantIndex)
	}
	if len(cfg.Catalog.Directories) != 1 {
		t.Fatalf("catalog directories: got %d", len(cfg.Catalog.Directories))
	}
	wantCatalog := filepath.Join(dir, "catalog")
	if cfg.Catalog.Directories[0] != wantCatalog {
		t.Errorf("catalog directory = %s, want %s", cfg.Catalog.Directories[0], wantCatalog)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Search.PageSize != 20 {
		t.Errorf("default page size: got %d", cfg.Search.PageSize)
	}
	if cfg.Search.AutocompleteLimit != 5 || cfg.Search.MinTermLength != 2 {
		t.Errorf("autocomplete defaults: limit=%d min=%d", cfg.Search.AutocompleteLimit, cfg.Search.MinTermLength)
	}
	if cfg.Search.DebounceDelay != 600*time.Millisecond {
		t.Errorf("default debounce: got %v", cfg.Search.DebounceDelay)
	}
	if cfg.Search.Timeout != 10*time.Second {
		t.Errorf("default timeout: got %v", cfg.Search.Timeout)
	}
	if cfg.Remote.Mode != RemoteLocal {
		t.Errorf("default remote mode: got %s", cfg.Remote.Mode)
	}
	if len(cfg.Catalog.Extensions) != 4 || cfg.Catalog.Extensions[3] != ".xlsx" {
		t.Errorf("catalog extensions: got %v", cfg.Catalog.Extensions)
	}
}

func TestApplyDefaults_keepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 9999},
		Search: SearchConfig{PageSize: 50, Timeout: time.Second},
	}
	ApplyDefaults(cfg)
	if cfg.Server.Port != 9999 || cfg.Search.PageSize != 50 || cfg.Search.Timeout != time.Second {
		t.Errorf("explicit values overwritten: %+v %+v", cfg.Server, cfg.Search)
	}
}

func TestCatalogConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		c := &CatalogConfig{}
		if got := c.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("true_returns_true", func(t *testing.T) {
		v := true
		c := &CatalogConfig{Recursive: &v}
		if got := c.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		c := &CatalogConfig{Recursive: &f}
		if got := c.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GNTSTORE_HOST", "0.0.0.0")
	t.Setenv("GNTSTORE_PORT", "7070")
	t.Setenv("GNTSTORE_REMOTE_MODE", RemoteHTTP)
	t.Setenv("GNTSTORE_REMOTE_URL", "https://store.example.com")
	t.Setenv("GNTSTORE_DEBUG", "true")
	t.Setenv("GNTSTORE_SEARCH_TIMEOUT", "3s")

	cfg := &Config{Server: ServerConfig{Host: "localhost", Port: 8080}}
	if err := ApplyEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 7070 {
		t.Errorf("server not overridden: %+v", cfg.Server)
	}
	if cfg.Remote.Mode != RemoteHTTP || cfg.Remote.URL != "https://store.example.com" {
		t.Errorf("remote not overridden: %+v", cfg.Remote)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Search.Timeout != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", cfg.Search.Timeout)
	}
}

func TestApplyEnv_invalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"GNTSTORE_PORT", "eighty"},
		{"GNTSTORE_DEBUG", "maybe"},
		{"GNTSTORE_SEARCH_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if err := ApplyEnv(&Config{}); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("GNTSTORE_TEST_DOTENV=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GNTSTORE_TEST_DOTENV", "")
	os.Unsetenv("GNTSTORE_TEST_DOTENV")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("GNTSTORE_TEST_DOTENV"); got != "from-file" {
		t.Errorf("GNTSTORE_TEST_DOTENV = %q, want from-file", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		remote  RemoteConfig
		wantErr bool
	}{
		{"local", RemoteConfig{Mode: RemoteLocal}, false},
		{"http with url", RemoteConfig{Mode: RemoteHTTP, URL: "http://x"}, false},
		{"http without url", RemoteConfig{Mode: RemoteHTTP}, true},
		{"postgres with dsn", RemoteConfig{Mode: RemotePostgres, PostgresDSN: "postgres://x"}, false},
		{"postgres without dsn", RemoteConfig{Mode: RemotePostgres}, true},
		{"unknown", RemoteConfig{Mode: "grpc"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Remote: tt.remote}
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
		Search:  SearchConfig{DebounceDelay: 300 * time.Millisecond},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Search.DebounceDelay != 300*time.Millisecond {
		t.Errorf("loaded debounce: got %v", loaded.Search.DebounceDelay)
	}
}
