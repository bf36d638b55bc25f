package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GNTSTORE_"

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing files
// are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with GNTSTORE_* environment variables.
func ApplyEnv(cfg *Config) error {
	strs := map[string]*string{
		"HOST":           &cfg.Server.Host,
		"API_KEY":        &cfg.Server.APIKey,
		"DATABASE_PATH":  &cfg.Storage.DatabasePath,
		"INDEX_PATH":     &cfg.Storage.IndexPath,
		"REMOTE_MODE":    &cfg.Remote.Mode,
		"REMOTE_URL":     &cfg.Remote.URL,
		"REMOTE_API_KEY": &cfg.Remote.APIKey,
		"POSTGRES_DSN":   &cfg.Remote.PostgresDSN,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT: %w", EnvPrefix, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := os.LookupEnv(EnvPrefix + "DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sDEBUG: %w", EnvPrefix, err)
		}
		cfg.Debug = debug
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SEARCH_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sSEARCH_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Search.Timeout = d
	}
	return nil
}
