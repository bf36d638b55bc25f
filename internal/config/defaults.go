package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/gntstore/data/db/catalog.db"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/gntstore/data/indices/products.bleve"
	}
	if cfg.Catalog.Extensions == nil {
		cfg.Catalog.Extensions = []string{".json", ".yaml", ".yml", ".xlsx"}
	}
	if cfg.Search.AutocompleteLimit == 0 {
		cfg.Search.AutocompleteLimit = 5
	}
	if cfg.Search.MinTermLength == 0 {
		cfg.Search.MinTermLength = 2
	}
	if cfg.Search.AutocompleteSimilarity == 0 {
		cfg.Search.AutocompleteSimilarity = 0.3
	}
	if cfg.Search.SuggestionLimit == 0 {
		cfg.Search.SuggestionLimit = 3
	}
	if cfg.Search.SuggestionMinSimilarity == 0 {
		cfg.Search.SuggestionMinSimilarity = 0.3
	}
	if cfg.Search.DidYouMeanThreshold == 0 {
		cfg.Search.DidYouMeanThreshold = 0.6
	}
	if cfg.Search.LowResultThreshold == 0 {
		cfg.Search.LowResultThreshold = 5
	}
	if cfg.Search.MinRelevance == 0 {
		cfg.Search.MinRelevance = 0.1
	}
	if cfg.Search.PageSize == 0 {
		cfg.Search.PageSize = 20
	}
	if cfg.Search.DebounceDelay == 0 {
		cfg.Search.DebounceDelay = 600 * time.Millisecond
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 10 * time.Second
	}
	if cfg.Search.SpellMaxDistance == 0 {
		cfg.Search.SpellMaxDistance = 2
	}
	if cfg.Remote.Mode == "" {
		cfg.Remote.Mode = RemoteLocal
	}
}
