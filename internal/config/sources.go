package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkk2026/Security.News.Scraper/internal/domain/entity"
)

// SourcesConfig is the on-disk shape of the feed source list.
type SourcesConfig struct {
	Sources []entity.Source `yaml:"sources"`
}

// DefaultSources returns the built-in security news feeds, used when no
// sources file is configured.
func DefaultSources() []entity.Source {
	return []entity.Source{
		{
			ID:      "krebs",
			Name:    "Krebs on Security",
			FeedURL: "https://krebsonsecurity.com/feed/",
			BaseURL: "https://krebsonsecurity.com",
		},
		{
			ID:      "hacker-news",
			Name:    "The Hacker News",
			FeedURL: "https://thehackernews.com/feeds/posts/default",
			BaseURL: "https://thehackernews.com",
		},
		{
			ID:      "bleeping-computer",
			Name:    "Bleeping Computer",
			FeedURL: "https://www.bleepingcomputer.com/feed/",
			BaseURL: "https://www.bleepingcomputer.com",
		},
		{
			ID:      "security-week",
			Name:    "Security Week",
			FeedURL: "https://www.securityweek.com/feed",
			BaseURL: "https://www.securityweek.com",
		},
	}
}

// LoadSources reads a YAML source list from path. An empty path returns the
// built-in defaults.
// The path is expected to come from a trusted source (CLI flag or env var).
func LoadSources(path string) ([]entity.Source, error) {
	if path == "" {
		return DefaultSources(), nil
	}

	// #nosec G304 -- path is provided by trusted source (CLI arg or env), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var cfg SourcesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}

	seen := make(map[string]struct{}, len(cfg.Sources))
	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("sources file %s: %w", path, err)
		}
		if _, dup := seen[src.ID]; dup {
			return nil, fmt.Errorf("sources file %s: duplicate source id %q", path, src.ID)
		}
		seen[src.ID] = struct{}{}
	}

	return cfg.Sources, nil
}

// LoadSourcesFromEnv resolves the source list from the SOURCES_FILE
// environment variable, falling back to the built-in defaults when unset.
func LoadSourcesFromEnv() ([]entity.Source, error) {
	return LoadSources(os.Getenv("SOURCES_FILE"))
}
