package entity

import (
	"errors"
	"fmt"
	"net/url"
)

// Source represents a configured news feed source.
// Sources are immutable configuration, loaded at startup and passed
// explicitly into the scraper so tests can substitute arbitrary lists.
type Source struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	FeedURL string `yaml:"feed_url,omitempty"`
	BaseURL string `yaml:"base_url"`
}

// Validate checks that the source configuration is usable.
func (s *Source) Validate() error {
	if s.ID == "" {
		return errors.New("source id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("source %q: name is required", s.ID)
	}
	if s.BaseURL == "" {
		return fmt.Errorf("source %q: base_url is required", s.ID)
	}
	if s.FeedURL != "" {
		u, err := url.Parse(s.FeedURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("source %q: feed_url must be an http(s) URL", s.ID)
		}
	}
	return nil
}
