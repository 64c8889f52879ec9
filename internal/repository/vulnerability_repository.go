package repository

import (
	"context"

	"github.com/mkk2026/Security.News.Scraper/internal/domain/entity"
)

// VulnerabilityRepository manages vulnerability records keyed by their
// external identifier (e.g. "CVE-2024-12345").
type VulnerabilityRepository interface {
	// GetByExternalID returns the record with the given external ID, or
	// (nil, nil) when no such record exists.
	GetByExternalID(ctx context.Context, externalID string) (*entity.Vulnerability, error)
	// Create persists a new vulnerability record and fills in its generated
	// ID. Returns ErrDuplicate if the external ID is already taken.
	Create(ctx context.Context, vuln *entity.Vulnerability) error
	// LinkArticle associates an article with a vulnerability record.
	// Linking the same pair twice is a no-op, not an error.
	LinkArticle(ctx context.Context, articleID, vulnerabilityID int64) error
}
