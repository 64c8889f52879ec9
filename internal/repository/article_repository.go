package repository

import (
	"context"

	"github.com/mkk2026/Security.News.Scraper/internal/domain/entity"
)

// ArticleDigest is the title/summary pair used for near-duplicate checks.
type ArticleDigest struct {
	Title   string
	Summary string
}

type ArticleRepository interface {
	// Create persists a new article and fills in its generated ID.
	// Returns ErrDuplicate if an article with the same URL already exists.
	Create(ctx context.Context, article *entity.Article) error
	// ExistsByURLBatch checks URL existence in a single query to avoid
	// one round trip per candidate. The returned map has an entry for
	// every requested URL.
	ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error)
	// ListRecentDigests returns the title/summary of the most recently
	// published articles, newest first.
	ListRecentDigests(ctx context.Context, limit int) ([]ArticleDigest, error)
	// CountArticles returns the total number of stored articles.
	CountArticles(ctx context.Context) (int64, error)
}
