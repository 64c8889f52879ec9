package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/mkk2026/Security.News.Scraper/internal/domain/entity"
	"github.com/mkk2026/Security.News.Scraper/internal/repository"
)

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

type ArticleRepo struct {
	db Querier
}

func NewArticleRepo(db Querier) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

func (repo *ArticleRepo) Create(ctx context.Context, article *entity.Article) error {
	const query = `
INSERT INTO articles
       (url, title, summary, body, source_id, source_name,
        published_at, scraped_at, content_hash, severity_score, severity_level)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		article.URL, article.Title, article.Summary, article.Body,
		article.SourceID, article.SourceName, article.PublishedAt,
		article.ScrapedAt, article.ContentHash,
		article.SeverityScore, article.SeverityLevel,
	).Scan(&article.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: url %s: %w", article.URL, repository.ErrDuplicate)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// ExistsByURLBatch checks URL existence in one query to avoid N+1 lookups.
func (repo *ArticleRepo) ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool, len(urls))
	for _, url := range urls {
		result[url] = false
	}
	if len(urls) == 0 {
		return result, nil
	}

	const query = `SELECT url FROM articles WHERE url = ANY($1)`
	rows, err := repo.db.QueryContext(ctx, query, pq.Array(urls))
	if err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("ExistsByURLBatch: Scan: %w", err)
		}
		result[url] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: rows.Err: %w", err)
	}

	return result, nil
}

func (repo *ArticleRepo) ListRecentDigests(ctx context.Context, limit int) ([]repository.ArticleDigest, error) {
	const query = `
SELECT title, COALESCE(summary, '')
FROM articles
ORDER BY published_at DESC
LIMIT $1`
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRecentDigests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	digests := make([]repository.ArticleDigest, 0, limit)
	for rows.Next() {
		var d repository.ArticleDigest
		if err := rows.Scan(&d.Title, &d.Summary); err != nil {
			return nil, fmt.Errorf("ListRecentDigests: Scan: %w", err)
		}
		digests = append(digests, d)
	}
	return digests, rows.Err()
}

func (repo *ArticleRepo) CountArticles(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM articles`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountArticles: %w", err)
	}
	return count, nil
}

// isUniqueViolation matches unique-constraint errors from either postgres
// driver in use (pgx for the live connection, lib/pq error types in tests
// and tooling).
func isUniqueViolation(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
