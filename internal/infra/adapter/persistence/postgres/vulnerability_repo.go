package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkk2026/Security.News.Scraper/internal/domain/entity"
	"github.com/mkk2026/Security.News.Scraper/internal/repository"
)

type VulnerabilityRepo struct {
	db Querier
}

func NewVulnerabilityRepo(db Querier) repository.VulnerabilityRepository {
	return &VulnerabilityRepo{db: db}
}

func (repo *VulnerabilityRepo) GetByExternalID(ctx context.Context, externalID string) (*entity.Vulnerability, error) {
	const query = `
SELECT id, external_id, cvss_score, severity
FROM vulnerabilities
WHERE external_id = $1
LIMIT 1`
	var vuln entity.Vulnerability
	err := repo.db.QueryRowContext(ctx, query, externalID).
		Scan(&vuln.ID, &vuln.ExternalID, &vuln.CVSSScore, &vuln.Severity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByExternalID: %w", err)
	}
	return &vuln, nil
}

func (repo *VulnerabilityRepo) Create(ctx context.Context, vuln *entity.Vulnerability) error {
	const query = `
INSERT INTO vulnerabilities (external_id, cvss_score, severity)
VALUES ($1, $2, $3)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		vuln.ExternalID, vuln.CVSSScore, vuln.Severity,
	).Scan(&vuln.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %s: %w", vuln.ExternalID, repository.ErrDuplicate)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// LinkArticle records the association; relinking an existing pair is a no-op.
func (repo *VulnerabilityRepo) LinkArticle(ctx context.Context, articleID, vulnerabilityID int64) error {
	const query = `
INSERT INTO article_vulnerabilities (article_id, vulnerability_id)
VALUES ($1, $2)
ON CONFLICT (article_id, vulnerability_id) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, articleID, vulnerabilityID); err != nil {
		return fmt.Errorf("LinkArticle: %w", err)
	}
	return nil
}
