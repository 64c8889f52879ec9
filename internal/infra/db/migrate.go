package db

import (
	"database/sql"
)

// MigrateUp creates the schema. Statements are idempotent so repeated runs
// on an already-migrated database are safe.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id             SERIAL PRIMARY KEY,
    url            TEXT NOT NULL UNIQUE,
    title          TEXT NOT NULL,
    summary        TEXT,
    body           TEXT,
    source_id      TEXT NOT NULL,
    source_name    TEXT NOT NULL,
    published_at   TIMESTAMPTZ NOT NULL,
    scraped_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    content_hash   TEXT NOT NULL,
    severity_score DOUBLE PRECISION,
    severity_level VARCHAR(16)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS vulnerabilities (
    id          SERIAL PRIMARY KEY,
    external_id TEXT NOT NULL UNIQUE,
    cvss_score  DOUBLE PRECISION,
    severity    VARCHAR(16)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS article_vulnerabilities (
    article_id       INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
    vulnerability_id INTEGER NOT NULL REFERENCES vulnerabilities(id) ON DELETE CASCADE,
    PRIMARY KEY (article_id, vulnerability_id)
)`); err != nil {
		return err
	}

	indexes := []string{
		// Recent-window and listing queries order by published_at DESC.
		`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_source_id ON articles(source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_content_hash ON articles(content_hash)`,
		// Reverse lookups from a vulnerability to its articles.
		`CREATE INDEX IF NOT EXISTS idx_article_vulnerabilities_vuln ON article_vulnerabilities(vulnerability_id)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the schema in reverse dependency order.
// Use with caution: this deletes all data.
func MigrateDown(db *sql.DB) error {
	statements := []string{
		`DROP TABLE IF EXISTS article_vulnerabilities`,
		`DROP TABLE IF EXISTS vulnerabilities`,
		`DROP TABLE IF EXISTS articles`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
