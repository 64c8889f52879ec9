// Package ingest implements the scrape-and-persist pipeline: it collects
// scraped items, filters duplicates against the store and within the batch,
// classifies survivors, and persists articles with their vulnerability
// associations.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkk2026/Security.News.Scraper/internal/domain/entity"
	"github.com/mkk2026/Security.News.Scraper/internal/observability/metrics"
	"github.com/mkk2026/Security.News.Scraper/internal/observability/tracing"
	"github.com/mkk2026/Security.News.Scraper/internal/repository"
)

// recentWindowSize bounds how many recently published articles are loaded
// for near-duplicate comparison.
const recentWindowSize = 100

// Service orchestrates scraping and ingestion.
type Service struct {
	ArticleRepo    repository.ArticleRepository
	VulnRepo       repository.VulnerabilityRepository
	Classifier     ContentClassifier
	Scraper        SourceScraper
	ContentFetcher ContentFetcher // optional, nil disables content enhancement
	Sources        []entity.Source
}

// NewService creates an ingest Service with the provided dependencies.
// ContentFetcher may be nil to disable full-page content enhancement.
func NewService(
	articleRepo repository.ArticleRepository,
	vulnRepo repository.VulnerabilityRepository,
	classifier ContentClassifier,
	scraper SourceScraper,
	contentFetcher ContentFetcher,
	sources []entity.Source,
) *Service {
	return &Service{
		ArticleRepo:    articleRepo,
		VulnRepo:       vulnRepo,
		Classifier:     classifier,
		Scraper:        scraper,
		ContentFetcher: contentFetcher,
		Sources:        sources,
	}
}

// IngestResult aggregates what a single Ingest call created.
type IngestResult struct {
	NewArticles        int
	NewVulnerabilities int
}

// RunResult aggregates a full scrape-and-ingest run.
type RunResult struct {
	NewArticles        int
	NewVulnerabilities int
	TotalProcessed     int
	Duration           time.Duration
}

// Run scrapes all configured sources and ingests the results.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "ingest.run")
	defer span.End()

	start := time.Now()
	items := s.Scraper.ScrapeAllSources(ctx, s.Sources)

	res, err := s.Ingest(ctx, items)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	metrics.RecordIngestRun(duration)
	if total, err := s.ArticleRepo.CountArticles(ctx); err == nil {
		metrics.UpdateArticlesTotal(int(total))
	}

	slog.Info("ingest run complete",
		slog.Int("total_processed", len(items)),
		slog.Int("new_articles", res.NewArticles),
		slog.Int("new_vulnerabilities", res.NewVulnerabilities),
		slog.Duration("duration", duration))

	return &RunResult{
		NewArticles:        res.NewArticles,
		NewVulnerabilities: res.NewVulnerabilities,
		TotalProcessed:     len(items),
		Duration:           duration,
	}, nil
}

// Ingest persists new articles from a batch of scraped items.
//
// Duplicate checks run in three layers: a single batched URL existence
// query, a comparison against a bounded window of recently published
// articles, and the same window grown with each acceptance so that two
// sources mirroring one story within the batch collapse to one article.
// Items are processed strictly in input order; a failure on one item skips
// that item only.
func (s *Service) Ingest(ctx context.Context, items []entity.ScrapedItem) (*IngestResult, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "ingest.batch")
	defer span.End()

	res := &IngestResult{}
	if len(items) == 0 {
		return res, nil
	}

	urls := make([]string, len(items))
	for i, item := range items {
		urls[i] = item.URL
	}
	existing, err := s.ArticleRepo.ExistsByURLBatch(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("batch URL existence check: %w", err)
	}

	window, err := s.ArticleRepo.ListRecentDigests(ctx, recentWindowSize)
	if err != nil {
		return nil, fmt.Errorf("load recent article window: %w", err)
	}

	for _, item := range items {
		if existing[item.URL] {
			metrics.RecordDuplicateSkipped("url")
			continue
		}

		if s.inWindow(window, item) {
			slog.Info("duplicate article detected",
				slog.String("title", item.Title),
				slog.String("url", item.URL))
			metrics.RecordDuplicateSkipped("content")
			continue
		}

		article, newVulns, err := s.processItem(ctx, item)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				// Lost a race with a concurrent run; the article exists now.
				metrics.RecordDuplicateSkipped("url")
				continue
			}
			slog.Error("failed to ingest item",
				slog.String("title", item.Title),
				slog.String("url", item.URL),
				slog.Any("error", err))
			continue
		}

		res.NewArticles++
		res.NewVulnerabilities += newVulns
		metrics.RecordArticleIngested()

		// Newly accepted items join the front of the window so later items
		// in this batch are checked against them too.
		window = append([]repository.ArticleDigest{{
			Title:   article.Title,
			Summary: article.Summary,
		}}, window...)
	}

	return res, nil
}

func (s *Service) inWindow(window []repository.ArticleDigest, item entity.ScrapedItem) bool {
	for _, recent := range window {
		if s.Classifier.IsDuplicateArticle(recent.Title, recent.Summary, item.Title, item.Summary) {
			return true
		}
	}
	return false
}

// processItem classifies and persists one scraped item, returning the stored
// article and how many vulnerability records were newly created for it.
func (s *Service) processItem(ctx context.Context, item entity.ScrapedItem) (*entity.Article, int, error) {
	body := item.Body
	if body == "" && s.ContentFetcher != nil {
		start := time.Now()
		text, err := s.ContentFetcher.FetchContent(ctx, item.URL)
		if err != nil {
			// Fall back to the feed-provided summary.
			slog.Warn("content fetch failed, using feed summary",
				slog.String("url", item.URL),
				slog.Any("error", err))
			metrics.RecordContentFetchFailed(time.Since(start))
		} else {
			body = text
			metrics.RecordContentFetchSuccess(time.Since(start))
		}
	} else if body != "" {
		metrics.RecordContentFetchSkipped()
	}

	analysis := s.Classifier.AnalyzeContent(item.Title, item.Summary, body)
	hash := s.Classifier.HashContent(item.Title + " " + item.Summary)

	article := &entity.Article{
		URL:           item.URL,
		Title:         item.Title,
		Summary:       item.Summary,
		Body:          body,
		SourceID:      item.SourceID,
		SourceName:    item.SourceName,
		PublishedAt:   item.PublishedAt,
		ScrapedAt:     time.Now(),
		ContentHash:   hash,
		SeverityScore: analysis.SeverityScore,
		SeverityLevel: analysis.SeverityLevel,
	}
	if err := s.ArticleRepo.Create(ctx, article); err != nil {
		return nil, 0, err
	}

	slog.Info("created article",
		slog.String("title", article.Title),
		slog.String("source_id", article.SourceID),
		slog.String("severity", article.SeverityLevel))

	newVulns := 0
	for _, ref := range analysis.Vulnerabilities {
		created, err := s.attachVulnerability(ctx, article.ID, ref)
		if err != nil {
			// One bad identifier must not lose the rest.
			slog.Error("failed to attach vulnerability",
				slog.String("external_id", ref.ExternalID),
				slog.Int64("article_id", article.ID),
				slog.Any("error", err))
			continue
		}
		newVulns += created
	}

	return article, newVulns, nil
}

// attachVulnerability upserts the vulnerability record by its external ID
// and links it to the article. Returns 1 if a new record was created.
func (s *Service) attachVulnerability(ctx context.Context, articleID int64, ref VulnerabilityRef) (int, error) {
	vuln, err := s.VulnRepo.GetByExternalID(ctx, ref.ExternalID)
	if err != nil {
		return 0, fmt.Errorf("look up %s: %w", ref.ExternalID, err)
	}

	created := 0
	if vuln == nil {
		candidate := &entity.Vulnerability{
			ExternalID: ref.ExternalID,
			CVSSScore:  ref.CVSSScore,
			Severity:   ref.Severity,
		}
		switch err := s.VulnRepo.Create(ctx, candidate); {
		case err == nil:
			vuln = candidate
			created = 1
			metrics.RecordVulnerabilityIngested()
			slog.Info("created vulnerability record",
				slog.String("external_id", ref.ExternalID))
		case errors.Is(err, repository.ErrDuplicate):
			// A concurrent run created it between lookup and insert.
			vuln, err = s.VulnRepo.GetByExternalID(ctx, ref.ExternalID)
			if err != nil {
				return 0, fmt.Errorf("re-fetch %s after duplicate: %w", ref.ExternalID, err)
			}
			if vuln == nil {
				return 0, fmt.Errorf("vulnerability %s vanished after duplicate insert", ref.ExternalID)
			}
		default:
			return 0, fmt.Errorf("create %s: %w", ref.ExternalID, err)
		}
	}

	if err := s.VulnRepo.LinkArticle(ctx, articleID, vuln.ID); err != nil {
		return created, fmt.Errorf("link article %d to %s: %w", articleID, ref.ExternalID, err)
	}
	return created, nil
}
