package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"

	"github.com/mkk2026/Security.News.Scraper/internal/config"
	"github.com/mkk2026/Security.News.Scraper/internal/handler/http/respond"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/adapter/persistence/postgres"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/classifier"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/db"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/fetcher"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/scraper"
	workerPkg "github.com/mkk2026/Security.News.Scraper/internal/infra/worker"
	"github.com/mkk2026/Security.News.Scraper/internal/observability/logging"
	"github.com/mkk2026/Security.News.Scraper/internal/observability/slo"
	"github.com/mkk2026/Security.News.Scraper/internal/resilience/circuitbreaker"
	"github.com/mkk2026/Security.News.Scraper/internal/security"
	"github.com/mkk2026/Security.News.Scraper/internal/usecase/ingest"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db.StartStatsReporter(ctx, database, 15*time.Second)

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("scrape_timeout", workerConfig.ScrapeTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	startMetricsServer(ctx, logger)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	svc := setupIngestService(logger, database)
	tracker := slo.NewTracker()

	runCronWorker(ctx, logger, svc, workerConfig, workerMetrics, tracker, healthServer)
}

// initDatabase opens the connection pool and applies pending migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupIngestService wires the full scrape-and-ingest pipeline: repositories
// behind a database circuit breaker, the SSRF-validated fetch client, the
// feed scraper, and the optional content fetcher.
func setupIngestService(logger *slog.Logger, database *sql.DB) *ingest.Service {
	dbBreaker := circuitbreaker.NewDBCircuitBreaker(database)
	articleRepo := postgres.NewArticleRepo(dbBreaker)
	vulnRepo := postgres.NewVulnerabilityRepo(dbBreaker)

	fetchConfig, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Error("failed to load fetch configuration", slog.Any("error", err))
		logger.Warn("content enhancement disabled due to configuration error")
		fetchConfig = fetcher.DefaultConfig()
		fetchConfig.EnhanceContent = false
	}

	validator := security.NewURLValidator(nil)
	safeClient := fetcher.NewSafeClient(validator, fetchConfig)
	feedScraper := scraper.NewScraper(safeClient)

	var contentFetcher ingest.ContentFetcher
	if fetchConfig.EnhanceContent {
		contentFetcher = fetcher.NewReadabilityFetcher(safeClient)
		logger.Info("content enhancement enabled",
			slog.Duration("timeout", fetchConfig.Timeout),
			slog.Int("max_redirects", fetchConfig.MaxRedirects))
	} else {
		logger.Info("content enhancement disabled")
	}

	sources, err := config.LoadSourcesFromEnv()
	if err != nil {
		logger.Error("failed to load sources", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("sources loaded", slog.Int("count", len(sources)))

	return ingest.NewService(articleRepo, vulnRepo, classifier.New(), feedScraper, contentFetcher, sources)
}

// runCronWorker starts the cron scheduler and blocks until ctx is cancelled.
func runCronWorker(ctx context.Context, logger *slog.Logger, svc *ingest.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, tracker *slo.Tracker, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runScrapeJob(logger, svc, cfg, metrics, tracker)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("schedule", cfg.CronSchedule), slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	healthServer.SetReady(false)
	logger.Info("worker shutting down")

	// Let an in-flight job finish before exiting.
	stopCtx := c.Stop()
	<-stopCtx.Done()
	logger.Info("worker stopped")
}

// runScrapeJob executes a single scheduled scrape with timeout and error
// handling.
func runScrapeJob(logger *slog.Logger, svc *ingest.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, tracker *slo.Tracker) {
	startTime := time.Now()
	metrics.RecordJobRun("started")
	logger.Info("scheduled scrape started")

	// スクレイプ処理のタイムアウト（設定から取得）
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ScrapeTimeout)
	defer cancel()

	result, err := svc.Run(ctx)
	elapsed := time.Since(startTime)
	if err != nil {
		// 機密情報をマスクしてログ出力
		logger.Error("scheduled scrape failed", slog.String("error", respond.SanitizeError(err)))
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(elapsed.Seconds())
		tracker.RecordRun(false, elapsed)
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordJobDuration(elapsed.Seconds())
	metrics.RecordArticlesIngested(result.NewArticles)
	metrics.RecordLastSuccess()
	tracker.RecordRun(true, elapsed)

	logger.Info("scheduled scrape completed",
		slog.Int("new_articles", result.NewArticles),
		slog.Int("new_vulnerabilities", result.NewVulnerabilities),
		slog.Int("total_processed", result.TotalProcessed),
		slog.Duration("duration", result.Duration))
}
