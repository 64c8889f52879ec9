package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkk2026/Security.News.Scraper/internal/config"
	hhttp "github.com/mkk2026/Security.News.Scraper/internal/handler/http"
	"github.com/mkk2026/Security.News.Scraper/internal/handler/http/requestid"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/adapter/persistence/postgres"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/classifier"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/db"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/fetcher"
	"github.com/mkk2026/Security.News.Scraper/internal/infra/scraper"
	"github.com/mkk2026/Security.News.Scraper/internal/observability/logging"
	"github.com/mkk2026/Security.News.Scraper/internal/observability/tracing"
	"github.com/mkk2026/Security.News.Scraper/internal/resilience/circuitbreaker"
	"github.com/mkk2026/Security.News.Scraper/internal/security"
	"github.com/mkk2026/Security.News.Scraper/internal/usecase/ingest"
	pkgconfig "github.com/mkk2026/Security.News.Scraper/pkg/config"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	adminToken := loadAdminToken(logger)
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db.StartStatsReporter(ctx, database, 15*time.Second)

	version := getVersion()
	pipeline := setupIngestPipeline(logger, database)
	handler := setupRoutes(logger, database, version, adminToken, pipeline)

	runServer(ctx, logger, handler, version)
}

// loadAdminToken validates the ADMIN_API_TOKEN at startup so the server never
// runs with an empty or guessable token guarding the scrape endpoint.
func loadAdminToken(logger *slog.Logger) string {
	token := os.Getenv("ADMIN_API_TOKEN")
	if token == "" {
		logger.Error("ADMIN_API_TOKEN must be set")
		os.Exit(1)
	}
	// セキュリティ: 最小32文字（256ビット）を強制
	if len(token) < 32 {
		logger.Error("ADMIN_API_TOKEN must be at least 32 characters (256 bits)")
		os.Exit(1)
	}
	weakTokens := []string{"secret", "password", "test", "admin", "default"}
	for _, weak := range weakTokens {
		if token == weak || token == weak+"123" {
			logger.Error("ADMIN_API_TOKEN must not be a common weak value", slog.String("weak_value", weak))
			os.Exit(1)
		}
	}
	return token
}

// initDatabase opens the database connection and runs migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// ingestPipeline bundles the ingest service with the fetch components whose
// circuit breaker states feed the health endpoint.
type ingestPipeline struct {
	service        *ingest.Service
	feedScraper    *scraper.Scraper
	contentFetcher *fetcher.ReadabilityFetcher // nil when content enhancement is off
}

// setupIngestPipeline wires the scrape-and-ingest pipeline used by the manual
// scrape endpoint: repositories behind a database circuit breaker, the
// SSRF-validated fetch client, the feed scraper, and the optional content
// fetcher.
func setupIngestPipeline(logger *slog.Logger, database *sql.DB) *ingestPipeline {
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

	var contentFetcher *fetcher.ReadabilityFetcher
	var fetcherIface ingest.ContentFetcher
	if fetchConfig.EnhanceContent {
		contentFetcher = fetcher.NewReadabilityFetcher(safeClient)
		fetcherIface = contentFetcher
		logger.Info("content enhancement enabled")
	} else {
		logger.Info("content enhancement disabled")
	}

	sources, err := config.LoadSourcesFromEnv()
	if err != nil {
		logger.Error("failed to load sources", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("sources loaded", slog.Int("count", len(sources)))

	return &ingestPipeline{
		service:        ingest.NewService(articleRepo, vulnRepo, classifier.New(), feedScraper, fetcherIface, sources),
		feedScraper:    feedScraper,
		contentFetcher: contentFetcher,
	}
}

// setupRoutes registers all HTTP routes and applies the middleware chain.
func setupRoutes(logger *slog.Logger, database *sql.DB, version, adminToken string, pipeline *ingestPipeline) http.Handler {
	health := &hhttp.HealthHandler{
		DB:          database,
		Version:     version,
		FeedBreaker: pipeline.feedScraper,
	}
	if pipeline.contentFetcher != nil {
		health.ContentBreaker = pipeline.contentFetcher
	}

	// レート制限: スクレイプエンドポイントは1分間に10リクエストまで
	scrapeLimiter := hhttp.NewRateLimiter(10, 1*time.Minute)
	scrapeTimeout := pkgconfig.GetEnvDuration("SCRAPE_TIMEOUT", 15*time.Minute)

	var scrapeRoute http.Handler = hhttp.NewScrapeHandler(pipeline.service, logger)
	scrapeRoute = hhttp.BearerAuth(adminToken)(scrapeRoute)
	scrapeRoute = scrapeLimiter.Limit(scrapeRoute)
	scrapeRoute = hhttp.Timeout(scrapeTimeout)(scrapeRoute)

	mux := http.NewServeMux()
	mux.Handle("/healthz", health)
	mux.Handle("/healthz/ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("/healthz/live", &hhttp.LiveHandler{})
	mux.Handle("/metrics", hhttp.MetricsHandler())
	mux.Handle("/api/scrape", scrapeRoute)

	return applyMiddleware(logger, mux)
}

// applyMiddleware wraps the handler with the global middleware chain.
// Order: Request ID -> Tracing -> Logging -> Recovery -> Metrics -> Body Limit
func applyMiddleware(logger *slog.Logger, handler http.Handler) http.Handler {
	chain := handler

	// Apply in reverse order (innermost to outermost)
	chain = hhttp.LimitRequestBody(1 << 20)(chain) // 1MB limit
	chain = hhttp.MetricsMiddleware(chain)
	chain = hhttp.Recover(logger)(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = tracing.Middleware(chain)
	chain = requestid.Middleware(chain)

	return chain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(ctx context.Context, logger *slog.Logger, handler http.Handler, version string) {
	addr := fmt.Sprintf(":%d", pkgconfig.GetEnvInt("PORT", 8080))

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
