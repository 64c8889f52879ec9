package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/mkk2026/Security.News.Scraper/internal/handler/http/requestid"
	"github.com/mkk2026/Security.News.Scraper/internal/handler/http/respond"
	"github.com/mkk2026/Security.News.Scraper/internal/usecase/ingest"
)

// IngestRunner runs a full scrape-and-ingest pass. Implemented by
// ingest.Service.
type IngestRunner interface {
	Run(ctx context.Context) (*ingest.RunResult, error)
}

// ScrapeResponse is the JSON body returned by a successful scrape trigger.
type ScrapeResponse struct {
	NewArticles        int   `json:"newArticles"`
	NewVulnerabilities int   `json:"newVulnerabilities"`
	TotalProcessed     int   `json:"totalProcessed"`
	DurationMs         int64 `json:"durationMs"`
}

// ScrapeHandler triggers an ingestion run on demand. Only one run may be in
// flight at a time; overlapping triggers get a 409.
type ScrapeHandler struct {
	Runner  IngestRunner
	Logger  *slog.Logger
	running atomic.Bool
}

// NewScrapeHandler creates a ScrapeHandler.
func NewScrapeHandler(runner IngestRunner, logger *slog.Logger) *ScrapeHandler {
	return &ScrapeHandler{Runner: runner, Logger: logger}
}

// ServeHTTP runs the pipeline synchronously and reports aggregate counts.
// Per-source and per-item failures do not fail the request; callers consult
// the logs for that detail.
func (h *ScrapeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.SafeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	if !h.running.CompareAndSwap(false, true) {
		respond.SafeError(w, http.StatusConflict, fmt.Errorf("scrape already in progress"))
		return
	}
	defer h.running.Store(false)

	reqID := requestid.FromContext(r.Context())
	h.Logger.Info("manual scrape triggered",
		slog.String("request_id", reqID),
		slog.String("remote_addr", r.RemoteAddr))

	result, err := h.Runner.Run(r.Context())
	if err != nil {
		h.Logger.Error("scrape run failed",
			slog.String("request_id", reqID),
			slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, ScrapeResponse{
		NewArticles:        result.NewArticles,
		NewVulnerabilities: result.NewVulnerabilities,
		TotalProcessed:     result.TotalProcessed,
		DurationMs:         result.Duration.Milliseconds(),
	})
}
