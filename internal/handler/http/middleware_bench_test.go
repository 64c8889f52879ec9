package http_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "github.com/mkk2026/Security.News.Scraper/internal/handler/http"
)

func benchHandler(limiter *httpHandler.RateLimiter) http.Handler {
	return limiter.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func BenchmarkRateLimiter_SameIP(b *testing.B) {
	handler := benchHandler(httpHandler.NewRateLimiter(10000, time.Minute))

	req := httptest.NewRequest(http.MethodPost, "/api/scrape", nil)
	req.RemoteAddr = "192.168.1.100:12345"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}
}

func BenchmarkRateLimiter_MultipleIPs(b *testing.B) {
	handler := benchHandler(httpHandler.NewRateLimiter(1000, time.Minute))

	ips := make([]string, 10)
	for i := range ips {
		ips[i] = fmt.Sprintf("192.168.1.%d:12345", i+1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/scrape", nil)
		req.RemoteAddr = ips[i%len(ips)]
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}
}

func BenchmarkRateLimiter_Parallel(b *testing.B) {
	handler := benchHandler(httpHandler.NewRateLimiter(1000, time.Minute))

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			req := httptest.NewRequest(http.MethodPost, "/api/scrape", nil)
			req.RemoteAddr = fmt.Sprintf("192.168.1.%d:12345", i%255)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			i++
		}
	})
}
