package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the shared tracer for the scraper.
var tracer = otel.Tracer("security-news-scraper")

// GetTracer returns the shared tracer for creating spans.
func GetTracer() trace.Tracer {
	return tracer
}
