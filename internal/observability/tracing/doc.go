// Package tracing provides OpenTelemetry tracing integration.
//
// HTTP requests are traced by the Middleware, which extracts W3C Trace
// Context from incoming headers and echoes the trace ID in the X-Trace-Id
// response header. Pipeline operations start their own spans from the
// shared tracer:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "ingest.run")
//	defer span.End()
package tracing
