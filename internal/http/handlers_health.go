package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.started).Round(time.Second).String(),
	})
}

// handleReady reports whether templates are loaded and caches are sane.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil || s.templates.Lookup("workspace") == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	checks["sessions"] = map[string]any{"active": s.sessions.Len(), "status": "ok"}
	checks["downloads"] = map[string]any{"pending": s.downloads.Size(), "status": "ok"}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.limiter.GetMetrics()

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}

	w.WriteHeader(http.StatusOK)
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("charts_generated_total", "counter", "Successful generate requests", atomic.LoadInt64(&s.appMetrics.generated))
	metric("charts_rejected_total", "counter", "Generate requests that failed validation", atomic.LoadInt64(&s.appMetrics.generateFailed))
	metric("chart_exports_total", "counter", "Successful chart exports", atomic.LoadInt64(&s.appMetrics.exports))
	metric("chart_export_failures_total", "counter", "Failed chart exports", atomic.LoadInt64(&s.appMetrics.exportFailures))
	metric("chart_downloads_total", "counter", "Exported charts fetched by the browser", atomic.LoadInt64(&s.appMetrics.downloads))
	metric("sessions_active", "gauge", "Live sessions", s.sessions.Len())
	metric("downloads_pending", "gauge", "Exports waiting to be downloaded", s.downloads.Size())
	metric("rate_limit_rejections_total", "counter", "Export requests rejected by the rate limiter", rateLimitMetrics.Rejected)
	metric("rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.appMetrics.started).Seconds()))
}
