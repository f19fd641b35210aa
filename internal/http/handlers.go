package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bilancio/internal/cache"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	})
}

// handleReady checks templates and the storage backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)
	fail := func(name, reason string) {
		checks[name] = reason
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		fail("templates", "failed: templates not loaded")
	} else {
		checks["templates"] = "ok"
	}

	if s.health != nil {
		if err := s.health.Ping(ctx); err != nil {
			fail("storage", fmt.Sprintf("failed: %v", err))
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "ok"
	}

	checks["cache"] = map[string]any{
		"entries": s.snapshotStats().Size,
		"status":  "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) snapshotStats() cache.Stats {
	if s.snapshots == nil {
		return cache.Stats{}
	}
	return s.snapshots.Cache().Stats()
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.tracer.GetMetrics()
	cacheStats := s.snapshotStats()

	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_ms_avg", "gauge", "Average response time in milliseconds", traceMetrics.AverageResponseTime.Milliseconds())
	metric("writes_total", "counter", "Successful transaction, goal and reminder writes", s.savedWrites.Load())
	metric("writes_failed_total", "counter", "Rejected or failed writes", s.failedWrites.Load())
	metric("cache_hits_total", "counter", "Snapshot cache hits", cacheStats.Hits)
	metric("cache_misses_total", "counter", "Snapshot cache misses", cacheStats.Misses)
	metric("cache_entries", "gauge", "Current snapshot cache entries", cacheStats.Size)
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.startedAt).Seconds()))
}
