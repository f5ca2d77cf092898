package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// appMetrics counts dashboard activity for /metrics.
type appMetrics struct {
	uploads             atomic.Int64
	categoriesCreated   atomic.Int64
	transactionsCreated atomic.Int64
	exports             atomic.Int64
	renderErrors        atomic.Int64
	startedAt           time.Time
}

func newAppMetrics(now time.Time) *appMetrics {
	return &appMetrics{startedAt: now}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleReady reports 503 until the backend answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	res := readiness{Status: "ready", Checks: map[string]string{"templates": "ok"}}
	status := http.StatusOK

	if s.backend != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.backend.Ping(ctx); err != nil {
			res.Checks["backend"] = err.Error()
			res.Status = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			res.Checks["backend"] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	sessions := s.sessions.Stats()
	snap := s.store.Snapshot()
	uptime := s.now().Sub(s.appMetrics.startedAt)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_avg_ms Average response time in milliseconds\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_ms gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_ms %.3f\n\n", float64(traceMetrics.AverageResponseTime)/1000)

	fmt.Fprintf(w, "# HELP transactions_loaded Transactions held in memory\n")
	fmt.Fprintf(w, "# TYPE transactions_loaded gauge\n")
	fmt.Fprintf(w, "transactions_loaded %d\n\n", len(snap.Transactions))

	fmt.Fprintf(w, "# HELP categories_loaded Categories held in memory\n")
	fmt.Fprintf(w, "# TYPE categories_loaded gauge\n")
	fmt.Fprintf(w, "categories_loaded %d\n\n", len(snap.Categories))

	fmt.Fprintf(w, "# HELP backend_requests_in_flight Backend operations in progress\n")
	fmt.Fprintf(w, "# TYPE backend_requests_in_flight gauge\n")
	fmt.Fprintf(w, "backend_requests_in_flight %d\n\n", snap.InFlight)

	fmt.Fprintf(w, "# HELP uploads_total Statement uploads accepted\n")
	fmt.Fprintf(w, "# TYPE uploads_total counter\n")
	fmt.Fprintf(w, "uploads_total %d\n\n", s.appMetrics.uploads.Load())

	fmt.Fprintf(w, "# HELP created_total Records created from the dashboard\n")
	fmt.Fprintf(w, "# TYPE created_total counter\n")
	fmt.Fprintf(w, "created_total{type=\"category\"} %d\n", s.appMetrics.categoriesCreated.Load())
	fmt.Fprintf(w, "created_total{type=\"transaction\"} %d\n\n", s.appMetrics.transactionsCreated.Load())

	fmt.Fprintf(w, "# HELP exports_total Export artifacts produced\n")
	fmt.Fprintf(w, "# TYPE exports_total counter\n")
	fmt.Fprintf(w, "exports_total %d\n\n", s.appMetrics.exports.Load())

	fmt.Fprintf(w, "# HELP template_errors_total Template rendering failures\n")
	fmt.Fprintf(w, "# TYPE template_errors_total counter\n")
	fmt.Fprintf(w, "template_errors_total %d\n\n", s.appMetrics.renderErrors.Load())

	fmt.Fprintf(w, "# HELP sessions_active Live dashboard sessions\n")
	fmt.Fprintf(w, "# TYPE sessions_active gauge\n")
	fmt.Fprintf(w, "sessions_active %d\n\n", sessions.Active)

	fmt.Fprintf(w, "# HELP sessions_evicted_total Sessions expired or evicted\n")
	fmt.Fprintf(w, "# TYPE sessions_evicted_total counter\n")
	fmt.Fprintf(w, "sessions_evicted_total %d\n\n", sessions.Evicted)

	fmt.Fprintf(w, "# HELP rate_limit_rejected_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_rejected_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejected_total %d\n\n", limitMetrics.Rejected)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", limitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", s.detector.SuspiciousRequests())

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}
