// Package api exposes the HTTP surface: batch registry, custody and pricing
// writes, payment settlement endpoints, and the verification queue.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agritruth/trace/internal/custody"
	"github.com/agritruth/trace/internal/domain"
	"github.com/agritruth/trace/internal/ledger"
	"github.com/agritruth/trace/internal/moderation"
	"github.com/agritruth/trace/internal/payments"
	"github.com/agritruth/trace/internal/registry"
	"github.com/agritruth/trace/internal/settlement"
	"github.com/agritruth/trace/internal/verification"
)

// Metrics
var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trace_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trace_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

type Handler struct {
	ledger        ledger.Client
	projection    *registry.Projection
	engine        *custody.Engine
	reconciler    *settlement.Reconciler
	payments      payments.Provider
	queue        *moderation.Queue
	verification *verification.Service
	log          *slog.Logger
}

func NewHandler(
	l ledger.Client,
	projection *registry.Projection,
	engine *custody.Engine,
	reconciler *settlement.Reconciler,
	provider payments.Provider,
	queue *moderation.Queue,
	verifier *verification.Service,
	log *slog.Logger,
) *Handler {
	return &Handler{
		ledger:       l,
		projection:   projection,
		engine:       engine,
		reconciler:   reconciler,
		payments:     provider,
		queue:        queue,
		verification: verifier,
		log:          log,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "GET", "/health")
}

// Helpers
func (h *Handler) respondJSON(w http.ResponseWriter, code int, payload interface{}, method, endpoint string) {
	httpReqTotal.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func (h *Handler) respondError(w http.ResponseWriter, code int, msg, method, endpoint string) {
	h.respondJSON(w, code, map[string]string{"error": msg}, method, endpoint)
}

// respondDomainError maps a service error onto an HTTP status.
func (h *Handler) respondDomainError(w http.ResponseWriter, err error, method, endpoint string) {
	h.respondError(w, statusFor(err), err.Error(), method, endpoint)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransitionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidLedgerTarget):
		return http.StatusBadRequest
	case errors.Is(err, settlement.ErrInvalidSignal):
		return http.StatusBadRequest
	case errors.Is(err, settlement.ErrNotPaid):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrWriteRejected):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
