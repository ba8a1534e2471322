package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики HTTP API.
var (
	// HTTPRequests — счётчик HTTP запросов по методу и статусу ответа.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_http_requests_total",
		Help: "Total HTTP requests by method and status code",
	}, []string{"method", "status"})

	// HTTPDuration — гистограмма времени обработки запросов.
	HTTPDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gatekeeper_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// Метрики жизненного цикла токенов.
var (
	// TokensIssued — счётчик выданных токенов.
	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_tokens_issued_total",
		Help: "Total access tokens issued",
	})

	// TokensRevoked — счётчик отозванных токенов по причине отзыва.
	// reason: password_change, admin, expired
	TokensRevoked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_tokens_revoked_total",
		Help: "Total access tokens revoked by reason",
	}, []string{"reason"})

	// AuthFailures — счётчик отказов аутентификации по причине.
	// reason: credentials, token_invalid, token_expired, token_revoked, user_inactive
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatekeeper_auth_failures_total",
		Help: "Total authentication failures by reason",
	}, []string{"reason"})
)

// Метрики фоновой обработки.
var (
	// SweepsTotal — счётчик выполненных тиков sweeper'а.
	SweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_sweeps_total",
		Help: "Total sweeper ticks executed",
	})

	// AuditEventsStored — счётчик сохранённых событий аудита.
	AuditEventsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gatekeeper_audit_events_stored_total",
		Help: "Total audit events persisted by the auditor",
	})
)
