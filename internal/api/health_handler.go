package api

import (
	"context"
	"net/http"
	"time"
)

// Health проверяет доступность зависимостей сервиса.
// GET /api/v1/health
//
// При недоступной БД возвращает 503: сервис не может ни выдавать,
// ни проверять токены.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		h.logger.Error("health check failed", "error", err)
		Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "database is not available")
		return
	}

	Success(w, HealthResponse{
		Status: "healthy",
		Checks: []HealthCheck{
			{Name: "postgres", Status: "up"},
		},
	})
}
