// Package audit сохраняет события аудита в БД.
//
// Recorder — обработчик для mq.Consumer: каждое событие из очереди
// audit.events превращается в строку таблицы audit_log. Вставка
// идемпотентна по ID события, поэтому повторная доставка безопасна.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Gatekeeper/internal/domain"
	"github.com/shaiso/Gatekeeper/internal/repo"
	"github.com/shaiso/Gatekeeper/internal/telemetry"
)

// Recorder сохраняет события аудита, полученные из очереди.
type Recorder struct {
	auditRepo *repo.AuditRepo
	logger    *slog.Logger
}

// NewRecorder создаёт новый Recorder.
func NewRecorder(auditRepo *repo.AuditRepo, logger *slog.Logger) *Recorder {
	return &Recorder{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record — mq.Handler: сохраняет событие в audit_log.
func (r *Recorder) Record(ctx context.Context, event *domain.AuditEvent) error {
	if err := r.auditRepo.Insert(ctx, event); err != nil {
		return fmt.Errorf("store audit event: %w", err)
	}

	telemetry.AuditEventsStored.Inc()
	r.logger.Info("audit event stored",
		"event_id", event.ID,
		"type", event.Type,
		"actor", event.Actor,
		"subject", event.Subject,
	)
	return nil
}
