package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Gatekeeper/internal/domain"
)

// AuditRepo — репозиторий для таблицы audit_log.
type AuditRepo struct {
	pool *pgxpool.Pool
}

// NewAuditRepo создаёт новый AuditRepo.
func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Insert сохраняет событие аудита.
// Повторная вставка события с тем же ID игнорируется:
// auditor может получить одно сообщение дважды (at-least-once delivery).
func (r *AuditRepo) Insert(ctx context.Context, event *domain.AuditEvent) error {
	var payload []byte
	if event.Payload != nil {
		var err error
		payload, err = json.Marshal(event.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (id, event_type, actor, subject, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`,
		event.ID,
		event.Type,
		event.Actor,
		event.Subject,
		payload,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent возвращает последние события аудита.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, event_type, actor, subject, payload, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		var payload []byte
		if err := rows.Scan(
			&event.ID,
			&event.Type,
			&event.Actor,
			&event.Subject,
			&payload,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
