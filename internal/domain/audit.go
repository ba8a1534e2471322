package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType — тип события аудита.
type EventType string

// Типы событий аудита.
const (
	EventTokenIssued     EventType = "token.issued"
	EventTokenRevoked    EventType = "token.revoked"
	EventTokenExpired    EventType = "token.expired"
	EventUserCreated     EventType = "user.created"
	EventUserUpdated     EventType = "user.updated"
	EventUserRoleChanged EventType = "user.role_changed"
	EventPasswordChanged EventType = "password.changed"
)

// AuditEvent — событие аудита, публикуемое в очередь и сохраняемое
// auditor'ом в таблицу audit_log.
type AuditEvent struct {
	// ID — уникальный идентификатор события.
	ID uuid.UUID `json:"id"`

	// Type — тип события.
	Type EventType `json:"type"`

	// Actor — username инициатора (пустой для системных событий,
	// например token.expired от sweeper'а).
	Actor string `json:"actor,omitempty"`

	// Subject — username или идентификатор объекта события.
	Subject string `json:"subject,omitempty"`

	// Payload — дополнительные данные события.
	Payload map[string]any `json:"payload,omitempty"`

	// CreatedAt — время события.
	CreatedAt time.Time `json:"created_at"`
}
