package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/Gatekeeper/internal/domain"
)

// Publisher публикует события аудита в RabbitMQ.
//
// Nil-Publisher безопасен: все методы публикации превращаются в no-op.
// Это позволяет запускать сервис без RabbitMQ (MQ_URL не задан).
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// PublishEvent публикует событие аудита.
// Ошибка публикации не должна ломать основную операцию:
// вызывающий код логирует её и продолжает.
func (p *Publisher) PublishEvent(ctx context.Context, event *domain.AuditEvent) error {
	if p == nil {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch := p.conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	err = ch.PublishWithContext(
		ctx,
		string(ExchangeAudit),
		string(RoutingKeyEvent),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // событие переживёт рестарт RabbitMQ
			MessageId:    event.ID.String(),
			Timestamp:    event.CreatedAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}

	p.logger.Debug("published audit event",
		"event_id", event.ID,
		"type", event.Type,
	)
	return nil
}

// Event создаёт событие аудита с заполненными ID и временем.
func Event(eventType domain.EventType, actor, subject string, payload map[string]any) *domain.AuditEvent {
	return &domain.AuditEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Actor:     actor,
		Subject:   subject,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}
