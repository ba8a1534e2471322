package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shaiso/Gatekeeper/internal/domain"
)

// Handler — функция обработки события аудита.
// Возвращает error, если обработка не удалась (сообщение будет nack).
type Handler func(ctx context.Context, event *domain.AuditEvent) error

// Consumer потребляет события аудита из очереди audit.events.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	handler  Handler
	prefetch int
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, handler Handler) *Consumer {
	return &Consumer{
		conn:     conn,
		logger:   logger,
		handler:  handler,
		prefetch: 16,
	}
}

// Start запускает потребление и блокируется до отмены контекста.
// При разрыве соединения дожидается переподключения и продолжает.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.conn.ReconnectNotify():
				continue
			}
		}

		c.logger.Info("consumer started", "queue", QueueAuditEvents)

		if err := c.drain(ctx, deliveries); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries channel closed, waiting for reconnect")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.conn.ReconnectNotify():
			}
		}
	}
}

// subscribe настраивает prefetch и начинает потребление очереди.
func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, fmt.Errorf("no channel available")
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		string(QueueAuditEvents), // queue
		"",                       // consumer tag (auto-generated)
		false,                    // auto-ack (ack вручную)
		false,                    // exclusive
		false,                    // no-local
		false,                    // no-wait
		nil,                      // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

// drain обрабатывает сообщения до закрытия канала или отмены контекста.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}
			c.handle(ctx, raw)
		}
	}
}

// handle обрабатывает одно сообщение.
func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) {
	var event domain.AuditEvent
	if err := json.Unmarshal(raw.Body, &event); err != nil {
		c.logger.Error("failed to unmarshal event",
			"error", err,
			"body", string(raw.Body),
		)
		// Некорректное сообщение — в DLQ
		raw.Nack(false, false)
		return
	}

	if err := c.handler(ctx, &event); err != nil {
		c.logger.Error("handler failed",
			"event_id", event.ID,
			"type", event.Type,
			"error", err,
		)
		// Возвращаем в очередь для повторной обработки
		raw.Nack(false, true)
		return
	}

	raw.Ack(false)
}
