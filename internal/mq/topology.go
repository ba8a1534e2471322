package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeAudit Exchange = "gatekeeper.audit"
	ExchangeDLQ   Exchange = "gatekeeper.dlq"
)

// Queues — имена очередей.
const (
	QueueAuditEvents Queue = "audit.events"
	QueueAuditDead   Queue = "audit.dead"
)

// Routing keys.
const (
	RoutingKeyEvent RoutingKey = "event"
	RoutingKeyDead  RoutingKey = "dead"
)

// SetupTopology объявляет exchange, очереди и bindings шины аудита.
// Идемпотентна, выполняется каждым бинарником при старте.
func SetupTopology(conn *Connection) error {
	ch := conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	for _, ex := range []Exchange{ExchangeAudit, ExchangeDLQ} {
		err := ch.ExchangeDeclare(
			string(ex), // name
			"direct",   // type
			true,       // durable
			false,      // auto-deleted
			false,      // internal
			false,      // no-wait
			nil,        // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}

	// audit.events — с DLQ для некорректных сообщений
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDead),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{QueueAuditEvents, dlqArgs},
		{QueueAuditDead, nil},
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueAuditEvents, RoutingKeyEvent, ExchangeAudit},
		{QueueAuditDead, RoutingKeyDead, ExchangeDLQ},
	}
	for _, b := range bindings {
		if err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}
