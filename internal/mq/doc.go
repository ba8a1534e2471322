// Package mq предоставляет шину событий аудита поверх RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange, очередей и bindings
//   - publisher.go  — публикация событий аудита
//   - consumer.go   — потребление событий (auditor)
//
// Топология:
//   - gatekeeper.audit (direct)
//     └── audit.events [routing: event] — потребляет auditor, DLQ: audit.dead
//   - gatekeeper.dlq (direct)
//     └── audit.dead [routing: dead]   — некорректные сообщения, ручной разбор
package mq
