package mq

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// maxReconnectDelay — верхняя граница задержки переподключения.
const maxReconnectDelay = 30 * time.Second

// Connection — обёртка над AMQP соединением с автоматическим reconnect.
type Connection struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool

	closedCh    chan struct{}
	reconnectCh chan struct{}
}

// URL возвращает адрес RabbitMQ из переменной окружения MQ_URL.
// Пустое значение означает, что шина аудита выключена.
func URL() string {
	return os.Getenv("MQ_URL")
}

// Connect устанавливает соединение с RabbitMQ и следит за его состоянием.
func Connect(url string, logger *slog.Logger) (*Connection, error) {
	c := &Connection{
		url:         url,
		logger:      logger,
		closedCh:    make(chan struct{}),
		reconnectCh: make(chan struct{}, 1),
	}

	if err := c.dial(); err != nil {
		return nil, err
	}

	go c.watch()

	return c, nil
}

// dial открывает соединение и канал.
func (c *Connection) dial() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = ch
	c.mu.Unlock()

	c.logger.Info("connected to RabbitMQ")
	return nil
}

// watch переподключается при разрыве соединения
// с экспоненциальной задержкой.
func (c *Connection) watch() {
	for {
		c.mu.RLock()
		conn := c.conn
		closed := c.closed
		c.mu.RUnlock()

		if closed {
			return
		}

		notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-c.closedCh:
			return
		case amqpErr := <-notifyClose:
			if amqpErr != nil {
				c.logger.Warn("connection lost", "error", amqpErr)
			}
		}

		delay := time.Second
		for {
			select {
			case <-c.closedCh:
				return
			case <-time.After(delay):
			}

			if err := c.dial(); err != nil {
				c.logger.Warn("reconnect failed", "error", err, "next_delay", delay)
				delay = min(delay*2, maxReconnectDelay)
				continue
			}

			select {
			case c.reconnectCh <- struct{}{}:
			default:
			}
			break
		}
	}
}

// Channel возвращает текущий AMQP канал (nil, если соединение разорвано).
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// ReconnectNotify возвращает канал уведомлений о переподключении.
func (c *Connection) ReconnectNotify() <-chan struct{} {
	return c.reconnectCh
}

// Close закрывает соединение.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.closedCh)

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}

	c.logger.Info("connection closed")
	return nil
}
