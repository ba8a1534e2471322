package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/shaiso/Gatekeeper/internal/domain"
	"github.com/shaiso/Gatekeeper/internal/mq"
	"github.com/shaiso/Gatekeeper/internal/repo"
	"github.com/shaiso/Gatekeeper/internal/telemetry"
)

// DefaultRetention — окно хранения отозванных токенов по умолчанию.
const DefaultRetention = 30 * 24 * time.Hour

// Sweeper отзывает истёкшие токены и удаляет старые отозванные.
type Sweeper struct {
	tokenRepo *repo.TokenRepo
	publisher *mq.Publisher
	logger    *slog.Logger
	retention time.Duration
}

// Config — конфигурация Sweeper.
type Config struct {
	TokenRepo *repo.TokenRepo
	Publisher *mq.Publisher
	Logger    *slog.Logger
	Retention time.Duration // окно хранения отозванных токенов (default: 30 дней)
}

// New создаёт новый Sweeper.
func New(cfg Config) *Sweeper {
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &Sweeper{
		tokenRepo: cfg.TokenRepo,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		retention: retention,
	}
}

// Retention возвращает окно хранения из переменной окружения
// SWEEP_RETENTION_DAYS.
func Retention() time.Duration {
	if v := os.Getenv("SWEEP_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	return DefaultRetention
}

// Tick выполняет один проход sweeper'а.
//
// 1. Отзывает токены, истёкшие к текущему моменту
// 2. Публикует события token.expired
// 3. Удаляет отозванные токены старше окна хранения
func (s *Sweeper) Tick(ctx context.Context) error {
	now := time.Now()

	expired, err := s.tokenRepo.RevokeExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("revoke expired: %w", err)
	}

	for _, id := range expired {
		event := mq.Event(domain.EventTokenExpired, "", id.String(), nil)
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			// Аудит не должен блокировать отзыв
			s.logger.Warn("failed to publish audit event",
				"token_id", id,
				"error", err,
			)
		}
	}
	if len(expired) > 0 {
		telemetry.TokensRevoked.WithLabelValues("expired").Add(float64(len(expired)))
	}

	purged, err := s.tokenRepo.PurgeRevoked(ctx, now.Add(-s.retention))
	if err != nil {
		return fmt.Errorf("purge revoked: %w", err)
	}

	telemetry.SweepsTotal.Inc()
	s.logger.Info("sweep completed",
		"revoked", len(expired),
		"purged", purged,
	)
	return nil
}
