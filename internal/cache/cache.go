// Package cache предоставляет опциональный Redis-кэш для проверки токенов.
//
// Кэш снимает с Postgres повторные запросы при каждом аутентифицированном
// запросе: запись token:{jti} хранит владельца и его права на срок жизни
// токена. При отзыве токена запись удаляется.
//
// Кэш опционален: если REDIS_URL не задан, New возвращает nil,
// и вызывающий код работает напрямую с БД.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shaiso/Gatekeeper/internal/domain"
)

// Entry — кэшированные данные токена и его владельца.
type Entry struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Scopes   []string  `json:"scopes"`
	IsActive bool      `json:"is_active"`
}

// Cache — Redis-кэш проверенных токенов.
type Cache struct {
	rdb *redis.Client
}

// New создаёт кэш из переменной окружения REDIS_URL.
// Пустой REDIS_URL означает, что кэш выключен: возвращается (nil, nil).
func New(ctx context.Context) (*Cache, error) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Cache{rdb: rdb}, nil
}

// Close закрывает соединение с Redis.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func tokenKey(id uuid.UUID) string {
	return "gatekeeper:token:" + id.String()
}

// GetToken возвращает кэшированную запись токена.
// Вторым значением возвращается признак попадания в кэш.
// На nil-кэше всегда промах.
func (c *Cache) GetToken(ctx context.Context, id uuid.UUID) (*Entry, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, tokenKey(id)).Bytes()
	if err != nil {
		// redis.Nil и сетевые ошибки равнозначны промаху:
		// источник истины — БД
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

// SetToken кэширует запись токена до истечения его срока действия.
func (c *Cache) SetToken(ctx context.Context, token *domain.AccessToken, user *domain.User) error {
	if c == nil {
		return nil
	}
	entry := Entry{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role.String(),
		Scopes:   user.ScopeNames(),
		IsActive: user.IsActive,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	ttl := time.Until(token.ExpiresAt.Add(domain.ExpiryGrace))
	if ttl <= 0 {
		return nil
	}

	if err := c.rdb.Set(ctx, tokenKey(token.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("set token entry: %w", err)
	}
	return nil
}

// DeleteToken удаляет запись токена (при отзыве).
func (c *Cache) DeleteToken(ctx context.Context, id uuid.UUID) error {
	if c == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, tokenKey(id)).Err(); err != nil {
		return fmt.Errorf("delete token entry: %w", err)
	}
	return nil
}

// DeleteTokens удаляет записи нескольких токенов
// (при отзыве всех токенов пользователя).
func (c *Cache) DeleteTokens(ctx context.Context, ids []uuid.UUID) error {
	if c == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = tokenKey(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete token entries: %w", err)
	}
	return nil
}
