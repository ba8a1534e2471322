package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Gatekeeper/internal/domain"
)

// TokenRepo — репозиторий для работы с access_tokens.
type TokenRepo struct {
	pool *pgxpool.Pool
}

// NewTokenRepo создаёт новый TokenRepo.
func NewTokenRepo(pool *pgxpool.Pool) *TokenRepo {
	return &TokenRepo{pool: pool}
}

// Create сохраняет запись о выданном токене.
func (r *TokenRepo) Create(ctx context.Context, token *domain.AccessToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO access_tokens (id, user_id, issued_at, expires_at, is_revoked)
		VALUES ($1, $2, $3, $4, FALSE)
	`, token.ID, token.UserID, token.IssuedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByID возвращает токен по ID (jti).
func (r *TokenRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccessToken, error) {
	var token domain.AccessToken
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, issued_at, expires_at, is_revoked, revoked_at
		FROM access_tokens
		WHERE id = $1
	`, id).Scan(
		&token.ID,
		&token.UserID,
		&token.IssuedAt,
		&token.ExpiresAt,
		&token.IsRevoked,
		&token.RevokedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return &token, nil
}

// ListByUser возвращает токены пользователя, новые первыми.
func (r *TokenRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.AccessToken, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, issued_at, expires_at, is_revoked, revoked_at
		FROM access_tokens
		WHERE user_id = $1
		ORDER BY issued_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.AccessToken
	for rows.Next() {
		var token domain.AccessToken
		if err := rows.Scan(
			&token.ID,
			&token.UserID,
			&token.IssuedAt,
			&token.ExpiresAt,
			&token.IsRevoked,
			&token.RevokedAt,
		); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// Revoke отзывает токен. Повторный отзыв возвращает ErrInvalidState.
func (r *TokenRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE access_tokens
		SET is_revoked = TRUE, revoked_at = NOW()
		WHERE id = $1 AND NOT is_revoked
	`, id)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Либо нет такого токена, либо уже отозван
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidState
	}
	return nil
}

// RevokeAllForUser отзывает все действующие токены пользователя.
// Возвращает идентификаторы отозванных токенов.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE access_tokens
		SET is_revoked = TRUE, revoked_at = NOW()
		WHERE user_id = $1 AND NOT is_revoked
		RETURNING id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("revoke user tokens: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan token id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RevokeExpired отзывает токены, истёкшие (с учётом льготного периода)
// к моменту now. Возвращает идентификаторы отозванных токенов.
func (r *TokenRepo) RevokeExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE access_tokens
		SET is_revoked = TRUE, revoked_at = NOW()
		WHERE NOT is_revoked AND expires_at < $1
		RETURNING id
	`, now.Add(-domain.ExpiryGrace))
	if err != nil {
		return nil, fmt.Errorf("revoke expired tokens: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan token id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PurgeRevoked удаляет отозванные токены старше указанного момента.
// Возвращает количество удалённых записей.
func (r *TokenRepo) PurgeRevoked(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM access_tokens
		WHERE is_revoked AND revoked_at < $1
	`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("purge revoked tokens: %w", err)
	}
	return result.RowsAffected(), nil
}
