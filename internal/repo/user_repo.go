package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Gatekeeper/internal/domain"
)

// UserRepo — репозиторий для работы с users и user_scopes.
type UserRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo создаёт новый UserRepo.
func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// uniqueViolation — код ошибки PostgreSQL для конфликта уникальности.
const uniqueViolation = "23505"

// Create создаёт пользователя вместе с его scopes.
func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, username, email, fullname, password_hash, is_active, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`,
		user.ID,
		user.Username,
		user.Email,
		user.Fullname,
		user.PasswordHash,
		user.IsActive,
		user.Role,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if err := insertScopes(ctx, tx, user.ID, user.Scopes); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID возвращает пользователя по ID вместе со scopes.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

// GetByUsername возвращает пользователя по username вместе со scopes.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, `WHERE username = $1`, username)
}

func (r *UserRepo) getBy(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `
		SELECT id, username, email, fullname, password_hash, is_active, role, created_at, updated_at
		FROM users
	` + where

	var user domain.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Fullname,
		&user.PasswordHash,
		&user.IsActive,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	scopes, err := r.loadScopes(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Scopes = scopes

	return &user, nil
}

// List возвращает всех пользователей вместе со scopes.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, username, email, fullname, password_hash, is_active, role, created_at, updated_at
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.Fullname,
			&user.PasswordHash,
			&user.IsActive,
			&user.Role,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		index[user.ID] = len(users)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	scopeRows, err := r.pool.Query(ctx, `
		SELECT user_id, scope, is_active
		FROM user_scopes
		ORDER BY user_id, scope
	`)
	if err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	defer scopeRows.Close()

	for scopeRows.Next() {
		var userID uuid.UUID
		var scope domain.UserScope
		if err := scopeRows.Scan(&userID, &scope.Scope, &scope.IsActive); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		if i, ok := index[userID]; ok {
			users[i].Scopes = append(users[i].Scopes, scope)
		}
	}
	return users, scopeRows.Err()
}

// Update обновляет email, fullname и is_active пользователя.
func (r *UserRepo) Update(ctx context.Context, user *domain.User) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $2, fullname = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1
	`, user.ID, user.Email, user.Fullname, user.IsActive)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword сохраняет новый хэш пароля.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRole меняет роль пользователя.
func (r *UserRepo) SetRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1
	`, id, role)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceScopes заменяет набор scopes пользователя.
func (r *UserRepo) ReplaceScopes(ctx context.Context, userID uuid.UUID, scopes []domain.UserScope) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM user_scopes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete scopes: %w", err)
	}

	if err := insertScopes(ctx, tx, userID, scopes); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET updated_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("touch user: %w", err)
	}

	return tx.Commit(ctx)
}

// loadScopes возвращает scopes пользователя.
func (r *UserRepo) loadScopes(ctx context.Context, userID uuid.UUID) ([]domain.UserScope, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT scope, is_active
		FROM user_scopes
		WHERE user_id = $1
		ORDER BY scope
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load scopes: %w", err)
	}
	defer rows.Close()

	var scopes []domain.UserScope
	for rows.Next() {
		var scope domain.UserScope
		if err := rows.Scan(&scope.Scope, &scope.IsActive); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

// insertScopes вставляет scopes в рамках транзакции.
func insertScopes(ctx context.Context, tx pgx.Tx, userID uuid.UUID, scopes []domain.UserScope) error {
	for _, scope := range scopes {
		_, err := tx.Exec(ctx, `
			INSERT INTO user_scopes (user_id, scope, is_active)
			VALUES ($1, $2, $3)
		`, userID, scope.Scope, scope.IsActive)
		if err != nil {
			return fmt.Errorf("insert scope %s: %w", scope.Scope, err)
		}
	}
	return nil
}
