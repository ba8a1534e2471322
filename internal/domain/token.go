package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExpiryGrace — льготный период после expires_at, в течение которого токен
// ещё не считается истёкшим. Сглаживает рассинхронизацию часов между
// клиентом и сервером.
const ExpiryGrace = 5 * time.Minute

// AccessToken — запись о выданном access-токене.
//
// ID совпадает с claim jti внутри JWT: сам токен в БД не хранится,
// при проверке достаточно найти запись по jti и убедиться,
// что она не отозвана.
type AccessToken struct {
	// ID — идентификатор токена (jti).
	ID uuid.UUID `json:"id"`

	// UserID — владелец токена.
	UserID uuid.UUID `json:"user_id"`

	// IssuedAt — время выдачи.
	IssuedAt time.Time `json:"issued_at"`

	// ExpiresAt — время истечения.
	ExpiresAt time.Time `json:"expires_at"`

	// IsRevoked — токен отозван (сменой пароля, администратором или
	// sweeper'ом после истечения).
	IsRevoked bool `json:"is_revoked"`

	// RevokedAt — время отзыва, если токен отозван.
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// IsExpired возвращает true, если токен истёк с учётом льготного периода.
func (t *AccessToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt.Add(ExpiryGrace))
}

// IsUsable возвращает true, если токен не отозван и не истёк.
func (t *AccessToken) IsUsable(now time.Time) bool {
	return !t.IsRevoked && !t.IsExpired(now)
}
