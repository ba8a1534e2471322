package api

import (
	"fmt"
	"regexp"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shaiso/Gatekeeper/internal/domain"
)

// User DTOs

// CreateUserRequest — запрос на создание пользователя.
type CreateUserRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Email    string   `json:"email,omitempty"`
	Fullname string   `json:"fullname,omitempty"`
	Scopes   []string `json:"scopes,omitempty"`
}

// Validate проверяет поля запроса.
func (r CreateUserRequest) Validate() error {
	if err := validateUsername(r.Username); err != nil {
		return err
	}
	if err := validatePassword(r.Password); err != nil {
		return err
	}
	if r.Email != "" {
		if err := validateEmail(r.Email); err != nil {
			return err
		}
	}
	for _, s := range r.Scopes {
		if !domain.IsKnownScope(s) {
			return fmt.Errorf("unknown scope %q", s)
		}
	}
	return nil
}

// ScopeGrant — выдача или деактивация одного scope.
type ScopeGrant struct {
	Scope    string `json:"scope"`
	IsActive bool   `json:"is_active"`
}

// UpdateUserRequest — запрос на обновление пользователя администратором.
type UpdateUserRequest struct {
	Email        *string      `json:"email,omitempty"`
	Fullname     *string      `json:"fullname,omitempty"`
	IsActive     *bool        `json:"is_active,omitempty"`
	Scopes       []ScopeGrant `json:"scopes,omitempty"`
	RemoveScopes []string     `json:"remove_scopes,omitempty"`
}

// UpdateProfileRequest — запрос на обновление собственного профиля.
type UpdateProfileRequest struct {
	Email    *string `json:"email,omitempty"`
	Fullname *string `json:"fullname,omitempty"`
}

// ChangePasswordRequest — запрос на смену пароля.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// SetAdminRequest — запрос на выдачу/снятие прав администратора.
type SetAdminRequest struct {
	Enabled bool `json:"enabled"`
}

// UserScopeResponse — один scope пользователя в ответе.
type UserScopeResponse struct {
	Scope    string `json:"scope"`
	IsActive bool   `json:"is_active"`
}

// UserResponse — ответ с пользователем.
type UserResponse struct {
	ID        uuid.UUID           `json:"id"`
	Username  string              `json:"username"`
	Email     string              `json:"email,omitempty"`
	Fullname  string              `json:"fullname,omitempty"`
	IsActive  bool                `json:"is_active"`
	Role      string              `json:"role"`
	Scopes    []UserScopeResponse `json:"scopes"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// UserFromDomain конвертирует domain.User в UserResponse.
func UserFromDomain(u *domain.User) UserResponse {
	if u == nil {
		return UserResponse{}
	}
	scopes := make([]UserScopeResponse, 0, len(u.Scopes))
	for _, s := range u.Scopes {
		scopes = append(scopes, UserScopeResponse{Scope: s.Scope, IsActive: s.IsActive})
	}
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Fullname:  u.Fullname,
		IsActive:  u.IsActive,
		Role:      u.Role.String(),
		Scopes:    scopes,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Token DTOs

// TokenResponse — ответ на выдачу токена.
// Отдаётся без стандартной обёртки: формат фиксирован OAuth2.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AccessTokenResponse — ответ с записью токена (административный просмотр).
type AccessTokenResponse struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	IsRevoked bool       `json:"is_revoked"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// AccessTokenFromDomain конвертирует domain.AccessToken в AccessTokenResponse.
func AccessTokenFromDomain(t *domain.AccessToken) AccessTokenResponse {
	if t == nil {
		return AccessTokenResponse{}
	}
	return AccessTokenResponse{
		ID:        t.ID,
		UserID:    t.UserID,
		IssuedAt:  t.IssuedAt,
		ExpiresAt: t.ExpiresAt,
		IsRevoked: t.IsRevoked,
		RevokedAt: t.RevokedAt,
	}
}

// Audit DTOs

// AuditEventResponse — событие аудита в ответе.
type AuditEventResponse struct {
	ID        uuid.UUID      `json:"id"`
	Type      string         `json:"type"`
	Actor     string         `json:"actor,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditEventFromDomain конвертирует domain.AuditEvent в AuditEventResponse.
func AuditEventFromDomain(e *domain.AuditEvent) AuditEventResponse {
	if e == nil {
		return AuditEventResponse{}
	}
	return AuditEventResponse{
		ID:        e.ID,
		Type:      string(e.Type),
		Actor:     e.Actor,
		Subject:   e.Subject,
		Payload:   e.Payload,
		CreatedAt: e.CreatedAt,
	}
}

// Health DTOs

// HealthResponse — ответ проверки работоспособности.
type HealthResponse struct {
	Status string        `json:"status"`
	Checks []HealthCheck `json:"checks"`
}

// HealthCheck — результат проверки одной зависимости.
type HealthCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Валидация

var (
	usernameRe = regexp.MustCompile(`^[a-z][a-z0-9_-]{5,29}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func validateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("username must be 6-30 characters of lowercase letters, digits, dash or underscore, starting with a letter")
	}
	return nil
}

// validatePassword требует 8-72 символа, как минимум по одному:
// цифра, строчная буква, заглавная буква, спецсимвол.
func validatePassword(password string) error {
	if len(password) < 8 || len(password) > 72 {
		return fmt.Errorf("password must be 8-72 characters")
	}
	var hasDigit, hasLower, hasUpper, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasDigit || !hasLower || !hasUpper || !hasSpecial {
		return fmt.Errorf("password must contain a digit, a lowercase letter, an uppercase letter and a special character")
	}
	return nil
}

func validateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}
