package auth

import "errors"

// Ошибки аутентификации.
var (
	// ErrInvalidCredentials — неверная пара client_id/client_secret
	// или пользователь неактивен.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid — токен не прошёл проверку подписи или формата.
	ErrTokenInvalid = errors.New("invalid token")
)
