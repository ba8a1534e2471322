package auth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL — срок действия токена по умолчанию.
const DefaultTokenTTL = 60 * time.Minute

// Claims — JWT claims access-токена.
//
// sub — username владельца, jti — идентификатор записи в access_tokens,
// iss — адрес клиента, запросившего токен.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenID возвращает jti как uuid.
func (c *Claims) TokenID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse jti: %w", err)
	}
	return id, nil
}

// TokenIssuer выпускает и проверяет подписанные HS256 access-токены.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer создаёт TokenIssuer.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// NewTokenIssuerFromEnv создаёт TokenIssuer из переменных окружения
// JWT_SECRET и TOKEN_TTL_MIN.
func NewTokenIssuerFromEnv() (*TokenIssuer, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	ttl := DefaultTokenTTL
	if v := os.Getenv("TOKEN_TTL_MIN"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_TTL_MIN %q", v)
		}
		ttl = time.Duration(minutes) * time.Minute
	}

	return NewTokenIssuer(secret, ttl), nil
}

// TTL возвращает срок действия выпускаемых токенов.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue выпускает токен для пользователя.
// Возвращает подписанную строку и claims (jti генерируется внутри).
func (i *TokenIssuer) Issue(username, clientHost string, now time.Time) (string, *Claims, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   username,
			Issuer:    clientHost,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse проверяет подпись и срок действия токена и возвращает claims.
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
