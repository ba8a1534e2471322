package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Gatekeeper/internal/auth"
	"github.com/shaiso/Gatekeeper/internal/cache"
	"github.com/shaiso/Gatekeeper/internal/domain"
	"github.com/shaiso/Gatekeeper/internal/repo"
	"github.com/shaiso/Gatekeeper/internal/telemetry"
)

// Middleware — функция-обёртка для http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain применяет middleware в порядке слева направо.
// Chain(m1, m2)(handler) = m1(m2(handler))
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Logging логирует HTTP запросы и обновляет метрики.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Обёртка для захвата статуса ответа
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			elapsed := time.Since(start)
			telemetry.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(rw.status)).Inc()
			telemetry.HTTPDuration.Observe(elapsed.Seconds())

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"duration", elapsed,
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// Recovery восстанавливается после паники.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
					)
					InternalError(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter — обёртка для захвата статуса ответа.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

type ctxKey int

const userKey ctxKey = iota

func withUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// CurrentUser возвращает аутентифицированного пользователя из контекста.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}

// bearerToken извлекает токен из заголовка Authorization.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// Authenticate проверяет bearer-токен и кладёт пользователя в контекст.
// Сначала токен проверяется по подписи и сроку, затем по записи в кеше
// или в БД: отозванный токен невалиден даже при корректной подписи.
func (h *Handler) Authenticate() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				telemetry.AuthFailures.WithLabelValues("token_invalid").Inc()
				Unauthorized(w, "not authenticated")
				return
			}

			claims, err := h.issuer.Parse(raw)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					telemetry.AuthFailures.WithLabelValues("token_expired").Inc()
					Unauthorized(w, "token expired")
					return
				}
				telemetry.AuthFailures.WithLabelValues("token_invalid").Inc()
				Unauthorized(w, "could not validate credentials")
				return
			}

			tokenID, err := claims.TokenID()
			if err != nil {
				telemetry.AuthFailures.WithLabelValues("token_invalid").Inc()
				Unauthorized(w, "could not validate credentials")
				return
			}

			ctx := r.Context()

			if entry, ok := h.cache.GetToken(ctx, tokenID); ok {
				user, valid := userFromCache(entry, claims.Subject)
				if !valid {
					telemetry.AuthFailures.WithLabelValues("user_inactive").Inc()
					Unauthorized(w, "could not validate credentials")
					return
				}
				next.ServeHTTP(w, r.WithContext(h.authedContext(ctx, user, tokenID)))
				return
			}

			token, err := h.tokens.GetByID(ctx, tokenID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					telemetry.AuthFailures.WithLabelValues("token_invalid").Inc()
					Unauthorized(w, "could not validate credentials")
					return
				}
				h.logger.Error("token lookup failed", "error", err)
				InternalError(w)
				return
			}
			if token.IsRevoked {
				telemetry.AuthFailures.WithLabelValues("token_revoked").Inc()
				Unauthorized(w, "token revoked")
				return
			}
			if token.IsExpired(time.Now().UTC()) {
				telemetry.AuthFailures.WithLabelValues("token_expired").Inc()
				Unauthorized(w, "token expired")
				return
			}

			user, err := h.users.GetByUsername(ctx, claims.Subject)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					telemetry.AuthFailures.WithLabelValues("token_invalid").Inc()
					Unauthorized(w, "could not validate credentials")
					return
				}
				h.logger.Error("user lookup failed", "error", err)
				InternalError(w)
				return
			}
			if !user.IsActive || token.UserID != user.ID {
				telemetry.AuthFailures.WithLabelValues("user_inactive").Inc()
				Unauthorized(w, "could not validate credentials")
				return
			}

			if err := h.cache.SetToken(ctx, token, user); err != nil {
				h.logger.Warn("token cache write failed", "error", err)
			}

			next.ServeHTTP(w, r.WithContext(h.authedContext(ctx, user, tokenID)))
		})
	}
}

// authedContext кладёт пользователя и обогащённый логгер в контекст.
func (h *Handler) authedContext(ctx context.Context, user *domain.User, tokenID uuid.UUID) context.Context {
	logger := telemetry.WithTokenID(telemetry.WithUsername(h.logger, user.Username), tokenID.String())
	return withUser(telemetry.WithLogger(ctx, logger), user)
}

// userFromCache восстанавливает пользователя из кеш-записи.
func userFromCache(entry *cache.Entry, subject string) (*domain.User, bool) {
	if entry.Username != subject || !entry.IsActive {
		return nil, false
	}
	scopes := make([]domain.UserScope, 0, len(entry.Scopes))
	for _, s := range entry.Scopes {
		scopes = append(scopes, domain.UserScope{Scope: s, IsActive: true})
	}
	return &domain.User{
		ID:       entry.UserID,
		Username: entry.Username,
		Role:     domain.Role(entry.Role),
		IsActive: entry.IsActive,
		Scopes:   scopes,
	}, true
}

// RequireScope пропускает только пользователей с активным scope.
func RequireScope(scope string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				Unauthorized(w, "not authenticated")
				return
			}
			if !user.HasScope(scope) {
				Forbidden(w, "not enough permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin пропускает только администраторов.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				Unauthorized(w, "not authenticated")
				return
			}
			if !user.Role.IsAdmin() {
				Forbidden(w, "admin privileges required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
