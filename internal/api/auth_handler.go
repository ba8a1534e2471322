package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/shaiso/Gatekeeper/internal/auth"
	"github.com/shaiso/Gatekeeper/internal/domain"
	"github.com/shaiso/Gatekeeper/internal/mq"
	"github.com/shaiso/Gatekeeper/internal/repo"
	"github.com/shaiso/Gatekeeper/internal/telemetry"
)

// tokenError пишет 400 с заголовком WWW-Authenticate: Basic —
// так клиент узнаёт, что может повторить запрос с Basic-авторизацией.
func tokenError(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Basic")
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Token выдаёт access-токен по client credentials.
// POST /api/v1/token
//
// Учётные данные принимаются либо формой (client_id/client_secret),
// либо заголовком Authorization: Basic.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		tokenError(w, "malformed request body")
		return
	}

	if grant := r.PostForm.Get("grant_type"); grant != "" && grant != "client_credentials" {
		tokenError(w, "unsupported grant type")
		return
	}

	username := r.PostForm.Get("client_id")
	secret := r.PostForm.Get("client_secret")
	if username == "" {
		username, secret, _ = r.BasicAuth()
	}
	if username == "" || secret == "" {
		telemetry.AuthFailures.WithLabelValues("credentials").Inc()
		tokenError(w, "invalid credentials")
		return
	}

	user, err := h.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			telemetry.AuthFailures.WithLabelValues("credentials").Inc()
			tokenError(w, "invalid credentials")
			return
		}
		h.logger.Error("user lookup failed", "error", err)
		InternalError(w)
		return
	}
	if !user.IsActive || !auth.VerifyPassword(secret, user.PasswordHash) {
		telemetry.AuthFailures.WithLabelValues("credentials").Inc()
		tokenError(w, "invalid credentials")
		return
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	now := time.Now().UTC()
	signed, claims, err := h.issuer.Issue(user.Username, host, now)
	if err != nil {
		h.logger.Error("token signing failed", "error", err)
		InternalError(w)
		return
	}

	tokenID, err := claims.TokenID()
	if err != nil {
		h.logger.Error("token id parse failed", "error", err)
		InternalError(w)
		return
	}

	token := &domain.AccessToken{
		ID:        tokenID,
		UserID:    user.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := h.tokens.Create(ctx, token); err != nil {
		h.logger.Error("token persist failed", "error", err)
		InternalError(w)
		return
	}

	h.publish(ctx, mq.Event(domain.EventTokenIssued, user.Username, tokenID.String(), map[string]any{
		"user_id":    user.ID.String(),
		"expires_at": token.ExpiresAt,
		"client":     host,
	}))
	telemetry.TokensIssued.Inc()

	h.logger.Info("token issued",
		"user_id", user.ID,
		"token_id", tokenID,
	)

	JSON(w, http.StatusOK, TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(h.issuer.TTL().Seconds()),
	})
}

// publish отправляет событие аудита, не прерывая обработку запроса.
func (h *Handler) publish(ctx context.Context, event *domain.AuditEvent) {
	if err := h.publisher.PublishEvent(ctx, event); err != nil {
		h.logger.Warn("audit publish failed",
			"event_type", string(event.Type),
			"error", err,
		)
	}
}
