package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/Gatekeeper/internal/auth"
	"github.com/shaiso/Gatekeeper/internal/domain"
	"github.com/shaiso/Gatekeeper/internal/mq"
	"github.com/shaiso/Gatekeeper/internal/telemetry"
)

// Profile возвращает профиль аутентифицированного пользователя.
// GET /api/v1/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	current, ok := CurrentUser(r.Context())
	if !ok {
		Unauthorized(w, "not authenticated")
		return
	}

	// Контекстный пользователь мог прийти из кеша без email и дат,
	// поэтому профиль всегда читается из БД
	user, err := h.users.GetByID(r.Context(), current.ID)
	if err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}

	Success(w, UserFromDomain(user))
}

// UpdateProfile обновляет email и/или имя пользователя.
// PATCH /api/v1/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current, ok := CurrentUser(ctx)
	if !ok {
		Unauthorized(w, "not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Email == nil && req.Fullname == nil {
		UnprocessableEntity(w, "no fields provided")
		return
	}
	// Поле со значением null или "" присутствует, но неприменимо
	setEmail := req.Email != nil && *req.Email != ""
	setFullname := req.Fullname != nil && *req.Fullname != ""
	if !setEmail && !setFullname {
		BadRequest(w, "no fields to update")
		return
	}
	if setEmail {
		if err := validateEmail(*req.Email); err != nil {
			UnprocessableEntity(w, err.Error())
			return
		}
	}

	user, err := h.users.GetByID(ctx, current.ID)
	if err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}

	if setEmail {
		user.Email = *req.Email
	}
	if setFullname {
		user.Fullname = *req.Fullname
	}

	if err := h.users.Update(ctx, user); err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}

	h.publish(ctx, mq.Event(domain.EventUserUpdated, user.Username, user.ID.String(), map[string]any{
		"self": true,
	}))

	updated, err := h.users.GetByID(ctx, user.ID)
	if err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}
	Success(w, UserFromDomain(updated))
}

// ChangePassword меняет пароль и отзывает все токены пользователя.
// PATCH /api/v1/profile/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current, ok := CurrentUser(ctx)
	if !ok {
		Unauthorized(w, "not authenticated")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	user, err := h.users.GetByID(ctx, current.ID)
	if err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}

	if !auth.VerifyPassword(req.OldPassword, user.PasswordHash) {
		BadRequest(w, "cannot change password")
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		UnprocessableEntity(w, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		InternalError(w)
		return
	}
	if err := h.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}

	// Старые токены становятся недействительными вместе со старым паролем
	revoked, err := h.tokens.RevokeAllForUser(ctx, user.ID)
	if err != nil {
		h.logger.Error("token revocation failed", "error", err, "user_id", user.ID)
		InternalError(w)
		return
	}
	if err := h.cache.DeleteTokens(ctx, revoked); err != nil {
		h.logger.Warn("token cache invalidation failed", "error", err)
	}
	telemetry.TokensRevoked.WithLabelValues("password_change").Add(float64(len(revoked)))

	h.publish(ctx, mq.Event(domain.EventPasswordChanged, user.Username, user.ID.String(), map[string]any{
		"revoked_tokens": len(revoked),
	}))

	telemetry.FromContext(ctx).Info("password changed",
		"user_id", user.ID,
		"revoked_tokens", len(revoked),
	)

	NoContent(w)
}
