package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Gatekeeper/internal/auth"
	"github.com/shaiso/Gatekeeper/internal/domain"
	"github.com/shaiso/Gatekeeper/internal/mq"
	"github.com/shaiso/Gatekeeper/internal/repo"
	"github.com/shaiso/Gatekeeper/internal/telemetry"
)

// ListUsers возвращает всех пользователей.
// GET /api/v1/admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("user list failed", "error", err)
		InternalError(w)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, UserFromDomain(&users[i]))
	}
	List(w, resp, len(resp))
}

// CreateUser создаёт нового пользователя.
// POST /api/v1/admin/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := CurrentUser(ctx)

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		UnprocessableEntity(w, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		InternalError(w)
		return
	}

	// Scope "me" выдаётся каждому пользователю
	scopes := []domain.UserScope{{Scope: domain.ScopeMe, IsActive: true}}
	for _, s := range req.Scopes {
		if s == domain.ScopeMe {
			continue
		}
		scopes = append(scopes, domain.UserScope{Scope: s, IsActive: true})
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		Fullname:     req.Fullname,
		PasswordHash: hash,
		IsActive:     true,
		Role:         domain.RoleUser,
		Scopes:       scopes,
	}

	if err := h.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			Conflict(w, "username already registered")
			return
		}
		h.logger.Error("user create failed", "error", err)
		InternalError(w)
		return
	}

	h.publish(ctx, mq.Event(domain.EventUserCreated, actorName(actor), user.ID.String(), map[string]any{
		"username": user.Username,
		"scopes":   user.ScopeNames(),
	}))

	h.logger.Info("user created",
		"user_id", user.ID,
		"username", user.Username,
	)

	created, err := h.users.GetByID(ctx, user.ID)
	if err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}
	Created(w, UserFromDomain(created))
}

// GetUser возвращает пользователя по id.
// GET /api/v1/admin/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}
	Success(w, UserFromDomain(user))
}

// UpdateUser обновляет пользователя и его scopes.
// PUT /api/v1/admin/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := CurrentUser(ctx)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Email != nil && *req.Email != "" {
		if err := validateEmail(*req.Email); err != nil {
			UnprocessableEntity(w, err.Error())
			return
		}
	}

	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Fullname != nil {
		user.Fullname = *req.Fullname
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	scopes, err := applyScopeChanges(user, req.Scopes, req.RemoveScopes)
	if err != nil {
		var ve *scopeError
		if errors.As(err, &ve) {
			if ve.unknown {
				UnprocessableEntity(w, err.Error())
			} else {
				BadRequest(w, err.Error())
			}
			return
		}
		InternalError(w)
		return
	}

	if err := h.users.Update(ctx, user); err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}
	if scopes != nil {
		if err := h.users.ReplaceScopes(ctx, user.ID, scopes); err != nil {
			HandleRepoError(w, err, "user not found")
			return
		}
	}
	h.dropCachedTokens(ctx, user.ID)

	h.publish(ctx, mq.Event(domain.EventUserUpdated, actorName(actor), user.ID.String(), nil))

	updated, err := h.users.GetByID(ctx, user.ID)
	if err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}
	Success(w, UserFromDomain(updated))
}

// scopeError — ошибка изменения набора scopes.
type scopeError struct {
	msg     string
	unknown bool
}

func (e *scopeError) Error() string { return e.msg }

// applyScopeChanges строит новый набор scopes пользователя.
// Возвращает nil, если изменений нет.
//
// Правила: scope "me" неудаляем; scopes суперадминистратора неизменяемы;
// одновременная выдача и удаление одного scope — ошибка.
func applyScopeChanges(user *domain.User, grants []ScopeGrant, removals []string) ([]domain.UserScope, error) {
	if len(grants) == 0 && len(removals) == 0 {
		return nil, nil
	}
	if user.Role == domain.RoleSuperadmin {
		return nil, &scopeError{msg: "superadmin scopes cannot be modified"}
	}

	granted := make(map[string]bool, len(grants))
	for _, g := range grants {
		if !domain.IsKnownScope(g.Scope) {
			return nil, &scopeError{msg: "unknown scope " + g.Scope, unknown: true}
		}
		granted[g.Scope] = true
	}
	for _, s := range removals {
		if granted[s] {
			return nil, &scopeError{msg: "scope " + s + " is both granted and removed"}
		}
		if s == domain.ScopeMe {
			return nil, &scopeError{msg: "scope me cannot be removed"}
		}
	}

	current := make(map[string]domain.UserScope, len(user.Scopes))
	order := make([]string, 0, len(user.Scopes))
	for _, s := range user.Scopes {
		current[s.Scope] = s
		order = append(order, s.Scope)
	}
	for _, g := range grants {
		if _, ok := current[g.Scope]; !ok {
			order = append(order, g.Scope)
		}
		current[g.Scope] = domain.UserScope{Scope: g.Scope, IsActive: g.IsActive}
	}
	for _, s := range removals {
		delete(current, s)
	}

	result := make([]domain.UserScope, 0, len(current))
	for _, name := range order {
		if s, ok := current[name]; ok {
			result = append(result, s)
		}
	}
	return result, nil
}

// SetAdmin выдаёт либо снимает права администратора.
// PUT /api/v1/admin/users/{id}/admin
func (h *Handler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := CurrentUser(ctx)
	if !ok {
		Unauthorized(w, "not authenticated")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}
	if id == actor.ID {
		Forbidden(w, "cannot change own admin status")
		return
	}

	var req SetAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}
	if user.Role == domain.RoleSuperadmin {
		Forbidden(w, "superadmin role cannot be changed")
		return
	}

	role := domain.RoleUser
	if req.Enabled {
		role = domain.RoleAdmin
	}
	if err := h.users.SetRole(ctx, user.ID, role); err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}
	h.dropCachedTokens(ctx, user.ID)

	h.publish(ctx, mq.Event(domain.EventUserRoleChanged, actor.Username, user.ID.String(), map[string]any{
		"role": role.String(),
	}))

	h.logger.Info("user role changed",
		"user_id", user.ID,
		"role", role,
		"actor", actor.Username,
	)

	NoContent(w)
}

// ListUserTokens возвращает токены пользователя.
// GET /api/v1/admin/users/{id}/tokens
func (h *Handler) ListUserTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid user id")
		return
	}
	if _, err := h.users.GetByID(ctx, id); err != nil {
		HandleRepoError(w, err, "user not found")
		return
	}

	tokens, err := h.tokens.ListByUser(ctx, id)
	if err != nil {
		h.logger.Error("token list failed", "error", err)
		InternalError(w)
		return
	}

	resp := make([]AccessTokenResponse, 0, len(tokens))
	for i := range tokens {
		resp = append(resp, AccessTokenFromDomain(&tokens[i]))
	}
	List(w, resp, len(resp))
}

// RevokeToken отзывает токен по id.
// POST /api/v1/admin/tokens/{id}/revoke
func (h *Handler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, _ := CurrentUser(ctx)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid token id")
		return
	}

	if err := h.tokens.Revoke(ctx, id); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			NotFound(w, "token not found")
		case errors.Is(err, repo.ErrInvalidState):
			UnprocessableEntity(w, "token already revoked")
		default:
			h.logger.Error("token revoke failed", "error", err)
			InternalError(w)
		}
		return
	}

	if err := h.cache.DeleteToken(ctx, id); err != nil {
		h.logger.Warn("token cache invalidation failed", "error", err)
	}
	telemetry.TokensRevoked.WithLabelValues("admin").Inc()

	h.publish(ctx, mq.Event(domain.EventTokenRevoked, actorName(actor), id.String(), nil))

	h.logger.Info("token revoked",
		"token_id", id,
		"actor", actorName(actor),
	)

	NoContent(w)
}

// ListAuditEvents возвращает последние события аудита.
// GET /api/v1/admin/audit
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	events, err := h.audits.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("audit list failed", "error", err)
		InternalError(w)
		return
	}

	resp := make([]AuditEventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, AuditEventFromDomain(&events[i]))
	}
	List(w, resp, len(resp))
}

// dropCachedTokens убирает токены пользователя из кеша токенов.
// Кеш-записи несут роль, scopes и флаг активности на момент выдачи,
// поэтому после административных изменений пользователя они устаревают:
// следующая проверка токена пойдёт в БД и увидит актуальное состояние.
func (h *Handler) dropCachedTokens(ctx context.Context, userID uuid.UUID) {
	if h.cache == nil {
		return
	}
	tokens, err := h.tokens.ListByUser(ctx, userID)
	if err != nil {
		h.logger.Warn("token cache invalidation failed", "error", err, "user_id", userID)
		return
	}
	ids := make([]uuid.UUID, 0, len(tokens))
	for i := range tokens {
		ids = append(ids, tokens[i].ID)
	}
	if err := h.cache.DeleteTokens(ctx, ids); err != nil {
		h.logger.Warn("token cache invalidation failed", "error", err, "user_id", userID)
	}
}

func actorName(u *domain.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
