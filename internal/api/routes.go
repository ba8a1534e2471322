package api

import (
	"net/http"

	"github.com/shaiso/Gatekeeper/internal/domain"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Публичные маршруты
	public := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Маршруты под собственным токеном
	me := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		h.Authenticate(),
		RequireScope(domain.ScopeMe),
	)

	// Административные маршруты: роль admin плюс конкретный scope
	admin := func(scope string) Middleware {
		return Chain(
			Recovery(h.logger),
			Logging(h.logger),
			h.Authenticate(),
			RequireAdmin(),
			RequireScope(scope),
		)
	}

	mux.Handle("GET /api/v1/health", public(http.HandlerFunc(h.Health)))
	mux.Handle("POST /api/v1/token", public(http.HandlerFunc(h.Token)))

	// Profile
	mux.Handle("GET /api/v1/profile", me(http.HandlerFunc(h.Profile)))
	mux.Handle("PATCH /api/v1/profile", me(http.HandlerFunc(h.UpdateProfile)))
	mux.Handle("PATCH /api/v1/profile/change-password", me(http.HandlerFunc(h.ChangePassword)))

	// Users
	mux.Handle("GET /api/v1/admin/users", admin(domain.ScopeUsersRead)(http.HandlerFunc(h.ListUsers)))
	mux.Handle("POST /api/v1/admin/users", admin(domain.ScopeUsersWrite)(http.HandlerFunc(h.CreateUser)))
	mux.Handle("GET /api/v1/admin/users/{id}", admin(domain.ScopeUsersRead)(http.HandlerFunc(h.GetUser)))
	mux.Handle("PUT /api/v1/admin/users/{id}", admin(domain.ScopeUsersUpdate)(http.HandlerFunc(h.UpdateUser)))
	mux.Handle("PUT /api/v1/admin/users/{id}/admin", admin(domain.ScopeAdminAssign)(http.HandlerFunc(h.SetAdmin)))

	// Tokens
	mux.Handle("GET /api/v1/admin/users/{id}/tokens", admin(domain.ScopeUsersRead)(http.HandlerFunc(h.ListUserTokens)))
	mux.Handle("POST /api/v1/admin/tokens/{id}/revoke", admin(domain.ScopeAdminAssign)(http.HandlerFunc(h.RevokeToken)))

	// Audit
	mux.Handle("GET /api/v1/admin/audit", admin(domain.ScopeUsersRead)(http.HandlerFunc(h.ListAuditEvents)))
}
