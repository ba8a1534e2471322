package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Gatekeeper/internal/cache"
	"github.com/shaiso/Gatekeeper/internal/domain"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mk("first"), mk("second"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"first", "second", "handler"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi", wantOK: true},
		{name: "lowercase scheme", header: "bearer abc", want: "abc", wantOK: true},
		{name: "missing header", header: "", wantOK: false},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantOK: false},
		{name: "no token", header: "Bearer ", wantOK: false},
		{name: "scheme only", header: "Bearer", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, ok := bearerToken(r)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("bearerToken() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRequireScope(t *testing.T) {
	tests := []struct {
		name       string
		user       *domain.User
		scope      string
		wantStatus int
	}{
		{
			name: "has scope",
			user: &domain.User{
				Role:   domain.RoleUser,
				Scopes: []domain.UserScope{{Scope: domain.ScopeUsersRead, IsActive: true}},
			},
			scope:      domain.ScopeUsersRead,
			wantStatus: http.StatusOK,
		},
		{
			name: "inactive scope",
			user: &domain.User{
				Role:   domain.RoleUser,
				Scopes: []domain.UserScope{{Scope: domain.ScopeUsersRead, IsActive: false}},
			},
			scope:      domain.ScopeUsersRead,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing scope",
			user:       &domain.User{Role: domain.RoleUser},
			scope:      domain.ScopeUsersRead,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "superadmin bypasses scope check",
			user:       &domain.User{Role: domain.RoleSuperadmin},
			scope:      domain.ScopeAdminAssign,
			wantStatus: http.StatusOK,
		},
		{
			name:       "no user in context",
			user:       nil,
			scope:      domain.ScopeUsersRead,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireScope(tt.scope)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				r = r.WithContext(withUser(r.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, r)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		user       *domain.User
		wantStatus int
	}{
		{name: "admin", user: &domain.User{Role: domain.RoleAdmin}, wantStatus: http.StatusOK},
		{name: "superadmin", user: &domain.User{Role: domain.RoleSuperadmin}, wantStatus: http.StatusOK},
		{name: "plain user", user: &domain.User{Role: domain.RoleUser}, wantStatus: http.StatusForbidden},
		{name: "no user", user: nil, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				r = r.WithContext(withUser(r.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, r)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestUserFromCache(t *testing.T) {
	id := uuid.New()

	t.Run("active user matches subject", func(t *testing.T) {
		entry := mockEntry(id, "alice", true)
		user, ok := userFromCache(entry, "alice")
		if !ok {
			t.Fatal("expected valid user")
		}
		if user.ID != id || user.Username != "alice" {
			t.Errorf("unexpected user: %+v", user)
		}
		if !user.HasScope(domain.ScopeMe) {
			t.Error("expected me scope to be active")
		}
	})

	t.Run("subject mismatch", func(t *testing.T) {
		if _, ok := userFromCache(mockEntry(id, "alice", true), "bob"); ok {
			t.Error("expected rejection")
		}
	})

	t.Run("inactive user", func(t *testing.T) {
		if _, ok := userFromCache(mockEntry(id, "alice", false), "alice"); ok {
			t.Error("expected rejection")
		}
	})
}

func mockEntry(id uuid.UUID, username string, active bool) *cache.Entry {
	return &cache.Entry{
		UserID:   id,
		Username: username,
		Role:     string(domain.RoleUser),
		Scopes:   []string{domain.ScopeMe},
		IsActive: active,
	}
}
