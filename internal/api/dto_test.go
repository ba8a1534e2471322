package api

import (
	"errors"
	"strings"
	"testing"

	"github.com/shaiso/Gatekeeper/internal/domain"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid simple", username: "alice1", wantErr: false},
		{name: "valid with separators", username: "alice-dev_01", wantErr: false},
		{name: "too short", username: "alice", wantErr: true},
		{name: "too long", username: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", wantErr: true},
		{name: "empty", username: "", wantErr: true},
		{name: "starts with digit", username: "1alice", wantErr: true},
		{name: "uppercase", username: "Alice1", wantErr: true},
		{name: "spaces", username: "alice smith", wantErr: true},
		{name: "unicode", username: "алиса1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateUsername(%q) = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "Secret12!", wantErr: false},
		{name: "too short", password: "Ab1!", wantErr: true},
		{name: "too long", password: "Ab1!" + strings.Repeat("x", 70), wantErr: true},
		{name: "no digit", password: "Secretic!", wantErr: true},
		{name: "no uppercase", password: "secret12!", wantErr: true},
		{name: "no lowercase", password: "SECRET12!", wantErr: true},
		{name: "no special", password: "Secret123", wantErr: true},
		{name: "empty", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePassword(%q) = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid", email: "alice@example.com", wantErr: false},
		{name: "subdomain", email: "a.b@mail.example.org", wantErr: false},
		{name: "no at", email: "alice.example.com", wantErr: true},
		{name: "no domain dot", email: "alice@localhost", wantErr: true},
		{name: "spaces", email: "alice @example.com", wantErr: true},
		{name: "empty", email: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateEmail(%q) = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestCreateUserRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateUserRequest
		wantErr bool
	}{
		{
			name:    "valid",
			req:     CreateUserRequest{Username: "bob-builder", Password: "Secret12!"},
			wantErr: false,
		},
		{
			name:    "valid with scopes",
			req:     CreateUserRequest{Username: "bob-builder", Password: "Secret12!", Scopes: []string{domain.ScopeUsersRead}},
			wantErr: false,
		},
		{
			name:    "unknown scope",
			req:     CreateUserRequest{Username: "bob-builder", Password: "Secret12!", Scopes: []string{"widgets.fly"}},
			wantErr: true,
		},
		{
			name:    "weak password",
			req:     CreateUserRequest{Username: "bob-builder", Password: "short"},
			wantErr: true,
		},
		{
			name:    "bad email",
			req:     CreateUserRequest{Username: "bob-builder", Password: "Secret12!", Email: "not-an-email"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyScopeChanges(t *testing.T) {
	base := func() *domain.User {
		return &domain.User{
			Role: domain.RoleUser,
			Scopes: []domain.UserScope{
				{Scope: domain.ScopeMe, IsActive: true},
				{Scope: domain.ScopeUsersRead, IsActive: true},
			},
		}
	}

	t.Run("no changes returns nil", func(t *testing.T) {
		got, err := applyScopeChanges(base(), nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("grant adds scope", func(t *testing.T) {
		got, err := applyScopeChanges(base(), []ScopeGrant{{Scope: domain.ScopeUsersWrite, IsActive: true}}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 scopes, got %d", len(got))
		}
		if got[2].Scope != domain.ScopeUsersWrite || !got[2].IsActive {
			t.Errorf("unexpected last scope: %+v", got[2])
		}
	})

	t.Run("grant deactivates existing scope", func(t *testing.T) {
		got, err := applyScopeChanges(base(), []ScopeGrant{{Scope: domain.ScopeUsersRead, IsActive: false}}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 scopes, got %d", len(got))
		}
		if got[1].Scope != domain.ScopeUsersRead || got[1].IsActive {
			t.Errorf("expected deactivated users.read, got %+v", got[1])
		}
	})

	t.Run("removal drops scope", func(t *testing.T) {
		got, err := applyScopeChanges(base(), nil, []string{domain.ScopeUsersRead})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].Scope != domain.ScopeMe {
			t.Errorf("expected only me scope, got %+v", got)
		}
	})

	t.Run("removing me is rejected", func(t *testing.T) {
		if _, err := applyScopeChanges(base(), nil, []string{domain.ScopeMe}); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("grant and removal of same scope is rejected", func(t *testing.T) {
		_, err := applyScopeChanges(base(),
			[]ScopeGrant{{Scope: domain.ScopeUsersWrite, IsActive: true}},
			[]string{domain.ScopeUsersWrite},
		)
		if err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("unknown scope is rejected", func(t *testing.T) {
		_, err := applyScopeChanges(base(), []ScopeGrant{{Scope: "widgets.fly", IsActive: true}}, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		var se *scopeError
		if !errors.As(err, &se) || !se.unknown {
			t.Errorf("expected unknown scopeError, got %v", err)
		}
	})

	t.Run("superadmin scopes are immutable", func(t *testing.T) {
		u := base()
		u.Role = domain.RoleSuperadmin
		_, err := applyScopeChanges(u, []ScopeGrant{{Scope: domain.ScopeUsersWrite, IsActive: true}}, nil)
		if err == nil {
			t.Error("expected error, got nil")
		}
	})
}
