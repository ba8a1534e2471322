package domain

import "testing"

func TestRole_IsAdmin(t *testing.T) {
	tests := []struct {
		role  Role
		admin bool
	}{
		{RoleUser, false},
		{RoleAdmin, true},
		{RoleSuperadmin, true},
		{Role("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.IsAdmin(); got != tt.admin {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.admin)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	if ParseRole("admin") != RoleAdmin {
		t.Error("expected RoleAdmin")
	}
	if ParseRole("superadmin") != RoleSuperadmin {
		t.Error("expected RoleSuperadmin")
	}
	if ParseRole("garbage") != RoleUser {
		t.Error("unknown role should fall back to RoleUser")
	}
}

func TestUser_HasScope(t *testing.T) {
	user := &User{
		Role: RoleUser,
		Scopes: []UserScope{
			{Scope: ScopeMe, IsActive: true},
			{Scope: ScopeUsersRead, IsActive: false},
		},
	}

	if !user.HasScope(ScopeMe) {
		t.Error("active scope should pass")
	}
	if user.HasScope(ScopeUsersRead) {
		t.Error("inactive scope should not pass")
	}
	if user.HasScope(ScopeAdminAssign) {
		t.Error("missing scope should not pass")
	}
}

func TestUser_HasScope_Superadmin(t *testing.T) {
	// Superadmin проходит любую проверку, даже без выданных scopes
	user := &User{Role: RoleSuperadmin}

	for scope := range KnownScopes {
		if !user.HasScope(scope) {
			t.Errorf("superadmin should pass scope %q", scope)
		}
	}
}

func TestUser_ScopeNames(t *testing.T) {
	user := &User{
		Scopes: []UserScope{
			{Scope: ScopeMe, IsActive: true},
			{Scope: ScopeUsersRead, IsActive: true},
			{Scope: ScopeUsersWrite, IsActive: false},
		},
	}

	names := user.ScopeNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 active scopes, got %d", len(names))
	}
	if names[0] != ScopeMe || names[1] != ScopeUsersRead {
		t.Errorf("unexpected scope names: %v", names)
	}
}
