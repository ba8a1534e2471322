package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role — роль пользователя в системе.
//
// Иерархия:
//
//	user < admin < superadmin
//
// Роль superadmin присваивается только при начальной инициализации
// и не может быть снята через API.
type Role string

const (
	// RoleUser — обычный пользователь, доступ только к собственному профилю.
	RoleUser Role = "user"

	// RoleAdmin — администратор, доступ к управлению пользователями
	// (в пределах выданных scopes).
	RoleAdmin Role = "admin"

	// RoleSuperadmin — суперадминистратор, проходит любую проверку scope.
	RoleSuperadmin Role = "superadmin"
)

// IsAdmin возвращает true для admin и superadmin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// String возвращает строковое представление Role.
func (r Role) String() string {
	return string(r)
}

// ParseRole парсит строку в Role. Неизвестные значения трактуются как user.
func ParseRole(s string) Role {
	switch s {
	case "admin":
		return RoleAdmin
	case "superadmin":
		return RoleSuperadmin
	default:
		return RoleUser
	}
}

// Scopes — права доступа, выдаваемые пользователю.
const (
	// ScopeMe — доступ к собственному профилю. Есть у каждого пользователя,
	// снять нельзя.
	ScopeMe = "me"

	// ScopeUsersRead — просмотр списка пользователей и их данных.
	ScopeUsersRead = "users.read"

	// ScopeUsersWrite — создание пользователей.
	ScopeUsersWrite = "users.write"

	// ScopeUsersUpdate — изменение данных и scopes других пользователей.
	ScopeUsersUpdate = "users.update"

	// ScopeAdminAssign — выдача и снятие роли admin, отзыв токенов.
	ScopeAdminAssign = "admin.assign"
)

// KnownScopes — множество всех допустимых scopes.
var KnownScopes = map[string]bool{
	ScopeMe:          true,
	ScopeUsersRead:   true,
	ScopeUsersWrite:  true,
	ScopeUsersUpdate: true,
	ScopeAdminAssign: true,
}

// IsKnownScope проверяет, что scope входит в допустимое множество.
func IsKnownScope(scope string) bool {
	return KnownScopes[scope]
}

// User — учётная запись сервиса.
type User struct {
	// ID — уникальный идентификатор пользователя.
	ID uuid.UUID `json:"id"`

	// Username — уникальное имя, используется как client_id при выдаче токена.
	Username string `json:"username"`

	// Email — адрес почты (необязательный).
	Email string `json:"email,omitempty"`

	// Fullname — отображаемое имя (необязательное).
	Fullname string `json:"fullname,omitempty"`

	// PasswordHash — bcrypt-хэш пароля. Наружу не отдаётся.
	PasswordHash string `json:"-"`

	// IsActive — неактивные пользователи не могут аутентифицироваться,
	// их действующие токены отклоняются.
	IsActive bool `json:"is_active"`

	// Role — роль пользователя.
	Role Role `json:"role"`

	// Scopes — выданные пользователю права.
	Scopes []UserScope `json:"scopes"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// UserScope — выданный пользователю scope.
type UserScope struct {
	// Scope — имя права (одно из KnownScopes).
	Scope string `json:"scope"`

	// IsActive — выключенный scope не проходит проверку доступа.
	IsActive bool `json:"is_active"`
}

// HasScope проверяет, есть ли у пользователя активный scope.
// Superadmin проходит любую проверку.
func (u *User) HasScope(scope string) bool {
	if u.Role == RoleSuperadmin {
		return true
	}
	for _, s := range u.Scopes {
		if s.Scope == scope && s.IsActive {
			return true
		}
	}
	return false
}

// ScopeNames возвращает имена активных scopes пользователя.
func (u *User) ScopeNames() []string {
	names := make([]string, 0, len(u.Scopes))
	for _, s := range u.Scopes {
		if s.IsActive {
			names = append(names, s.Scope)
		}
	}
	return names
}
