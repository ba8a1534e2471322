package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// UserScopeResponse — scope пользователя из API.
type UserScopeResponse struct {
	Scope    string `json:"scope"`
	IsActive bool   `json:"is_active"`
}

// UserResponse — пользователь из API.
type UserResponse struct {
	ID        string              `json:"id"`
	Username  string              `json:"username"`
	Email     string              `json:"email,omitempty"`
	Fullname  string              `json:"fullname,omitempty"`
	IsActive  bool                `json:"is_active"`
	Role      string              `json:"role"`
	Scopes    []UserScopeResponse `json:"scopes"`
	CreatedAt string              `json:"created_at"`
	UpdatedAt string              `json:"updated_at"`
}

// ScopeNames возвращает имена активных scopes пользователя.
func (u UserResponse) ScopeNames() string {
	names := make([]string, 0, len(u.Scopes))
	for _, s := range u.Scopes {
		if s.IsActive {
			names = append(names, s.Scope)
		}
	}
	return strings.Join(names, ",")
}

// TokenGrantResponse — ответ на выдачу токена.
type TokenGrantResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AccessTokenResponse — запись токена из API.
type AccessTokenResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	IssuedAt  string `json:"issued_at"`
	ExpiresAt string `json:"expires_at"`
	IsRevoked bool   `json:"is_revoked"`
	RevokedAt string `json:"revoked_at,omitempty"`
}

// --- Request types ---

// CreateUserRequest — создание пользователя.
type CreateUserRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Email    string   `json:"email,omitempty"`
	Fullname string   `json:"fullname,omitempty"`
	Scopes   []string `json:"scopes,omitempty"`
}

// ScopeGrant — выдача одного scope.
type ScopeGrant struct {
	Scope    string `json:"scope"`
	IsActive bool   `json:"is_active"`
}

// UpdateUserRequest — обновление пользователя.
type UpdateUserRequest struct {
	Email        *string      `json:"email,omitempty"`
	Fullname     *string      `json:"fullname,omitempty"`
	IsActive     *bool        `json:"is_active,omitempty"`
	Scopes       []ScopeGrant `json:"scopes,omitempty"`
	RemoveScopes []string     `json:"remove_scopes,omitempty"`
}

// UpdateProfileRequest — обновление собственного профиля.
type UpdateProfileRequest struct {
	Email    *string `json:"email,omitempty"`
	Fullname *string `json:"fullname,omitempty"`
}

// ChangePasswordRequest — смена пароля.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Gatekeeper API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient создаёт клиент для API. Токен может быть пустым:
// он нужен только для аутентифицированных запросов.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Auth ---

// Login получает токен по логину и паролю.
func (c *Client) Login(username, password string) (*TokenGrantResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", username)
	form.Set("client_secret", password)

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/v1/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return nil, err
	}

	// Ответ на выдачу токена приходит без стандартной обёртки
	var grant TokenGrantResponse
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &grant, nil
}

// --- Profile ---

// Profile возвращает собственный профиль.
func (c *Client) Profile() (*UserResponse, error) {
	var user UserResponse
	err := c.get("/api/v1/profile", &user)
	return &user, err
}

// UpdateProfile обновляет собственный профиль.
func (c *Client) UpdateProfile(req UpdateProfileRequest) (*UserResponse, error) {
	var user UserResponse
	err := c.patch("/api/v1/profile", req, &user)
	return &user, err
}

// ChangePassword меняет пароль текущего пользователя.
func (c *Client) ChangePassword(oldPassword, newPassword string) error {
	req := ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	return c.patch("/api/v1/profile/change-password", req, nil)
}

// --- Users ---

// ListUsers возвращает всех пользователей.
func (c *Client) ListUsers() ([]UserResponse, error) {
	var users []UserResponse
	err := c.list("/api/v1/admin/users", nil, &users)
	return users, err
}

// CreateUser создаёт нового пользователя.
func (c *Client) CreateUser(req CreateUserRequest) (*UserResponse, error) {
	var user UserResponse
	err := c.post("/api/v1/admin/users", req, &user)
	return &user, err
}

// GetUser возвращает пользователя по ID.
func (c *Client) GetUser(id string) (*UserResponse, error) {
	var user UserResponse
	err := c.get("/api/v1/admin/users/"+id, &user)
	return &user, err
}

// UpdateUser обновляет пользователя.
func (c *Client) UpdateUser(id string, req UpdateUserRequest) (*UserResponse, error) {
	var user UserResponse
	err := c.put("/api/v1/admin/users/"+id, req, &user)
	return &user, err
}

// SetAdmin выдаёт или снимает права администратора.
func (c *Client) SetAdmin(id string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.put("/api/v1/admin/users/"+id+"/admin", body, nil)
}

// ListUserTokens возвращает токены пользователя.
func (c *Client) ListUserTokens(id string) ([]AccessTokenResponse, error) {
	var tokens []AccessTokenResponse
	err := c.list("/api/v1/admin/users/"+id+"/tokens", nil, &tokens)
	return tokens, err
}

// AuditEventResponse — событие аудита из API.
type AuditEventResponse struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Actor     string         `json:"actor,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// --- Audit ---

// ListAuditEvents возвращает последние события аудита.
func (c *Client) ListAuditEvents(limit int) ([]AuditEventResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var events []AuditEventResponse
	err := c.list("/api/v1/admin/audit", params, &events)
	return events, err
}

// --- Tokens ---

// RevokeToken отзывает токен по ID.
func (c *Client) RevokeToken(id string) error {
	return c.post("/api/v1/admin/tokens/"+id+"/revoke", nil, nil)
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) patch(path string, body any, result any) error {
	return c.doData(http.MethodPatch, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
