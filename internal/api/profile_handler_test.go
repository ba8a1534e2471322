package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Gatekeeper/internal/domain"
)

// Запросы без применимых полей отклоняются до обращения к БД:
// пустое тело — 422, поля со значениями null или "" — 400.
func TestUpdateProfile_NoUsableFields(t *testing.T) {
	h := &Handler{}
	user := &domain.User{ID: uuid.New(), Username: "bob-builder", IsActive: true}

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{
			name:    "empty body",
			body:    `{}`,
			status:  http.StatusUnprocessableEntity,
			message: "no fields provided",
		},
		{
			name:    "null email and empty fullname",
			body:    `{"email": null, "fullname": ""}`,
			status:  http.StatusBadRequest,
			message: "no fields to update",
		},
		{
			name:    "empty strings",
			body:    `{"email": "", "fullname": ""}`,
			status:  http.StatusBadRequest,
			message: "no fields to update",
		},
		{
			name:   "invalid email",
			body:   `{"email": "not-an-email"}`,
			status: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPatch, "/api/v1/profile", strings.NewReader(tt.body))
			r = r.WithContext(withUser(r.Context(), user))
			w := httptest.NewRecorder()

			h.UpdateProfile(w, r)

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
			if tt.message == "" {
				return
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if resp.Error.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, resp.Error.Message)
			}
		})
	}
}
