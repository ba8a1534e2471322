package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessToken_IsExpired(t *testing.T) {
	now := time.Now()
	token := &AccessToken{
		ID:        uuid.New(),
		ExpiresAt: now,
	}

	tests := []struct {
		name    string
		at      time.Time
		expired bool
	}{
		{
			name:    "before expiry",
			at:      now.Add(-time.Hour),
			expired: false,
		},
		{
			name:    "just past expiry, within grace",
			at:      now.Add(time.Minute),
			expired: false,
		},
		{
			name:    "at grace boundary",
			at:      now.Add(ExpiryGrace),
			expired: false,
		},
		{
			name:    "past grace",
			at:      now.Add(ExpiryGrace + time.Second),
			expired: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := token.IsExpired(tt.at); got != tt.expired {
				t.Errorf("IsExpired(%v) = %v, want %v", tt.at, got, tt.expired)
			}
		})
	}
}

func TestAccessToken_IsUsable(t *testing.T) {
	now := time.Now()

	live := &AccessToken{ExpiresAt: now.Add(time.Hour)}
	if !live.IsUsable(now) {
		t.Error("live token should be usable")
	}

	revoked := &AccessToken{ExpiresAt: now.Add(time.Hour), IsRevoked: true}
	if revoked.IsUsable(now) {
		t.Error("revoked token should not be usable")
	}

	expired := &AccessToken{ExpiresAt: now.Add(-time.Hour)}
	if expired.IsUsable(now) {
		t.Error("expired token should not be usable")
	}
}
