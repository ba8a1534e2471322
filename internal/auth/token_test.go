package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	signed, claims, err := issuer.Issue("alice", "127.0.0.1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signed == "" {
		t.Fatal("signed token should not be empty")
	}

	parsed, err := issuer.Parse(signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Subject != "alice" {
		t.Errorf("expected subject alice, got %s", parsed.Subject)
	}
	if parsed.Issuer != "127.0.0.1" {
		t.Errorf("expected issuer 127.0.0.1, got %s", parsed.Issuer)
	}
	if parsed.ID != claims.ID {
		t.Errorf("jti mismatch: %s != %s", parsed.ID, claims.ID)
	}

	id, err := parsed.TokenID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == uuid.Nil {
		t.Error("jti should be a valid uuid")
	}
}

func TestTokenIssuer_ParseExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)

	// Выпускаем токен в прошлом, чтобы он уже истёк
	signed, _, err := issuer.Issue("alice", "", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = issuer.Parse(signed)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenIssuer_ParseWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	signed, _, err := issuer.Issue("alice", "", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = other.Parse(signed)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenIssuer_ParseGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	tests := []string{
		"",
		"not-a-token",
		"aaaa.bbbb.cccc",
	}

	for _, tokenString := range tests {
		if _, err := issuer.Parse(tokenString); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Parse(%q): expected ErrTokenInvalid, got %v", tokenString, err)
		}
	}
}

func TestTokenIssuer_DefaultTTL(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 0)
	if issuer.TTL() != DefaultTokenTTL {
		t.Errorf("expected default TTL %v, got %v", DefaultTokenTTL, issuer.TTL())
	}
}
