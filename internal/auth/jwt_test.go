package auth

import (
	"testing"
	"time"

	"timetrack/internal/domain"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	u := &domain.User{ID: "u-123", Username: "carol", Role: domain.RoleAdmin}

	token, err := m.Mint(u)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	id, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != "u-123" {
		t.Errorf("subject: want u-123, got %q", id.UserID)
	}
	if id.Role != domain.RoleAdmin {
		t.Errorf("role: want admin, got %q", id.Role)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Mint(&domain.User{ID: "u", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := NewTokenManager("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute)
	// Negative TTL falls back to the default, so build an expired manager
	// the long way.
	m.ttl = -time.Minute
	token, err := m.Mint(&domain.User{ID: "u", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := m.Verify(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	if _, err := m.Verify("not.a.token"); err == nil {
		t.Fatal("garbage token must be rejected")
	}
}
