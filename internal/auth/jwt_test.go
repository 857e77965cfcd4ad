package auth

import (
	"testing"
	"time"

	"outreach-platform/internal/config"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		JWTIssuer:       "outreach",
		JWTAudience:     "api",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()

	pair, err := m.IssuePair(now, "user-1", "ws-1", "manager")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token strings")
	}

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.WorkspaceID != "ws-1" || claims.Role != "manager" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m := testManager(t)
	pair, err := m.IssuePair(time.Now(), "u", "w", "r")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if _, err := m.Verify(pair.RefreshToken, TokenTypeAccess, time.Now()); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()
	pair, err := m.IssuePair(now, "u", "w", "r")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, now.Add(16*time.Minute)); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m := testManager(t)
	other, err := NewManager(config.AuthConfig{
		JWTSecret: "different", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	pair, err := other.IssuePair(time.Now(), "u", "w", "r")
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if _, err := m.Verify(pair.AccessToken, TokenTypeAccess, time.Now()); err == nil {
		t.Fatal("foreign signature accepted")
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(config.AuthConfig{}); err == nil {
		t.Fatal("empty secret accepted")
	}
}
