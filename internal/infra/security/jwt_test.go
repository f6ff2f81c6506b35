package security

import (
	"errors"
	"testing"
	"time"

	"github.com/newsline/accounts-service/internal/core/domain"
	"github.com/newsline/accounts-service/internal/core/port"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer("test-secret", "accounts-service", 15*time.Minute, 168*time.Hour)
}

func testUser() *domain.User {
	return &domain.User{
		ID:    "2f1a9c3e-5b7d-4f01-9c2a-8d6e4b3a1f00",
		Email: "reader@example.com",
	}
}

func TestIssuePairAndParse(t *testing.T) {
	issuer := newTestIssuer()
	now := time.Now()

	pair, err := issuer.IssuePair(testUser(), now)
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	access, err := issuer.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess returned error: %v", err)
	}
	if access.UserID != testUser().ID {
		t.Errorf("access uid = %s, want %s", access.UserID, testUser().ID)
	}
	if access.Email != testUser().Email {
		t.Errorf("access email = %s, want %s", access.Email, testUser().Email)
	}

	refresh, err := issuer.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ParseRefresh returned error: %v", err)
	}
	if refresh.UserID != testUser().ID {
		t.Errorf("refresh uid = %s, want %s", refresh.UserID, testUser().ID)
	}
	if refresh.JTI == "" {
		t.Error("refresh token missing jti")
	}
}

func TestRefreshJTIUniquePerIssue(t *testing.T) {
	issuer := newTestIssuer()
	now := time.Now()

	first, err := issuer.IssuePair(testUser(), now)
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}
	second, err := issuer.IssuePair(testUser(), now)
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	a, _ := issuer.ParseRefresh(first.RefreshToken)
	b, _ := issuer.ParseRefresh(second.RefreshToken)
	if a.JTI == b.JTI {
		t.Fatal("expected distinct jti per issued refresh token")
	}
}

func TestParseRefreshRejectsAccessToken(t *testing.T) {
	issuer := newTestIssuer()

	pair, err := issuer.IssuePair(testUser(), time.Now())
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	if _, err := issuer.ParseRefresh(pair.AccessToken); !errors.Is(err, port.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for access token, got %v", err)
	}
	if _, err := issuer.ParseAccess(pair.RefreshToken); !errors.Is(err, port.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for refresh token, got %v", err)
	}
}

func TestParseExpiredTokens(t *testing.T) {
	issuer := newTestIssuer()
	past := time.Now().Add(-200 * time.Hour)

	pair, err := issuer.IssuePair(testUser(), past)
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	if _, err := issuer.ParseAccess(pair.AccessToken); !errors.Is(err, port.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired for access token, got %v", err)
	}

	token, err := issuer.ParseRefresh(pair.RefreshToken)
	if !errors.Is(err, port.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired for refresh token, got %v", err)
	}
	if token == nil || token.JTI == "" {
		t.Fatal("expected token with jti alongside ErrTokenExpired")
	}
}

func TestParseRejectsTamperedSignature(t *testing.T) {
	issuer := newTestIssuer()
	other := NewTokenIssuer("other-secret", "accounts-service", 15*time.Minute, 168*time.Hour)

	pair, err := other.IssuePair(testUser(), time.Now())
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	if _, err := issuer.ParseAccess(pair.AccessToken); !errors.Is(err, port.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign signature, got %v", err)
	}
	if _, err := issuer.ParseRefresh(pair.RefreshToken); !errors.Is(err, port.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign signature, got %v", err)
	}

	if _, err := issuer.ParseRefresh("not.a.token"); !errors.Is(err, port.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage token, got %v", err)
	}
}
