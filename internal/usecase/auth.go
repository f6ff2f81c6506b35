package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newsline/accounts-service/internal/core/domain"
	"github.com/newsline/accounts-service/internal/core/port"
	"github.com/newsline/accounts-service/internal/repository"
)

const revocationReasonLogout = "logout"

// AuthService handles login, token refresh, logout and profile reads.
type AuthService struct {
	users      port.UserRepository
	tokens     port.TokenService
	revocation port.RevocationStore
	hasher     PasswordHasher
	now        func() time.Time
}

func NewAuthService(
	users port.UserRepository,
	tokens port.TokenService,
	revocation port.RevocationStore,
	hasher PasswordHasher,
) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		revocation: revocation,
		hasher:     hasher,
		now:        time.Now,
	}
}

// Login verifies the password and mints a token pair. An unknown email
// and a wrong password both come back as ErrInvalidCredentials; whether
// the account exists is never disclosed here. The activation state is
// only revealed after the password checked out.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("get user by email: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, nil, ErrNotActivated
	}

	pair, err := s.tokens.IssuePair(user, s.now())
	if err != nil {
		return nil, nil, fmt.Errorf("issue token pair: %w", err)
	}

	user.PasswordHash = ""
	return pair, user, nil
}

// RefreshResult carries the access token minted by Refresh.
type RefreshResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is returned unchanged by the caller and stays
// usable until it expires or is revoked. The revocation ledger is
// consulted before the expiry verdict, so a token that is both revoked
// and expired reports revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	token, parseErr := s.tokens.ParseRefresh(refreshToken)
	if parseErr != nil && !errors.Is(parseErr, port.ErrTokenExpired) {
		return nil, ErrTokenInvalid
	}

	revoked, _, err := s.revocation.IsRevoked(ctx, token.JTI)
	if err != nil {
		return nil, fmt.Errorf("check revocation ledger: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	if errors.Is(parseErr, port.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	if !user.IsActive {
		return nil, ErrNotActivated
	}

	access, expiresAt, err := s.tokens.IssueAccess(user, s.now())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &RefreshResult{AccessToken: access, AccessExpiresAt: expiresAt}, nil
}

// Logout revokes the refresh token by writing its jti to the ledger
// with a TTL matching the token's remaining life. Revoking an already
// revoked token succeeds, so retried logouts are harmless.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	token, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, port.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}

	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrTokenExpired
	}

	if err := s.revocation.MarkRevoked(ctx, token.JTI, revocationReasonLogout, ttl); err != nil {
		return fmt.Errorf("mark token revoked: %w", err)
	}

	return nil
}

// Profile returns the sanitized account for the authenticated user.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}
