package port

import (
	"errors"
	"time"

	"github.com/newsline/accounts-service/internal/core/domain"
)

var (
	// ErrTokenExpired marks a token whose signature checked out but
	// whose lifetime has elapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid marks a token that is malformed, carries a bad
	// signature, or is of the wrong type for the operation.
	ErrTokenInvalid = errors.New("token invalid")
)

// AccessToken is the validated view of an access token.
type AccessToken struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// RefreshToken is the validated view of a refresh token. JTI is the
// revocation ledger key.
type RefreshToken struct {
	UserID    string
	JTI       string
	ExpiresAt time.Time
}

// TokenService mints and validates the access/refresh token pair.
//
// ParseRefresh returns the token alongside ErrTokenExpired when only
// the lifetime failed, so callers can still reach the jti of an
// expired token.
type TokenService interface {
	IssuePair(user *domain.User, now time.Time) (*domain.TokenPair, error)
	IssueAccess(user *domain.User, now time.Time) (string, time.Time, error)
	ParseAccess(token string) (*AccessToken, error)
	ParseRefresh(token string) (*RefreshToken, error)
}
