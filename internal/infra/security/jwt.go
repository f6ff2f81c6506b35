package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/newsline/accounts-service/internal/core/domain"
	"github.com/newsline/accounts-service/internal/core/port"
)

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"
)

type accessClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
}

type refreshClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid"`
	TokenType string `json:"token_type"`
}

// TokenIssuer mints and parses HS256-signed token pairs. The refresh
// token's jti doubles as the revocation ledger key.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair mints a fresh access/refresh token pair for the user. The
// refresh token gets a new random jti every time.
func (t *TokenIssuer) IssuePair(user *domain.User, now time.Time) (*domain.TokenPair, error) {
	accessExpiry := now.Add(t.accessTTL)
	refreshExpiry := now.Add(t.refreshTTL)

	access, err := t.signAccess(user, now, accessExpiry)
	if err != nil {
		return nil, err
	}

	refresh, err := t.signRefresh(user, now, refreshExpiry)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// IssueAccess mints only an access token, used by the refresh flow.
func (t *TokenIssuer) IssueAccess(user *domain.User, now time.Time) (string, time.Time, error) {
	expiry := now.Add(t.accessTTL)
	token, err := t.signAccess(user, now, expiry)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiry, nil
}

func (t *TokenIssuer) signAccess(user *domain.User, now, expiry time.Time) (string, error) {
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: accessTokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) signRefresh(user *domain.User, now, expiry time.Time) (string, error) {
	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		UserID:    user.ID,
		TokenType: refreshTokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// ParseAccess validates an access token's signature and expiry.
func (t *TokenIssuer) ParseAccess(token string) (*port.AccessToken, error) {
	claims := &accessClaims{}
	if err := t.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != accessTokenType || claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, port.ErrTokenInvalid
	}

	return &port.AccessToken{
		UserID:    claims.UserID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ParseRefresh validates a refresh token and rejects tokens of any
// other type. Expired tokens come back with ErrTokenExpired alongside
// the parsed token so callers can still read the jti.
func (t *TokenIssuer) ParseRefresh(token string) (*port.RefreshToken, error) {
	claims := &refreshClaims{}
	err := t.parse(token, claims)
	if err != nil && !errors.Is(err, port.ErrTokenExpired) {
		return nil, err
	}

	if claims.TokenType != refreshTokenType || claims.ID == "" || claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, port.ErrTokenInvalid
	}

	return &port.RefreshToken{
		UserID:    claims.UserID,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, err
}

func (t *TokenIssuer) parse(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return port.ErrTokenExpired
		}
		return port.ErrTokenInvalid
	}

	if !parsed.Valid {
		return port.ErrTokenInvalid
	}

	return nil
}

var _ port.TokenService = (*TokenIssuer)(nil)
