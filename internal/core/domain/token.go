package domain

import "time"

// TokenPair carries the credentials minted at login: a short-lived
// access token and a longer-lived refresh token. Both are self-verifying
// JWTs; only revoked refresh tokens leave a durable trace (in the
// revocation ledger), so there is no issued-token table.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// ActivationEmail is the outbox payload handed to the delivery
// collaborator when a code is issued or reissued.
type ActivationEmail struct {
	Email     string
	FirstName string
	Code      string
	ExpiresAt time.Time
}
