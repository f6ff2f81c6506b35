package domain

import "time"

// ActivationCodeTTL bounds how long an issued code can be redeemed.
const ActivationCodeTTL = 24 * time.Hour

// ActivationCode is the single live one-time code bound to a pending
// user. The user reference is the primary key, so issuing a new code
// replaces the previous one instead of accumulating duplicates.
type ActivationCode struct {
	UserID    string
	Code      string
	CreatedAt time.Time
}

// IsExpired reports whether the code has aged past its redemption
// window. The boundary itself is still valid: a code submitted exactly
// ActivationCodeTTL after creation is accepted.
func (c ActivationCode) IsExpired(at time.Time) bool {
	return at.After(c.CreatedAt.Add(ActivationCodeTTL))
}

// Matches compares the submitted value against the stored code. The
// comparison is exact; no trimming or normalization is applied here.
func (c ActivationCode) Matches(submitted string) bool {
	return c.Code == submitted
}
