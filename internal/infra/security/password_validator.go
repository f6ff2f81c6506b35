package security

import (
	"errors"
	"strings"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	minPasswordScore  = 2
)

var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 128 characters")
	ErrPasswordNoLetter   = errors.New("password must contain a letter")
	ErrPasswordNoDigit    = errors.New("password must contain a digit")
	ErrPasswordTooWeak    = errors.New("password is too guessable")
	ErrPasswordLikeInputs = errors.New("password must not contain the email address")
)

// PasswordValidator rejects weak passwords before they reach the hasher.
// Structural rules run first, then zxcvbn scores the remainder against
// the user's own inputs.
type PasswordValidator struct{}

func NewPasswordValidator() *PasswordValidator {
	return &PasswordValidator{}
}

// Validate checks the candidate password. userInputs, typically the
// email and names, lower a password's score when it resembles them.
func (v *PasswordValidator) Validate(password string, userInputs ...string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		return ErrPasswordNoLetter
	}
	if !hasDigit {
		return ErrPasswordNoDigit
	}

	lowered := strings.ToLower(password)
	for _, input := range userInputs {
		input = strings.ToLower(strings.TrimSpace(input))
		if input != "" && len(input) >= 4 && strings.Contains(lowered, input) {
			return ErrPasswordLikeInputs
		}
	}

	if zxcvbn.PasswordStrength(password, userInputs).Score < minPasswordScore {
		return ErrPasswordTooWeak
	}

	return nil
}
