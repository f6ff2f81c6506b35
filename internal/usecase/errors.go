package usecase

import "errors"

var (
	// Registration.
	ErrInvalidEmail            = errors.New("email address is invalid")
	ErrNameTooLong             = errors.New("name exceeds the allowed length")
	ErrPasswordConfirmMismatch = errors.New("password confirmation does not match")
	ErrEmailTaken              = errors.New("email already registered")

	// Activation.
	ErrUserNotFound  = errors.New("user not found")
	ErrAlreadyActive = errors.New("account already active")
	ErrCodeNotFound  = errors.New("no activation code issued")
	ErrCodeExpired   = errors.New("activation code expired")
	ErrCodeMismatch  = errors.New("activation code does not match")

	// Authentication.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotActivated       = errors.New("account is not activated")
	ErrTokenRevoked       = errors.New("refresh token revoked")
	ErrTokenExpired       = errors.New("refresh token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)
