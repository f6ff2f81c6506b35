package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newsline/accounts-service/internal/infra/logger"
	"github.com/newsline/accounts-service/internal/infra/security"
	"github.com/newsline/accounts-service/internal/usecase"
)

// errorCase binds a sentinel error to its HTTP representation. Cases
// are matched in order with errors.Is; anything unmatched is a 500.
type errorCase struct {
	err    error
	status int
	code   string
}

var errorCases = []errorCase{
	{usecase.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{usecase.ErrNameTooLong, http.StatusBadRequest, "name_too_long"},
	{usecase.ErrPasswordConfirmMismatch, http.StatusBadRequest, "password_confirm_mismatch"},
	{usecase.ErrEmailTaken, http.StatusBadRequest, "email_taken"},

	{security.ErrPasswordTooShort, http.StatusBadRequest, "password_too_short"},
	{security.ErrPasswordTooLong, http.StatusBadRequest, "password_too_long"},
	{security.ErrPasswordNoLetter, http.StatusBadRequest, "password_no_letter"},
	{security.ErrPasswordNoDigit, http.StatusBadRequest, "password_no_digit"},
	{security.ErrPasswordTooWeak, http.StatusBadRequest, "password_too_weak"},
	{security.ErrPasswordLikeInputs, http.StatusBadRequest, "password_like_inputs"},

	{usecase.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{usecase.ErrAlreadyActive, http.StatusBadRequest, "already_active"},
	{usecase.ErrCodeNotFound, http.StatusBadRequest, "code_not_found"},
	{usecase.ErrCodeExpired, http.StatusBadRequest, "code_expired"},
	{usecase.ErrCodeMismatch, http.StatusBadRequest, "code_mismatch"},

	{usecase.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{usecase.ErrNotActivated, http.StatusUnauthorized, "not_activated"},
	{usecase.ErrTokenRevoked, http.StatusUnauthorized, "token_revoked"},
	{usecase.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
	{usecase.ErrTokenInvalid, http.StatusUnauthorized, "token_invalid"},
}

func respondError(c *gin.Context, err error) {
	for _, mapped := range errorCases {
		if errors.Is(err, mapped.err) {
			c.JSON(mapped.status, errorResponse{Error: mapped.err.Error(), Code: mapped.code})
			return
		}
	}

	logger.WithContext(c.Request.Context()).Error("unhandled handler error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"})
}

func respondBindError(c *gin.Context) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body", Code: "bad_request"})
}
