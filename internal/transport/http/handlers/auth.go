package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newsline/accounts-service/internal/infra/logger"
	"github.com/newsline/accounts-service/internal/transport/http/middleware"
	"github.com/newsline/accounts-service/internal/usecase"
)

// AuthHandler serves login, token refresh, logout and profile reads.
type AuthHandler struct {
	auth *usecase.AuthService
}

func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login verifies credentials and returns a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	pair, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("login succeeded",
		zap.String("user_id", user.ID),
	)

	c.JSON(http.StatusOK, tokenPairResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	})
}

// Refresh exchanges a live refresh token for a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, accessTokenResponse{
		AccessToken:     result.AccessToken,
		AccessExpiresAt: result.AccessExpiresAt,
	})
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Profile returns the authenticated user's account.
func (h *AuthHandler) Profile(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required", Code: "unauthorized"})
		return
	}

	user, err := h.auth.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}
