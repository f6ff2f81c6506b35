package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newsline/accounts-service/internal/infra/logger"
	"github.com/newsline/accounts-service/internal/usecase"
)

// RegistrationHandler serves registration and activation endpoints.
type RegistrationHandler struct {
	registration *usecase.RegistrationService
	activation   *usecase.ActivationService
}

func NewRegistrationHandler(registration *usecase.RegistrationService, activation *usecase.ActivationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration, activation: activation}
}

// Register creates a pending account and dispatches its activation code.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	user, err := h.registration.Register(c.Request.Context(), usecase.RegisterInput{
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("account registered",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)),
	)

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Activate redeems an activation code and flips the account to active.
func (h *RegistrationHandler) Activate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	user, err := h.activation.Activate(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("account activated",
		zap.String("user_id", user.ID),
	)

	c.JSON(http.StatusOK, toUserResponse(user))
}

// ResendCode issues a fresh activation code for a pending account.
func (h *RegistrationHandler) ResendCode(c *gin.Context) {
	var req resendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	if err := h.registration.ResendCode(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Message: "activation code sent"})
}
