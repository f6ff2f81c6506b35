package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/newsline/accounts-service/internal/core/port"
)

// RequireAuth validates the Bearer access token and stores the caller's
// identity on the request context. Requests without a valid token stop
// here with 401.
func RequireAuth(tokens port.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, value, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		access, err := tokens.ParseAccess(strings.TrimSpace(value))
		if err != nil {
			if errors.Is(err, port.ErrTokenExpired) {
				abortUnauthorized(c, "access token expired")
				return
			}
			abortUnauthorized(c, "access token invalid")
			return
		}

		c.Set(userIDKey, access.UserID)
		c.Set(userEmailKey, access.Email)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  "unauthorized",
	})
}
