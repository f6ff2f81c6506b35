package middleware

import "github.com/gin-gonic/gin"

const (
	userIDKey    = "auth.user_id"
	userEmailKey = "auth.user_email"
)

// UserIDFromContext returns the authenticated user's id, or "" when the
// request did not pass RequireAuth.
func UserIDFromContext(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// UserEmailFromContext returns the authenticated user's email, or "".
func UserEmailFromContext(c *gin.Context) string {
	if v, ok := c.Get(userEmailKey); ok {
		if email, ok := v.(string); ok {
			return email
		}
	}
	return ""
}
