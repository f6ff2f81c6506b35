package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/newsline/accounts-service/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns every request an identifier, honoring one supplied
// by the caller, and threads it through the context for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id)
		c.Request = c.Request.WithContext(ctx)

		c.Header(requestIDHeader, id)
		c.Next()
	}
}
