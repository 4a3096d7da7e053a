package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"userdesk/pkg/logger"
)

// maxRequestIDLength bounds ids accepted from callers.
const maxRequestIDLength = 128

// RequestID propagates the caller's X-Request-ID, or assigns a new one,
// into the request context and the response headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(logger.RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Header(logger.RequestIDHeader, id)
		c.Next()
	}
}
