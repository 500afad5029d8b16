package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gridrelay/pkg/logger"
)

const requestIDHeader = "X-Request-ID"
const requestIDContextKey = "request_id"

// RequestID tags each request with a unique id for tracing. An id supplied
// by the caller is kept, otherwise a fresh one is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Set(requestIDContextKey, requestID)

		c.Next()
	}
}

// GetRequestID retrieves the request id set by RequestID
func GetRequestID(c *gin.Context) string {
	if id, ok := c.Get(requestIDContextKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// RequestLogger logs each HTTP request with timing information. WebSocket
// upgrades are logged on connect by the hub, so /ws is skipped here.
func RequestLogger() gin.HandlerFunc {
	log := logger.Get().With("component", "http")
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/ws" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		log.InfoWith("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"requestID", GetRequestID(c),
		)
	}
}
