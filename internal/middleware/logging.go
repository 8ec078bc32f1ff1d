package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/internal/service"
)

const (
	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-Id"
	// RequestIDKey is the gin context key of the request id.
	RequestIDKey = "request_id"
)

// RequestLogger tags each request with an id, attaches a request scoped
// logger and the client IP to the context, and logs the outcome.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		ctx := logger.WithFields(c.Request.Context(), zap.String("request_id", requestID))
		ctx = service.WithClientIP(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error(c.Request.Context(), "request failed", fields...)
		case status >= 400:
			logger.Warn(c.Request.Context(), "request rejected", fields...)
		default:
			logger.Info(c.Request.Context(), "request completed", fields...)
		}
	}
}
