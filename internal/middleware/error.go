package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/internal/models"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorRecorder persists server-side failures.
type ErrorRecorder interface {
	RecordError(ctx context.Context, entry *models.ErrorLog)
}

// ErrorHandler recovers panics and records every 5xx response in the error log.
// Clients only ever see a generic message for server errors.
func ErrorHandler(recorder ErrorRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				ctx := c.Request.Context()
				logger.Error(ctx, "panic recovered",
					zap.Any("panic", rec),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", debug.Stack()))
				record(c, recorder, http.StatusInternalServerError, fmt.Sprintf("panic: %v", rec))
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
				} else {
					c.Abort()
				}
			}
		}()

		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError {
			return
		}
		msg := http.StatusText(c.Writer.Status())
		if len(c.Errors) > 0 {
			msg = strings.Join(c.Errors.Errors(), "; ")
		}
		record(c, recorder, c.Writer.Status(), msg)
	}
}

func record(c *gin.Context, recorder ErrorRecorder, status int, msg string) {
	if recorder == nil {
		return
	}
	entry := &models.ErrorLog{
		RequestID: c.GetString(RequestIDKey),
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
		Status:    status,
		Message:   msg,
	}
	if userID, ok := UserID(c); ok {
		entry.UserID = &userID
	}
	recorder.RecordError(c.Request.Context(), entry)
}
