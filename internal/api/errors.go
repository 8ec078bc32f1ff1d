package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/internal/service"
)

var errorStatuses = []struct {
	kind   error
	status int
}{
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrGone, http.StatusGone},
	{service.ErrUnavailable, http.StatusServiceUnavailable},
}

// respondError maps service error kinds to HTTP statuses. Anything else is a
// 500 whose cause is attached to the context for the error log.
func respondError(c *gin.Context, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.kind) {
			c.JSON(e.status, gin.H{"error": err.Error()})
			return
		}
	}

	_ = c.Error(err)
	logger.Error(c.Request.Context(), "request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// paramID parses a UUID path parameter, answering 400 when it is malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
