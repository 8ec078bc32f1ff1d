package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastro-elite/backend/internal/models"
)

type memoryRecorder struct {
	mu      sync.Mutex
	entries []*models.ErrorLog
}

func (m *memoryRecorder) RecordError(_ context.Context, entry *models.ErrorLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorHandler(t *testing.T) {
	rec := &memoryRecorder{}
	r := gin.New()
	r.Use(RequestLogger(), ErrorHandler(rec))
	r.GET("/boom", func(c *gin.Context) {
		panic("kitchen on fire")
	})
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("database unreachable"))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	})
	r.GET("/missing", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "recipe not found"})
	})

	t.Run("panic is recovered and recorded", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
		require.Len(t, rec.entries, 1)
		assert.Equal(t, "panic: kitchen on fire", rec.entries[0].Message)
		assert.Equal(t, "/boom", rec.entries[0].Path)
		assert.NotEmpty(t, rec.entries[0].RequestID)
	})

	t.Run("server error is recorded with handler errors", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		require.Len(t, rec.entries, 2)
		assert.Equal(t, "database unreachable", rec.entries[1].Message)
		assert.Equal(t, http.StatusInternalServerError, rec.entries[1].Status)
	})

	t.Run("client errors are not recorded", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Len(t, rec.entries, 2)
	})
}

func TestRequestLoggerPropagatesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}
