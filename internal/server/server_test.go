package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastro-elite/backend/config"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{
		Environment:        config.Test,
		ServerHost:         "localhost",
		ServerPort:         "0",
		AppURL:             "http://localhost:3000",
		DBDriver:           "sqlite",
		SQLitePath:         t.TempDir() + "/server.db",
		AutoMigrate:        true,
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		EmailProvider:      "log",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		LoginRateLimit:     10,
		ResetRateLimit:     5,
		RateLimitWindow:    time.Minute,
	}

	srv, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, srv.Shutdown(context.Background()))
	})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/recipes", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
