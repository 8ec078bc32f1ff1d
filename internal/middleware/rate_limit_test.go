package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRateLimiterIsAllowed(t *testing.T) {
	_, client := setupRedis(t)
	rl := NewLoginRateLimiter(client, 2, time.Minute)
	ctx := context.Background()

	allowed, remaining, _, err := rl.IsAllowed(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	allowed, remaining, _, err = rl.IsAllowed(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)

	allowed, _, reset, err := rl.IsAllowed(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.True(t, reset.After(time.Now()))

	// Other clients have their own budget
	allowed, remaining, _, err = rl.IsAllowed(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
}

func TestRateLimiterMiddleware(t *testing.T) {
	_, client := setupRedis(t)
	rl := NewPasswordResetRateLimiter(client, 1, time.Hour)

	r := gin.New()
	r.POST("/reset", rl.Middleware(ByClientIP), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/reset", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		r.ServeHTTP(w, req)
		return w
	}

	w := do()
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiterFailsOpen(t *testing.T) {
	mr, client := setupRedis(t)
	rl := NewLoginRateLimiter(client, 1, time.Minute)
	mr.Close()

	r := gin.New()
	r.POST("/login", rl.Middleware(ByClientIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiterWithoutRedis(t *testing.T) {
	rl := NewLoginRateLimiter(nil, 1, time.Minute)

	r := gin.New()
	r.POST("/login", rl.Middleware(ByClientIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
