package api_test

import (
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastro-elite/backend/internal/middleware"
	"github.com/gastro-elite/backend/internal/testhelpers"
	"github.com/gastro-elite/backend/internal/types"
)

func TestRegisterAndSession(t *testing.T) {
	app := setupApp(t, nil, nil)

	w := app.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"name": "Julia", "email": "Julia@Example.com", "password": "bouillabaisse",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)

	w = app.do(t, request{method: http.MethodGet, path: "/api/auth/me", token: cookie.Value})
	require.Equal(t, http.StatusOK, w.Code)
	var account types.AccountResponse
	decode(t, w, &account)
	assert.Equal(t, "julia@example.com", account.User.Email)
	assert.Empty(t, account.Memberships)

	assert.Contains(t, app.mail.latest(t, "julia@example.com").Subject, "Welcome")

	t.Run("duplicate email", func(t *testing.T) {
		w := app.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
			"name": "Other", "email": "julia@example.com", "password": "bouillabaisse",
		}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password", func(t *testing.T) {
		w := app.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
			"name": "Short", "email": "short@example.com", "password": "123",
		}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		w := app.do(t, request{method: http.MethodPost, path: "/api/auth/logout"})
		require.Equal(t, http.StatusOK, w.Code)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "", cookies[0].Value)
		assert.True(t, cookies[0].MaxAge < 0)
	})
}

func TestLogin(t *testing.T) {
	app := setupApp(t, nil, nil)
	testhelpers.CreateUser(t, app.db, "chef@example.com")

	w := app.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email": "chef@example.com", "password": "wrong-password",
	}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := app.login(t, "chef@example.com", testhelpers.DefaultPassword)

	req := request{method: http.MethodGet, path: "/api/auth/me"}
	assert.Equal(t, http.StatusUnauthorized, app.do(t, req).Code)

	req.token = token
	assert.Equal(t, http.StatusOK, app.do(t, req).Code)
}

func TestChangePassword(t *testing.T) {
	app := setupApp(t, nil, nil)
	testhelpers.CreateUser(t, app.db, "chef@example.com")
	token := app.login(t, "chef@example.com", testhelpers.DefaultPassword)

	w := app.do(t, request{method: http.MethodPut, path: "/api/auth/password", token: token, body: map[string]string{
		"current_password": "not-it-at-all", "new_password": "new-password-1",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, request{method: http.MethodPut, path: "/api/auth/password", token: token, body: map[string]string{
		"current_password": testhelpers.DefaultPassword, "new_password": "new-password-1",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	app.login(t, "chef@example.com", "new-password-1")
}

func TestPasswordReset(t *testing.T) {
	app := setupApp(t, nil, nil)
	testhelpers.CreateUser(t, app.db, "chef@example.com")

	// Unknown addresses get the same answer
	w := app.do(t, request{method: http.MethodPost, path: "/api/auth/forgot-password", body: map[string]string{
		"email": "nobody@example.com",
	}})
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, request{method: http.MethodPost, path: "/api/auth/forgot-password", body: map[string]string{
		"email": "chef@example.com",
	}})
	require.Equal(t, http.StatusOK, w.Code)

	msg := app.mail.latest(t, "chef@example.com")
	token := tokenFromMail(t, msg.HTML)

	body := map[string]string{"token": token, "password": "fresh-password"}
	w = app.do(t, request{method: http.MethodPost, path: "/api/auth/reset-password", body: body})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Single use
	w = app.do(t, request{method: http.MethodPost, path: "/api/auth/reset-password", body: body})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	app.login(t, "chef@example.com", "fresh-password")
}

func TestLoginRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	app := setupApp(t, client, nil)
	body := map[string]string{"email": "nobody@example.com", "password": "whatever1"}

	for i := 0; i < 3; i++ {
		w := app.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: body})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := app.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: body})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
