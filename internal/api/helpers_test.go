package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/config"
	"github.com/gastro-elite/backend/internal/middleware"
	"github.com/gastro-elite/backend/internal/router"
	"github.com/gastro-elite/backend/internal/server"
	"github.com/gastro-elite/backend/internal/service"
	"github.com/gastro-elite/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mailbox struct {
	mu       sync.Mutex
	messages []service.Message
}

func (m *mailbox) Send(_ context.Context, msg *service.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, *msg)
	return nil
}

// latest waits for a message to `to` and returns the most recent one.
func (m *mailbox) latest(t *testing.T, to string) service.Message {
	t.Helper()
	return m.withSubject(t, to, "")
}

// withSubject waits for a message to `to` whose subject contains subject.
func (m *mailbox) withSubject(t *testing.T, to, subject string) service.Message {
	t.Helper()
	var found *service.Message
	assert.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i := len(m.messages) - 1; i >= 0; i-- {
			if m.messages[i].To == to && strings.Contains(m.messages[i].Subject, subject) {
				msg := m.messages[i]
				found = &msg
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "no email sent to %s", to)
	require.NotNil(t, found)
	return *found
}

type testApp struct {
	db     *gorm.DB
	mail   *mailbox
	router *gin.Engine
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:        config.Test,
		AppURL:             "http://app.test",
		AdminEmail:         "admin@gastro-elite.test",
		JWTSecret:          "api-test-secret",
		TokenTTL:           time.Hour,
		CORSAllowedOrigins: []string{"http://app.test"},
		LoginRateLimit:     3,
		ResetRateLimit:     3,
		RateLimitWindow:    time.Minute,
	}
}

func setupApp(t *testing.T, redisClient *redis.Client, store service.ObjectStore) *testApp {
	t.Helper()
	db := testhelpers.SetupTestDatabase(t)
	mail := &mailbox{}
	cfg := testConfig()

	services, err := server.NewServices(db, redisClient, mail, store, cfg)
	require.NoError(t, err)

	return &testApp{
		db:     db,
		mail:   mail,
		router: router.SetupRouter(cfg, services),
	}
}

type request struct {
	method string
	path   string
	body   interface{}
	token  string
}

func (a *testApp) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if r.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(r.body))
	}
	req := httptest.NewRequest(r.method, r.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: r.token})
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// login returns the session token of an existing user.
func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()
	w := a.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email": email, "password": password,
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

var invitePattern = regexp.MustCompile(`/invite/([0-9a-f]{64})`)

var resetPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)

func tokenFromMail(t *testing.T, body string) string {
	t.Helper()
	m := resetPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "no token in %q", body)
	return m[1]
}

func inviteTokenFromMail(t *testing.T, body string) string {
	t.Helper()
	m := invitePattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "no invitation link in %q", body)
	return m[1]
}
