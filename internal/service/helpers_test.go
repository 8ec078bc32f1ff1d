package service_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/internal/service"
	"github.com/gastro-elite/backend/internal/testhelpers"
)

// recordingSender keeps every message instead of delivering it.
type recordingSender struct {
	mu       sync.Mutex
	messages []service.Message
}

func (r *recordingSender) Send(_ context.Context, msg *service.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *recordingSender) sentTo(to string) []service.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []service.Message
	for _, m := range r.messages {
		if m.To == to {
			out = append(out, m)
		}
	}
	return out
}

// waitForMail blocks until a message to `to` arrives and returns the latest one.
func (r *recordingSender) waitForMail(t *testing.T, to string) service.Message {
	t.Helper()
	assert.Eventually(t, func() bool {
		return len(r.sentTo(to)) > 0
	}, 2*time.Second, 10*time.Millisecond, "no email sent to %s", to)
	msgs := r.sentTo(to)
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

type testEnv struct {
	db          *gorm.DB
	mail        *recordingSender
	audit       *service.AuditService
	email       *service.EmailService
	auth        *service.AuthService
	companies   *service.CompanyService
	invitations *service.InvitationService
	recipes     *service.RecipeService
	categories  *service.CategoryService
	admin       *service.AdminService
}

const adminAddress = "admin@gastro-elite.test"

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testhelpers.SetupTestDatabase(t)
	mail := &recordingSender{}

	email, err := service.NewEmailService(mail, "http://app.test", adminAddress)
	require.NoError(t, err)
	audit := service.NewAuditService(db)

	return &testEnv{
		db:          db,
		mail:        mail,
		audit:       audit,
		email:       email,
		auth:        service.NewAuthService(db, "test-secret", time.Hour, email, audit),
		companies:   service.NewCompanyService(db, audit),
		invitations: service.NewInvitationService(db, email, audit),
		recipes:     service.NewRecipeService(db, audit),
		categories:  service.NewCategoryService(db, audit),
		admin:       service.NewAdminService(db, email, audit),
	}
}

var tokenPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)

func extractToken(t *testing.T, body string) string {
	t.Helper()
	m := tokenPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "no token in %q", body)
	return m[1]
}
