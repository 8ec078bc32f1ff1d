package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastro-elite/backend/internal/models"
	"github.com/gastro-elite/backend/internal/service"
	"github.com/gastro-elite/backend/internal/testhelpers"
	"github.com/gastro-elite/backend/internal/types"
)

func TestRegisterPersonal(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, &types.RegisterRequest{
		Name:     "Anna Cook",
		Email:    "  Anna@Example.com ",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", user.Email)
	assert.Equal(t, models.AccountPersonal, user.AccountType)
	assert.NotEqual(t, "password123", user.PasswordHash)

	msg := env.mail.waitForMail(t, "anna@example.com")
	assert.Contains(t, msg.Subject, "Welcome")
	assert.Contains(t, msg.HTML, "Anna Cook")

	var companies int64
	require.NoError(t, env.db.Model(&models.Company{}).Count(&companies).Error)
	assert.Zero(t, companies)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := setupEnv(t)
	testhelpers.CreateUser(t, env.db, "taken@example.com")

	_, err := env.auth.Register(context.Background(), &types.RegisterRequest{
		Name:     "Someone",
		Email:    "TAKEN@example.com",
		Password: "password123",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, service.ErrEmailTaken, err)
}

func TestRegisterBusiness(t *testing.T) {
	env := setupEnv(t)

	user, err := env.auth.Register(context.Background(), &types.RegisterRequest{
		Name:        "Bram Chef",
		Email:       "bram@bistro.test",
		Password:    "password123",
		AccountType: "business",
		Company:     &types.CompanyDetails{Name: "Bistro Bram", VATNumber: "NL001"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.AccountBusiness, user.AccountType)

	var company models.Company
	require.NoError(t, env.db.Where("owner_id = ?", user.ID).First(&company).Error)
	assert.Equal(t, "Bistro Bram", company.Name)
	assert.Equal(t, models.CompanyPending, company.Status)

	var membership models.CompanyMembership
	require.NoError(t, env.db.Where("company_id = ? AND user_id = ?", company.ID, user.ID).First(&membership).Error)
	assert.Equal(t, models.RoleOwner, membership.Role)

	received := env.mail.waitForMail(t, "bram@bistro.test")
	assert.Contains(t, received.Subject, "Bistro Bram")
	approval := env.mail.waitForMail(t, adminAddress)
	assert.Contains(t, approval.HTML, "NL001")
}

func TestRegisterBusinessRequiresCompany(t *testing.T) {
	env := setupEnv(t)

	_, err := env.auth.Register(context.Background(), &types.RegisterRequest{
		Name:        "No Company",
		Email:       "nc@example.com",
		Password:    "password123",
		AccountType: "business",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	var users int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestRegisterRejectsControlCharactersInNames(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, &types.RegisterRequest{
		Name:        "Acme Owner",
		Email:       "owner@acme.test",
		Password:    "password123",
		AccountType: "business",
		Company:     &types.CompanyDetails{Name: "Acme\r\nBcc: victim@evil.test"},
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = env.auth.Register(ctx, &types.RegisterRequest{
		Name:     "Eve\nBcc: victim@evil.test",
		Email:    "eve@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	var users int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)

	// Accents are fine
	_, err = env.auth.Register(ctx, &types.RegisterRequest{
		Name:        "Zoé",
		Email:       "zoe@cafe.test",
		Password:    "password123",
		AccountType: "business",
		Company:     &types.CompanyDetails{Name: "Café du Coin"},
	})
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	env := setupEnv(t)
	testhelpers.CreateUser(t, env.db, "chef@example.com")
	ctx := context.Background()

	user, err := env.auth.Login(ctx, "Chef@Example.com", testhelpers.DefaultPassword)
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)

	_, err = env.auth.Login(ctx, "chef@example.com", "wrong-password")
	assert.Equal(t, service.ErrInvalidCredentials, err)

	_, err = env.auth.Login(ctx, "nobody@example.com", testhelpers.DefaultPassword)
	assert.Equal(t, service.ErrInvalidCredentials, err)
}

func TestTokenRoundTrip(t *testing.T) {
	env := setupEnv(t)
	user := testhelpers.CreateUser(t, env.db, "admin@example.com", testhelpers.Admin())

	token, err := env.auth.GenerateToken(user)
	require.NoError(t, err)

	claims, err := env.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "gastro-elite", claims.Issuer)

	_, err = env.auth.ValidateToken(token + "x")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	other := service.NewAuthService(env.db, "other-secret", 0, env.email, env.audit)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	env := setupEnv(t)
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "gastro-elite"},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = env.auth.ValidateToken(token)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestGetAccount(t *testing.T) {
	env := setupEnv(t)
	owner := testhelpers.CreateUser(t, env.db, "owner@example.com", testhelpers.Business())
	company := testhelpers.CreateCompany(t, env.db, owner, "Café Noir", models.CompanyPending)

	account, err := env.auth.GetAccount(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, account.User.ID)
	require.Len(t, account.Memberships, 1)
	assert.Equal(t, company.ID, account.Memberships[0].CompanyID)
	assert.Equal(t, models.CompanyPending, account.Memberships[0].CompanyStatus)
	assert.Equal(t, models.RoleOwner, account.Memberships[0].Role)
}

func TestChangePassword(t *testing.T) {
	env := setupEnv(t)
	user := testhelpers.CreateUser(t, env.db, "pw@example.com")
	ctx := context.Background()

	err := env.auth.ChangePassword(ctx, user.ID, "not-current", "newpassword1")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	require.NoError(t, env.auth.ChangePassword(ctx, user.ID, testhelpers.DefaultPassword, "newpassword1"))
	_, err = env.auth.Login(ctx, "pw@example.com", "newpassword1")
	assert.NoError(t, err)
}

func TestPasswordReset(t *testing.T) {
	env := setupEnv(t)
	testhelpers.CreateUser(t, env.db, "forgot@example.com")
	ctx := context.Background()

	require.NoError(t, env.auth.RequestPasswordReset(ctx, "forgot@example.com"))
	require.NoError(t, env.auth.RequestPasswordReset(ctx, "unknown@example.com"))

	msg := env.mail.waitForMail(t, "forgot@example.com")
	assert.Contains(t, msg.HTML, "http://app.test/reset-password?token=")
	assert.Empty(t, env.mail.sentTo("unknown@example.com"))

	var record models.PasswordResetToken
	require.NoError(t, env.db.First(&record).Error)
	token := extractToken(t, msg.HTML)
	assert.NotEqual(t, token, record.TokenHash)

	require.NoError(t, env.auth.ResetPassword(ctx, token, "brandnewpass"))
	_, err := env.auth.Login(ctx, "forgot@example.com", "brandnewpass")
	assert.NoError(t, err)

	err = env.auth.ResetPassword(ctx, token, "anotherpass1")
	assert.Equal(t, service.ErrInvalidResetToken, err)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	env := setupEnv(t)
	testhelpers.CreateUser(t, env.db, "late@example.com")
	ctx := context.Background()

	require.NoError(t, env.auth.RequestPasswordReset(ctx, "late@example.com"))
	msg := env.mail.waitForMail(t, "late@example.com")
	require.NoError(t, env.db.Model(&models.PasswordResetToken{}).Where("1 = 1").
		Update("expires_at", time.Now().Add(-2*time.Hour)).Error)

	err := env.auth.ResetPassword(ctx, extractToken(t, msg.HTML), "brandnewpass")
	assert.Equal(t, service.ErrInvalidResetToken, err)
}
