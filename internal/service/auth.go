package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/internal/models"
	"github.com/gastro-elite/backend/internal/types"
)

const (
	tokenIssuer       = "gastro-elite"
	resetTokenTTL     = time.Hour
	minPasswordLength = 8
)

var ErrInvalidToken = newError(ErrUnauthorized, "invalid token")

type AuthService struct {
	db        *gorm.DB
	jwtSecret string
	tokenTTL  time.Duration
	email     IEmailService
	audit     *AuditService
	now       func() time.Time
}

var _ IAuthService = (*AuthService)(nil)

func NewAuthService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration, email IEmailService, audit *AuditService) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		email:     email,
		audit:     audit,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkDisplayName rejects names that carry control characters. Names end up
// in email subjects.
func checkDisplayName(field, name string) error {
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return newError(ErrInvalidInput, "%s must not contain control characters", field)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	accountType := models.AccountType(req.AccountType)
	if accountType == "" {
		accountType = models.AccountPersonal
	}
	if !accountType.Valid() {
		return nil, newError(ErrInvalidInput, "unknown account type %q", req.AccountType)
	}
	if accountType == models.AccountBusiness && (req.Company == nil || strings.TrimSpace(req.Company.Name) == "") {
		return nil, newError(ErrInvalidInput, "company name is required for business accounts")
	}
	if len(req.Password) < minPasswordLength {
		return nil, newError(ErrInvalidInput, "password must be at least %d characters", minPasswordLength)
	}
	if err := checkDisplayName("name", req.Name); err != nil {
		return nil, err
	}
	if req.Company != nil {
		if err := checkDisplayName("company name", req.Company.Name); err != nil {
			return nil, err
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hashedPassword),
		AccountType:  accountType,
	}

	var company *models.Company
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return err
		}

		if accountType == models.AccountBusiness {
			company = &models.Company{
				Name:      strings.TrimSpace(req.Company.Name),
				Address:   req.Company.Address,
				Phone:     req.Company.Phone,
				VATNumber: req.Company.VATNumber,
				OwnerID:   user.ID,
				Status:    models.CompanyPending,
			}
			if err := tx.Create(company).Error; err != nil {
				return err
			}
			membership := &models.CompanyMembership{
				CompanyID: company.ID,
				UserID:    user.ID,
				Role:      models.RoleOwner,
			}
			if err := tx.Create(membership).Error; err != nil {
				return err
			}
		}

		if req.InvitationToken != "" {
			if _, err := acceptInvitation(tx, req.InvitationToken, user, s.now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapInternal("failed to register user", err)
	}

	s.audit.Record(ctx, &user.ID, "user.register", "user", user.ID.String(), string(accountType))

	if company != nil {
		dispatch(ctx, "registration received", func(ctx context.Context) error {
			return s.email.SendRegistrationReceived(ctx, user, company)
		})
		dispatch(ctx, "approval request", func(ctx context.Context) error {
			return s.email.SendApprovalRequest(ctx, user, company)
		})
	} else {
		dispatch(ctx, "welcome", func(ctx context.Context) error {
			return s.email.SendWelcomeEmail(ctx, user)
		})
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = &now

	return &user, nil
}

func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := s.now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID:      user.ID,
		Email:       user.Email,
		IsAdmin:     user.IsAdmin,
		AccountType: string(user.AccountType),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// GetAccount returns the user with every company membership
func (s *AuthService) GetAccount(ctx context.Context, userID uuid.UUID) (*types.AccountResponse, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var memberships []models.CompanyMembership
	if err := s.db.WithContext(ctx).Preload("Company").Where("user_id = ?", userID).Order("created_at").Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	account := &types.AccountResponse{User: user, Memberships: []types.MembershipResponse{}}
	for _, m := range memberships {
		if m.Company == nil {
			continue
		}
		account.Memberships = append(account.Memberships, types.MembershipResponse{
			CompanyID:     m.CompanyID,
			CompanyName:   m.Company.Name,
			CompanyStatus: m.Company.Status,
			Role:          m.Role,
		})
	}
	return account, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return newError(ErrInvalidInput, "current password is incorrect")
	}
	if err := s.setPassword(s.db.WithContext(ctx), user.ID, next); err != nil {
		return err
	}

	s.audit.Record(ctx, &user.ID, "user.password_change", "user", user.ID.String(), "")
	return nil
}

// RequestPasswordReset mails a reset link when the address is registered.
// Unknown addresses are not reported to the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	record := &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: s.now().Add(resetTokenTTL),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	dispatch(ctx, "password reset", func(ctx context.Context) error {
		return s.email.SendPasswordReset(ctx, &user, token)
	})
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	now := s.now()
	var userID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.PasswordResetToken
		if err := tx.Where("token_hash = ?", hashToken(token)).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidResetToken
			}
			return err
		}
		if record.UsedAt != nil || now.After(record.ExpiresAt) {
			return ErrInvalidResetToken
		}

		res := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND used_at IS NULL", record.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidResetToken
		}

		userID = record.UserID
		return s.setPassword(tx, record.UserID, password)
	})
	if err != nil {
		return wrapInternal("failed to reset password", err)
	}

	s.audit.Record(ctx, &userID, "user.password_reset", "user", userID.String(), "")
	return nil
}

func (s *AuthService) setPassword(tx *gorm.DB, userID uuid.UUID, password string) error {
	if len(password) < minPasswordLength {
		return newError(ErrInvalidInput, "password must be at least %d characters", minPasswordLength)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return tx.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", string(hashedPassword)).Error
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// wrapInternal passes client-facing errors through and wraps everything else.
func wrapInternal(msg string, err error) error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
