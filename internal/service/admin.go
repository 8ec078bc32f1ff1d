package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/internal/models"
	"github.com/gastro-elite/backend/internal/types"
)

type AdminService struct {
	db    *gorm.DB
	email IEmailService
	audit *AuditService
	now   func() time.Time
}

var _ IAdminService = (*AdminService)(nil)

func NewAdminService(db *gorm.DB, email IEmailService, audit *AuditService) *AdminService {
	return &AdminService{db: db, email: email, audit: audit, now: time.Now}
}

// actorRef turns the system actor (uuid.Nil, used by the CLI) into a nil pointer.
func actorRef(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func (s *AdminService) Stats(ctx context.Context) (*types.AdminStats, error) {
	db := s.db.WithContext(ctx)
	stats := &types.AdminStats{Companies: map[string]int64{
		string(models.CompanyPending):  0,
		string(models.CompanyApproved): 0,
		string(models.CompanyRejected): 0,
	}}

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.Model(&models.User{}), &stats.Users},
		{db.Model(&models.User{}).Where("is_admin = ?", true), &stats.Admins},
		{db.Model(&models.PersonalRecipe{}), &stats.PersonalRecipes},
		{db.Model(&models.CompanyRecipe{}), &stats.CompanyRecipes},
		{db.Model(&models.Recipe{}), &stats.LegacyRecipes},
		{db.Model(&models.EmployeeInvitation{}).Where("status = ? AND expires_at > ?", models.InvitationPending, s.now()), &stats.PendingInvitations},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count: %w", err)
		}
	}

	var rows []struct {
		Status string
		Total  int64
	}
	if err := db.Model(&models.Company{}).Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}
	for _, r := range rows {
		stats.Companies[r.Status] = r.Total
	}

	return stats, nil
}

func (s *AdminService) ListUsers(ctx context.Context, query string, page types.Page) ([]models.User, int64, error) {
	page = page.Normalize()
	q := s.db.WithContext(ctx).Model(&models.User{})
	if term := strings.TrimSpace(query); term != "" {
		like := containsPattern(term)
		q = q.Where(`(LOWER(email) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\')`, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	var users []models.User
	if err := q.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// FindUserByEmail looks a user up by address, for the admin CLI.
func (s *AdminService) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", normalizeEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "no user with email %s", email)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// DeleteUser removes the user with their memberships, recipes, pending
// invitations and reset tokens. Company owners must be handled first.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return newError(ErrInvalidInput, "you cannot delete your own account")
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "user not found")
			}
			return err
		}

		var owned int64
		if err := tx.Model(&models.Company{}).Where("owner_id = ?", userID).Count(&owned).Error; err != nil {
			return err
		}
		if owned > 0 {
			return newError(ErrConflict, "user owns a company and cannot be deleted")
		}

		return deleteUserData(tx, userID)
	})
	if err != nil {
		return wrapInternal("failed to delete user", err)
	}

	s.audit.Record(ctx, actorRef(actorID), "admin.delete_user", "user", userID.String(), user.Email)
	return nil
}

func deleteUserData(tx *gorm.DB, userID uuid.UUID) error {
	personal := tx.Unscoped().Model(&models.PersonalRecipe{}).Select("id").Where("user_id = ?", userID)
	legacy := tx.Unscoped().Model(&models.Recipe{}).Select("id").Where("user_id = ?", userID)

	steps := []func() error{
		func() error {
			return tx.Where("recipe_type = ? AND recipe_id IN (?)", models.RecipeTypePersonal, personal).Delete(&models.Ingredient{}).Error
		},
		func() error {
			return tx.Where("recipe_type = ? AND recipe_id IN (?)", models.RecipeTypeLegacy, legacy).Delete(&models.Ingredient{}).Error
		},
		func() error {
			return tx.Exec("DELETE FROM personal_recipe_categories WHERE personal_recipe_id IN (?)", personal).Error
		},
		func() error {
			return tx.Unscoped().Where("user_id = ?", userID).Delete(&models.PersonalRecipe{}).Error
		},
		func() error {
			return tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Recipe{}).Error
		},
		func() error {
			return tx.Where("user_id = ?", userID).Delete(&models.CompanyMembership{}).Error
		},
		func() error {
			return tx.Where("invited_by_id = ? AND status = ?", userID, models.InvitationPending).Delete(&models.EmployeeInvitation{}).Error
		},
		func() error {
			return tx.Where("user_id = ?", userID).Delete(&models.PasswordResetToken{}).Error
		},
		func() error {
			return tx.Delete(&models.User{}, "id = ?", userID).Error
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (s *AdminService) SetAdmin(ctx context.Context, actorID, userID uuid.UUID, isAdmin bool) (*models.User, error) {
	if actorID == userID && !isAdmin {
		return nil, newError(ErrInvalidInput, "you cannot revoke your own admin rights")
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := db.Model(&user).Update("is_admin", isAdmin).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.IsAdmin = isAdmin

	s.audit.Record(ctx, actorRef(actorID), "admin.set_admin", "user", userID.String(), fmt.Sprintf("is_admin=%t", isAdmin))
	return &user, nil
}

func (s *AdminService) ListCompanies(ctx context.Context, status string, page types.Page) ([]models.Company, int64, error) {
	page = page.Normalize()
	q := s.db.WithContext(ctx).Model(&models.Company{})
	if status != "" {
		switch models.CompanyStatus(status) {
		case models.CompanyPending, models.CompanyApproved, models.CompanyRejected:
		default:
			return nil, 0, newError(ErrInvalidInput, "unknown company status %q", status)
		}
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count companies: %w", err)
	}
	var companies []models.Company
	if err := q.Preload("Owner").Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&companies).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, total, nil
}

func (s *AdminService) ApproveCompany(ctx context.Context, actorID, companyID uuid.UUID) (*models.Company, error) {
	company, err := s.review(ctx, actorID, companyID, models.CompanyApproved, "")
	if err != nil {
		return nil, err
	}
	if company.Owner == nil {
		return company, nil
	}
	dispatch(ctx, "company approved", func(ctx context.Context) error {
		return s.email.SendCompanyApproved(ctx, company.Owner, company)
	})
	return company, nil
}

func (s *AdminService) RejectCompany(ctx context.Context, actorID, companyID uuid.UUID, reason string) (*models.Company, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newError(ErrInvalidInput, "a rejection reason is required")
	}
	company, err := s.review(ctx, actorID, companyID, models.CompanyRejected, reason)
	if err != nil {
		return nil, err
	}
	if company.Owner == nil {
		return company, nil
	}
	dispatch(ctx, "company rejected", func(ctx context.Context) error {
		return s.email.SendCompanyRejected(ctx, company.Owner, company)
	})
	return company, nil
}

// review moves a pending company to status. Reviewed companies are final.
func (s *AdminService) review(ctx context.Context, actorID, companyID uuid.UUID, status models.CompanyStatus, reason string) (*models.Company, error) {
	var company models.Company
	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Owner").First(&company, "id = ?", companyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "company not found")
			}
			return err
		}
		if company.Status != models.CompanyPending {
			return newError(ErrConflict, "company is already %s", company.Status)
		}

		updates := map[string]interface{}{
			"status":           status,
			"rejection_reason": reason,
			"reviewed_at":      now,
			"reviewed_by_id":   actorRef(actorID),
		}
		res := tx.Model(&models.Company{}).
			Where("id = ? AND status = ?", companyID, models.CompanyPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(ErrConflict, "company has already been reviewed")
		}

		if status == models.CompanyApproved {
			if _, err := ensureOwnerMembership(tx, &company); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapInternal("failed to review company", err)
	}

	company.Status = status
	company.RejectionReason = reason
	company.ReviewedAt = &now
	company.ReviewedByID = actorRef(actorID)

	s.audit.Record(ctx, actorRef(actorID), "admin.company_"+string(status), "company", companyID.String(), reason)
	return &company, nil
}

// ensureOwnerMembership creates the owner membership when it is missing.
func ensureOwnerMembership(tx *gorm.DB, company *models.Company) (bool, error) {
	var count int64
	if err := tx.Model(&models.CompanyMembership{}).
		Where("company_id = ? AND user_id = ?", company.ID, company.OwnerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	err := tx.Create(&models.CompanyMembership{
		CompanyID: company.ID,
		UserID:    company.OwnerID,
		Role:      models.RoleOwner,
	}).Error
	return err == nil, err
}

// BackfillMemberships adds the owner membership to every company that lacks one.
func (s *AdminService) BackfillMemberships(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)
	var companies []models.Company
	if err := db.Find(&companies).Error; err != nil {
		return 0, fmt.Errorf("failed to list companies: %w", err)
	}

	created := 0
	for i := range companies {
		ok, err := ensureOwnerMembership(db, &companies[i])
		if err != nil {
			return created, fmt.Errorf("failed to add owner of %s: %w", companies[i].Name, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}
