package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/internal/models"
	"github.com/gastro-elite/backend/internal/types"
)

type CompanyService struct {
	db    *gorm.DB
	audit *AuditService
}

var _ ICompanyService = (*CompanyService)(nil)

func NewCompanyService(db *gorm.DB, audit *AuditService) *CompanyService {
	return &CompanyService{db: db, audit: audit}
}

// loadCompany fetches a company or reports ErrNotFound.
func loadCompany(tx *gorm.DB, companyID uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := tx.First(&company, "id = ?", companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "company not found")
		}
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	return &company, nil
}

// ownedCompany returns the company when userID owns it.
func ownedCompany(tx *gorm.DB, userID, companyID uuid.UUID) (*models.Company, error) {
	company, err := loadCompany(tx, companyID)
	if err != nil {
		return nil, err
	}
	if company.OwnerID != userID {
		return nil, newError(ErrForbidden, "only the company owner can do this")
	}
	return company, nil
}

// memberCompany returns the company when userID is a member of it, owner included.
func memberCompany(tx *gorm.DB, userID, companyID uuid.UUID) (*models.Company, error) {
	company, err := loadCompany(tx, companyID)
	if err != nil {
		return nil, err
	}
	if company.OwnerID == userID {
		return company, nil
	}
	var count int64
	if err := tx.Model(&models.CompanyMembership{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if count == 0 {
		return nil, newError(ErrForbidden, "not a member of this company")
	}
	return company, nil
}

// approvedOwnedCompany returns the approved company userID owns.
func approvedOwnedCompany(tx *gorm.DB, userID uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := tx.Where("owner_id = ?", userID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrForbidden, "you do not own a company")
		}
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	if !company.IsApproved() {
		return nil, ErrCompanyNotApproved
	}
	return &company, nil
}

// approvedMemberCompanyIDs lists the approved companies userID belongs to.
func approvedMemberCompanyIDs(tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := tx.Model(&models.CompanyMembership{}).
		Joins("JOIN companies ON companies.id = company_memberships.company_id").
		Where("company_memberships.user_id = ? AND companies.status = ?", userID, models.CompanyApproved).
		Pluck("company_memberships.company_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}
	return ids, nil
}

// GetCompanyForUser returns the company the user owns, else the first one they joined.
func (s *CompanyService) GetCompanyForUser(ctx context.Context, userID uuid.UUID) (*models.Company, error) {
	db := s.db.WithContext(ctx)

	var company models.Company
	err := db.Where("owner_id = ?", userID).First(&company).Error
	if err == nil {
		return &company, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load company: %w", err)
	}

	var membership models.CompanyMembership
	if err := db.Preload("Company").Where("user_id = ?", userID).Order("created_at").First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "you are not part of a company")
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	if membership.Company == nil {
		return nil, newError(ErrNotFound, "company not found")
	}
	return membership.Company, nil
}

func (s *CompanyService) UpdateCompany(ctx context.Context, userID, companyID uuid.UUID, req *types.CompanyDetails) (*models.Company, error) {
	db := s.db.WithContext(ctx)
	company, err := ownedCompany(db, userID, companyID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newError(ErrInvalidInput, "company name is required")
	}
	if err := checkDisplayName("company name", name); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"name":       name,
		"address":    req.Address,
		"phone":      req.Phone,
		"vat_number": req.VATNumber,
	}
	if err := db.Model(company).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	s.audit.Record(ctx, &userID, "company.update", "company", company.ID.String(), name)
	return loadCompany(db, companyID)
}

func (s *CompanyService) ListEmployees(ctx context.Context, userID, companyID uuid.UUID) ([]types.EmployeeResponse, error) {
	db := s.db.WithContext(ctx)
	if _, err := memberCompany(db, userID, companyID); err != nil {
		return nil, err
	}

	var memberships []models.CompanyMembership
	if err := db.Preload("User").Where("company_id = ?", companyID).Order("created_at").Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	employees := make([]types.EmployeeResponse, 0, len(memberships))
	for _, m := range memberships {
		if m.User == nil {
			continue
		}
		employees = append(employees, types.EmployeeResponse{
			UserID:   m.UserID,
			Name:     m.User.Name,
			Email:    m.User.Email,
			Role:     m.Role,
			JoinedAt: m.CreatedAt,
		})
	}
	return employees, nil
}

func (s *CompanyService) RemoveEmployee(ctx context.Context, userID, companyID, employeeID uuid.UUID) error {
	db := s.db.WithContext(ctx)
	company, err := ownedCompany(db, userID, companyID)
	if err != nil {
		return err
	}
	if employeeID == company.OwnerID {
		return newError(ErrInvalidInput, "the owner cannot be removed from the company")
	}

	res := db.Where("company_id = ? AND user_id = ? AND role = ?", companyID, employeeID, models.RoleEmployee).
		Delete(&models.CompanyMembership{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove employee: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return newError(ErrNotFound, "employee not found")
	}

	s.audit.Record(ctx, &userID, "company.remove_employee", "company", companyID.String(), employeeID.String())
	return nil
}
