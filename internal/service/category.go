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

// DefaultCategories are the global categories created by seed-categories.
var DefaultCategories = []string{
	"Starters", "Soups", "Salads", "Main courses", "Side dishes",
	"Sauces", "Desserts", "Pastry", "Breakfast", "Drinks",
}

type CategoryService struct {
	db    *gorm.DB
	audit *AuditService
}

var _ ICategoryService = (*CategoryService)(nil)

func NewCategoryService(db *gorm.DB, audit *AuditService) *CategoryService {
	return &CategoryService{db: db, audit: audit}
}

// List returns the global categories plus those of every company the user belongs to.
func (s *CategoryService) List(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	db := s.db.WithContext(ctx)
	companies := db.Model(&models.CompanyMembership{}).Select("company_id").Where("user_id = ?", userID)

	var categories []models.Category
	if err := db.Where("company_id IS NULL OR company_id IN (?)", companies).
		Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, userID uuid.UUID, req *types.CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, newError(ErrInvalidInput, "category name is required")
	}

	var companyID *uuid.UUID
	if req.CompanyID != "" {
		id, err := uuid.Parse(req.CompanyID)
		if err != nil {
			return nil, newError(ErrInvalidInput, "invalid company id")
		}
		companyID = &id
	}

	category := &models.Category{Name: name, CompanyID: companyID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.authorize(tx, userID, companyID); err != nil {
			return err
		}

		query := tx.Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
		if companyID == nil {
			query = query.Where("company_id IS NULL")
		} else {
			query = query.Where("company_id = ?", *companyID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return newError(ErrConflict, "category %q already exists", name)
		}
		if err := tx.Create(category).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newError(ErrConflict, "category %q already exists", name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrapInternal("failed to create category", err)
	}

	s.audit.Record(ctx, &userID, "category.create", "category", category.ID.String(), name)
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, categoryID uuid.UUID) error {
	var category models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, "id = ?", categoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "category not found")
			}
			return err
		}
		if err := s.authorize(tx, userID, category.CompanyID); err != nil {
			return err
		}

		for _, table := range []string{"personal_recipe_categories", "company_recipe_categories"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE category_id = ?", categoryID).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		return wrapInternal("failed to delete category", err)
	}

	s.audit.Record(ctx, &userID, "category.delete", "category", categoryID.String(), category.Name)
	return nil
}

// authorize allows admins on global categories and owners on their company's.
func (s *CategoryService) authorize(tx *gorm.DB, userID uuid.UUID, companyID *uuid.UUID) error {
	if companyID != nil {
		_, err := ownedCompany(tx, userID, *companyID)
		return err
	}

	var user models.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrUnauthorized, "user not found")
		}
		return err
	}
	if !user.IsAdmin {
		return newError(ErrForbidden, "only administrators can manage global categories")
	}
	return nil
}

// SeedDefaults creates the missing default global categories.
func (s *CategoryService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, name := range DefaultCategories {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Category{}).
			Where("LOWER(name) = ? AND company_id IS NULL", strings.ToLower(name)).
			Count(&count).Error; err != nil {
			return created, fmt.Errorf("failed to check category %s: %w", name, err)
		}
		if count > 0 {
			continue
		}
		if err := s.db.WithContext(ctx).Create(&models.Category{Name: name}).Error; err != nil {
			return created, fmt.Errorf("failed to create category %s: %w", name, err)
		}
		created++
	}
	return created, nil
}
