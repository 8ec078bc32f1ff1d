package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/internal/models"
)

// BackfillReport summarises a legacy recipe migration run.
type BackfillReport struct {
	Personal int `json:"personal"`
	Company  int `json:"company"`
	Skipped  int `json:"skipped"`
	Orphaned int `json:"orphaned"`
}

// BackfillService moves legacy recipes into the personal and company tables.
type BackfillService struct {
	db *gorm.DB
}

func NewBackfillService(db *gorm.DB) *BackfillService {
	return &BackfillService{db: db}
}

// BackfillRecipes moves every legacy recipe to company_recipes when it has a
// company and to personal_recipes otherwise. Recipes whose name already exists
// for the target owner are left in place. With dryRun nothing is written.
func (s *BackfillService) BackfillRecipes(ctx context.Context, dryRun bool) (*BackfillReport, error) {
	var legacy []models.Recipe
	if err := s.db.WithContext(ctx).Preload("Ingredients").Order("created_at").Find(&legacy).Error; err != nil {
		return nil, fmt.Errorf("failed to list legacy recipes: %w", err)
	}

	report := &BackfillReport{}
	for i := range legacy {
		recipe := &legacy[i]
		log := logger.Get(ctx).With(zap.String("recipe_id", recipe.ID.String()), zap.String("name", recipe.Name))

		var moved string
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			moved, err = moveLegacyRecipe(tx, recipe)
			if err != nil {
				return err
			}
			if dryRun {
				return errDryRun
			}
			return nil
		})
		if err != nil && !errors.Is(err, errDryRun) {
			return report, fmt.Errorf("failed to move recipe %s: %w", recipe.ID, err)
		}

		switch moved {
		case models.RecipeTypePersonal:
			report.Personal++
		case models.RecipeTypeCompany:
			report.Company++
		case "orphan":
			report.Orphaned++
		default:
			report.Skipped++
		}
		log.Debug("legacy recipe processed", zap.String("result", moved), zap.Bool("dry_run", dryRun))
	}
	return report, nil
}

var errDryRun = errors.New("dry run")

func nameTaken(tx *gorm.DB, model interface{}, column string, owner uuid.UUID, name string) (bool, error) {
	var count int64
	err := tx.Model(model).
		Where(column+" = ? AND LOWER(TRIM(name)) = ?", owner, strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error
	return count > 0, err
}

// moveLegacyRecipe copies one legacy recipe and reports where it went:
// "personal", "company", "orphan" or "" when a recipe with that name exists.
func moveLegacyRecipe(tx *gorm.DB, recipe *models.Recipe) (string, error) {
	var (
		target     string
		newID      uuid.UUID
		companyIDs []uuid.UUID
	)

	switch {
	case recipe.CompanyID != nil:
		company, err := loadCompany(tx, *recipe.CompanyID)
		if err != nil {
			return "", err
		}
		taken, err := nameTaken(tx, &models.CompanyRecipe{}, "company_id", company.ID, recipe.Name)
		if err != nil || taken {
			return "", err
		}
		createdBy := company.OwnerID
		if recipe.UserID != nil {
			createdBy = *recipe.UserID
		}
		moved := &models.CompanyRecipe{
			CompanyID:     company.ID,
			CreatedByID:   createdBy,
			RecipeContent: recipe.RecipeContent,
		}
		if err := tx.Omit("Ingredients", "Categories").Create(moved).Error; err != nil {
			return "", err
		}
		target, newID, companyIDs = models.RecipeTypeCompany, moved.ID, []uuid.UUID{company.ID}
	case recipe.UserID != nil:
		taken, err := nameTaken(tx, &models.PersonalRecipe{}, "user_id", *recipe.UserID, recipe.Name)
		if err != nil || taken {
			return "", err
		}
		moved := &models.PersonalRecipe{
			UserID:        *recipe.UserID,
			RecipeContent: recipe.RecipeContent,
		}
		if err := tx.Omit("Ingredients", "Categories").Create(moved).Error; err != nil {
			return "", err
		}
		target, newID = models.RecipeTypePersonal, moved.ID
	default:
		return "orphan", nil
	}

	if err := tx.Model(&models.Ingredient{}).
		Where("recipe_id = ? AND recipe_type = ?", recipe.ID, models.RecipeTypeLegacy).
		Updates(map[string]interface{}{"recipe_id": newID, "recipe_type": target}).Error; err != nil {
		return "", err
	}

	if recipe.Category != "" {
		var category models.Category
		q := tx.Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(recipe.Category)))
		if len(companyIDs) > 0 {
			q = q.Where("(company_id IS NULL OR company_id IN ?)", companyIDs)
		} else {
			q = q.Where("company_id IS NULL")
		}
		err := q.Order("CASE WHEN company_id IS NULL THEN 1 ELSE 0 END").First(&category).Error
		switch {
		case err == nil:
			table, key := "personal_recipe_categories", "personal_recipe_id"
			if target == models.RecipeTypeCompany {
				table, key = "company_recipe_categories", "company_recipe_id"
			}
			if err := tx.Exec("INSERT INTO "+table+" ("+key+", category_id) VALUES (?, ?)", newID, category.ID).Error; err != nil {
				return "", err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return "", err
		}
	}

	if err := tx.Delete(recipe).Error; err != nil {
		return "", err
	}
	return target, nil
}
