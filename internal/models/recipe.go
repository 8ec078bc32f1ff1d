package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Polymorphic owner values stored in ingredients.recipe_type.
const (
	RecipeTypePersonal = "personal"
	RecipeTypeCompany  = "company"
	RecipeTypeLegacy   = "legacy"
)

// RecipeContent holds the fields every recipe kind shares.
type RecipeContent struct {
	Name         string `gorm:"size:255;not null;index" json:"name"`
	Description  string `gorm:"type:text" json:"description"`
	Instructions string `gorm:"type:text" json:"instructions"`
	Servings     int    `json:"servings"`
	PrepMinutes  int    `json:"prep_minutes"`
	CookMinutes  int    `json:"cook_minutes"`
	ImageURL     string `gorm:"size:512" json:"image_url"`
}

type PersonalRecipe struct {
	Base
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	RecipeContent
	Ingredients []Ingredient `gorm:"polymorphic:Recipe;polymorphicValue:personal" json:"ingredients"`
	Categories  []Category   `gorm:"many2many:personal_recipe_categories;" json:"categories"`
}

type CompanyRecipe struct {
	Base
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CompanyID   uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"company_id"`
	CreatedByID uuid.UUID      `gorm:"type:varchar(36);not null" json:"created_by_id"`
	RecipeContent
	Ingredients []Ingredient `gorm:"polymorphic:Recipe;polymorphicValue:company" json:"ingredients"`
	Categories  []Category   `gorm:"many2many:company_recipe_categories;" json:"categories"`
}

// Recipe is the legacy single-table recipe. New rows are written to
// PersonalRecipe or CompanyRecipe; existing rows are still served and can be
// moved with the backfill command.
type Recipe struct {
	Base
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    *uuid.UUID     `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	CompanyID *uuid.UUID     `gorm:"type:varchar(36);index" json:"company_id,omitempty"`
	Category  string         `gorm:"size:100" json:"category"`
	RecipeContent
	Ingredients []Ingredient `gorm:"polymorphic:Recipe;polymorphicValue:legacy" json:"ingredients"`
}

type Ingredient struct {
	Base
	RecipeID   uuid.UUID `gorm:"type:varchar(36);not null;index:idx_ingredient_recipe" json:"-"`
	RecipeType string    `gorm:"size:20;not null;index:idx_ingredient_recipe" json:"-"`
	Name       string    `gorm:"not null" json:"name"`
	Quantity   float64   `json:"quantity"`
	Unit       string    `gorm:"size:30" json:"unit"`
	Position   int       `json:"position"`
}

type Category struct {
	Base
	Name      string     `gorm:"size:100;not null" json:"name"`
	CompanyID *uuid.UUID `gorm:"type:varchar(36);index" json:"company_id,omitempty"`
}
