package testhelpers

import (
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/internal/models"
)

// DefaultPassword is the plain-text password of every fixture user.
const DefaultPassword = "password123"

// UserOption customises a fixture user.
type UserOption func(*models.User)

func Admin() UserOption {
	return func(u *models.User) { u.IsAdmin = true }
}

func Business() UserOption {
	return func(u *models.User) { u.AccountType = models.AccountBusiness }
}

// CreateUser inserts a user whose password is DefaultPassword.
func CreateUser(t *testing.T, db *gorm.DB, email string, opts ...UserOption) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Name:         "User " + email,
		Email:        email,
		PasswordHash: string(hash),
		AccountType:  models.AccountPersonal,
	}
	for _, opt := range opts {
		opt(user)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// CreateCompany inserts a company owned by owner together with the owner membership.
func CreateCompany(t *testing.T, db *gorm.DB, owner *models.User, name string, status models.CompanyStatus) *models.Company {
	t.Helper()
	company := &models.Company{
		Name:    name,
		OwnerID: owner.ID,
		Status:  status,
	}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("failed to create company: %v", err)
	}
	AddMember(t, db, company, owner, models.RoleOwner)
	return company
}

// AddMember adds user to company with role.
func AddMember(t *testing.T, db *gorm.DB, company *models.Company, user *models.User, role models.MembershipRole) *models.CompanyMembership {
	t.Helper()
	membership := &models.CompanyMembership{
		CompanyID: company.ID,
		UserID:    user.ID,
		Role:      role,
	}
	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
	return membership
}

// CreatePersonalRecipe inserts a personal recipe with one ingredient.
func CreatePersonalRecipe(t *testing.T, db *gorm.DB, owner *models.User, name string) *models.PersonalRecipe {
	t.Helper()
	recipe := &models.PersonalRecipe{
		UserID:        owner.ID,
		RecipeContent: models.RecipeContent{Name: name, Servings: 2},
		Ingredients:   []models.Ingredient{{Name: "Salt", Quantity: 1, Unit: "tsp"}},
	}
	if err := db.Create(recipe).Error; err != nil {
		t.Fatalf("failed to create personal recipe: %v", err)
	}
	return recipe
}

// CreateCompanyRecipe inserts a recipe of company created by its owner.
func CreateCompanyRecipe(t *testing.T, db *gorm.DB, company *models.Company, name string) *models.CompanyRecipe {
	t.Helper()
	recipe := &models.CompanyRecipe{
		CompanyID:     company.ID,
		CreatedByID:   company.OwnerID,
		RecipeContent: models.RecipeContent{Name: name, Servings: 10},
		Ingredients:   []models.Ingredient{{Name: "Butter", Quantity: 250, Unit: "g"}},
	}
	if err := db.Create(recipe).Error; err != nil {
		t.Fatalf("failed to create company recipe: %v", err)
	}
	return recipe
}

// CreateLegacyRecipe inserts a row in the legacy recipes table.
func CreateLegacyRecipe(t *testing.T, db *gorm.DB, userID, companyID *uuid.UUID, name, category string) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		UserID:        userID,
		CompanyID:     companyID,
		Category:      category,
		RecipeContent: models.RecipeContent{Name: name},
		Ingredients:   []models.Ingredient{{Name: "Flour", Quantity: 500, Unit: "g"}},
	}
	if err := db.Create(recipe).Error; err != nil {
		t.Fatalf("failed to create legacy recipe: %v", err)
	}
	return recipe
}
