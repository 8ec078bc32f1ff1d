package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/internal/logger"
	"github.com/gastro-elite/backend/internal/models"
	"github.com/gastro-elite/backend/internal/types"
)

// DemoPassword is the password of every demo account.
const DemoPassword = "testpassword123"

type demoUser struct {
	name    string
	email   string
	account models.AccountType
	admin   bool
}

var demoUsers = []demoUser{
	{name: "Admin User", email: "admin@example.com", account: models.AccountPersonal, admin: true},
	{name: "Jane Smith", email: "jane.smith@example.com", account: models.AccountPersonal},
	{name: "John Doe", email: "john.doe@example.com", account: models.AccountBusiness},
	{name: "Bob Wilson", email: "bob.wilson@example.com", account: models.AccountPersonal},
}

const demoCompanyName = "Demo Bistro"

// SeedReport counts what a demo seed created.
type SeedReport struct {
	Users      int `json:"users"`
	Categories int `json:"categories"`
	Recipes    int `json:"recipes"`
}

// SeedService fills a development database with demo data.
type SeedService struct {
	db         *gorm.DB
	recipes    *RecipeService
	categories *CategoryService
}

func NewSeedService(db *gorm.DB, recipes *RecipeService, categories *CategoryService) *SeedService {
	return &SeedService{db: db, recipes: recipes, categories: categories}
}

// SeedDemo creates demo users, an approved company with John Doe as owner and
// Bob Wilson as employee, and a few recipes. Existing users are left alone and
// recipes are only added for users created by this run.
func (s *SeedService) SeedDemo(ctx context.Context) (*SeedReport, error) {
	report := &SeedReport{}

	created, err := s.categories.SeedDefaults(ctx)
	if err != nil {
		return nil, err
	}
	report.Categories = created

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash demo password: %w", err)
	}

	users := make(map[string]*models.User, len(demoUsers))
	fresh := make(map[string]bool, len(demoUsers))
	for _, d := range demoUsers {
		var user models.User
		err := s.db.WithContext(ctx).Where("email = ?", d.email).First(&user).Error
		switch {
		case err == nil:
			logger.Info(ctx, "demo user exists, skipping", zap.String("email", d.email))
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				Name:         d.name,
				Email:        d.email,
				PasswordHash: string(hash),
				AccountType:  d.account,
				IsAdmin:      d.admin,
			}
			if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
				return nil, fmt.Errorf("failed to create demo user %s: %w", d.email, err)
			}
			fresh[d.email] = true
			report.Users++
		default:
			return nil, fmt.Errorf("failed to look up demo user %s: %w", d.email, err)
		}
		users[d.email] = &user
	}

	owner := users["john.doe@example.com"]
	if fresh[owner.Email] {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			company := &models.Company{Name: demoCompanyName, OwnerID: owner.ID, Status: models.CompanyApproved}
			if err := tx.Create(company).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.CompanyMembership{CompanyID: company.ID, UserID: owner.ID, Role: models.RoleOwner}).Error; err != nil {
				return err
			}
			employee := users["bob.wilson@example.com"]
			return tx.Create(&models.CompanyMembership{CompanyID: company.ID, UserID: employee.ID, Role: models.RoleEmployee}).Error
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create demo company: %w", err)
		}
	}

	recipes := []struct {
		email string
		req   types.RecipeRequest
	}{
		{"john.doe@example.com", types.RecipeRequest{
			Scope: ScopeCompany, Name: "Coq au vin", Servings: 4, PrepMinutes: 30, CookMinutes: 150,
			Instructions: "Marinate the chicken overnight in red wine, then braise slowly with lardons and mushrooms.",
			Ingredients: []types.IngredientInput{
				{Name: "Chicken", Quantity: 1.5, Unit: "kg"},
				{Name: "Red wine", Quantity: 750, Unit: "ml"},
				{Name: "Mushrooms", Quantity: 250, Unit: "g"},
			},
		}},
		{"john.doe@example.com", types.RecipeRequest{
			Scope: ScopeCompany, Name: "Crème brûlée", Servings: 6, PrepMinutes: 20, CookMinutes: 40,
			Ingredients: []types.IngredientInput{
				{Name: "Cream", Quantity: 500, Unit: "ml"},
				{Name: "Egg yolks", Quantity: 6},
				{Name: "Sugar", Quantity: 100, Unit: "g"},
			},
		}},
		{"jane.smith@example.com", types.RecipeRequest{
			Scope: ScopePersonal, Name: "Shakshuka", Servings: 2, PrepMinutes: 10, CookMinutes: 25,
			Ingredients: []types.IngredientInput{
				{Name: "Eggs", Quantity: 4},
				{Name: "Tomatoes", Quantity: 400, Unit: "g"},
			},
		}},
	}
	for _, r := range recipes {
		if !fresh[r.email] {
			continue
		}
		req := r.req
		if _, err := s.recipes.CreateRecipe(ctx, users[r.email].ID, &req); err != nil {
			return nil, fmt.Errorf("failed to create demo recipe %s: %w", req.Name, err)
		}
		report.Recipes++
	}

	return report, nil
}
