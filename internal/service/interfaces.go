package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/gastro-elite/backend/internal/models"
	"github.com/gastro-elite/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	GenerateToken(user *models.User) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetAccount(ctx context.Context, userID uuid.UUID) (*types.AccountResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// IEmailService defines the interface for transactional email
type IEmailService interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendWelcomeEmail(ctx context.Context, user *models.User) error
	SendRegistrationReceived(ctx context.Context, user *models.User, company *models.Company) error
	SendApprovalRequest(ctx context.Context, user *models.User, company *models.Company) error
	SendCompanyApproved(ctx context.Context, owner *models.User, company *models.Company) error
	SendCompanyRejected(ctx context.Context, owner *models.User, company *models.Company) error
	SendInvitation(ctx context.Context, invitation *models.EmployeeInvitation, company *models.Company, inviter *models.User) error
	SendPasswordReset(ctx context.Context, user *models.User, token string) error
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	ListRecipes(ctx context.Context, userID uuid.UUID, filter types.RecipeFilter) ([]types.RecipeResponse, error)
	GetRecipe(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID) (*types.RecipeResponse, error)
	CreateRecipe(ctx context.Context, userID uuid.UUID, req *types.RecipeRequest) (*types.RecipeResponse, error)
	UpdateRecipe(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID, req *types.RecipeRequest) (*types.RecipeResponse, error)
	DeleteRecipe(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID) error
	SetImage(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID, imageURL string) (*types.RecipeResponse, error)
	CheckWritable(ctx context.Context, userID uuid.UUID, scope string, id uuid.UUID) error
}

// ICompanyService defines the interface for company and employee operations
type ICompanyService interface {
	GetCompanyForUser(ctx context.Context, userID uuid.UUID) (*models.Company, error)
	UpdateCompany(ctx context.Context, userID, companyID uuid.UUID, req *types.CompanyDetails) (*models.Company, error)
	ListEmployees(ctx context.Context, userID, companyID uuid.UUID) ([]types.EmployeeResponse, error)
	RemoveEmployee(ctx context.Context, userID, companyID, employeeID uuid.UUID) error
}

// IInvitationService defines the interface for employee invitations
type IInvitationService interface {
	Invite(ctx context.Context, inviterID, companyID uuid.UUID, email string) (*models.EmployeeInvitation, error)
	List(ctx context.Context, userID, companyID uuid.UUID) ([]models.EmployeeInvitation, error)
	Revoke(ctx context.Context, userID, companyID, invitationID uuid.UUID) error
	Lookup(ctx context.Context, token string) (*types.InvitationLookup, error)
	Accept(ctx context.Context, userID uuid.UUID, token string) (*models.CompanyMembership, error)
	ExpireStale(ctx context.Context) (int64, error)
}

// ICategoryService defines the interface for category operations
type ICategoryService interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
	Create(ctx context.Context, userID uuid.UUID, req *types.CategoryRequest) (*models.Category, error)
	Delete(ctx context.Context, userID, categoryID uuid.UUID) error
}

// IAdminService defines the interface for the admin dashboard
type IAdminService interface {
	Stats(ctx context.Context) (*types.AdminStats, error)
	ListUsers(ctx context.Context, query string, page types.Page) ([]models.User, int64, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
	SetAdmin(ctx context.Context, actorID, userID uuid.UUID, isAdmin bool) (*models.User, error)
	ListCompanies(ctx context.Context, status string, page types.Page) ([]models.Company, int64, error)
	ApproveCompany(ctx context.Context, actorID, companyID uuid.UUID) (*models.Company, error)
	RejectCompany(ctx context.Context, actorID, companyID uuid.UUID, reason string) (*models.Company, error)
}
