package types

// CompanyDetails is the company part of a business registration or update
type CompanyDetails struct {
	Name      string `json:"name" binding:"required"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	VATNumber string `json:"vat_number"`
}

// RegisterRequest represents a request to register a new user
type RegisterRequest struct {
	Name            string          `json:"name" binding:"required"`
	Email           string          `json:"email" binding:"required,email"`
	Password        string          `json:"password" binding:"required,min=8"`
	AccountType     string          `json:"account_type"`
	Company         *CompanyDetails `json:"company"`
	InvitationToken string          `json:"invitation_token"`
}

// LoginRequest represents a request to log in
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest represents a request to change the current password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// ForgotPasswordRequest represents a request for a password reset mail
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest represents a request to set a new password with a reset token
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// IngredientInput is one ingredient line of a recipe
type IngredientInput struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// RecipeRequest represents a request to create or update a recipe
type RecipeRequest struct {
	Scope        string            `json:"scope"`
	Name         string            `json:"name" binding:"required"`
	Description  string            `json:"description"`
	Instructions string            `json:"instructions"`
	Servings     int               `json:"servings" binding:"min=0"`
	PrepMinutes  int               `json:"prep_minutes" binding:"min=0"`
	CookMinutes  int               `json:"cook_minutes" binding:"min=0"`
	ImageURL     string            `json:"image_url"`
	Ingredients  []IngredientInput `json:"ingredients" binding:"dive"`
	CategoryIDs  []string          `json:"category_ids"`
}

// RecipeFilter narrows the unified recipe listing
type RecipeFilter struct {
	CategoryID string
	Query      string
}

// CategoryRequest represents a request to create a category
type CategoryRequest struct {
	Name      string `json:"name" binding:"required"`
	CompanyID string `json:"company_id"`
}

// InviteEmployeeRequest represents a request to invite an employee
type InviteEmployeeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RejectCompanyRequest carries the reason shown to the company owner
type RejectCompanyRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SetAdminRequest toggles the admin flag of a user
type SetAdminRequest struct {
	IsAdmin *bool `json:"is_admin" binding:"required"`
}

// Page is an offset pagination window
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to sane bounds
func (p Page) Normalize() Page {
	if p.Limit <= 0 || p.Limit > 200 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
