package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/gastro-elite/backend/internal/models"
)

// Recipe sources reported by the unified listing
const (
	SourceCompany  = "company"
	SourcePersonal = "personal"
	SourceLegacy   = "legacy"
)

// RecipeResponse is the shape every recipe kind is mapped to
type RecipeResponse struct {
	ID           uuid.UUID           `json:"id"`
	Source       string              `json:"source"`
	CompanyID    *uuid.UUID          `json:"company_id,omitempty"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Instructions string              `json:"instructions"`
	Servings     int                 `json:"servings"`
	PrepMinutes  int                 `json:"prep_minutes"`
	CookMinutes  int                 `json:"cook_minutes"`
	ImageURL     string              `json:"image_url"`
	Ingredients  []models.Ingredient `json:"ingredients"`
	Categories   []models.Category   `json:"categories"`
	Editable     bool                `json:"editable"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// MembershipResponse describes one company the user belongs to
type MembershipResponse struct {
	CompanyID     uuid.UUID             `json:"company_id"`
	CompanyName   string                `json:"company_name"`
	CompanyStatus models.CompanyStatus  `json:"company_status"`
	Role          models.MembershipRole `json:"role"`
}

// AccountResponse is returned by the session endpoints
type AccountResponse struct {
	User        *models.User         `json:"user"`
	Memberships []MembershipResponse `json:"memberships"`
}

// EmployeeResponse is one member of a company
type EmployeeResponse struct {
	UserID   uuid.UUID             `json:"user_id"`
	Name     string                `json:"name"`
	Email    string                `json:"email"`
	Role     models.MembershipRole `json:"role"`
	JoinedAt time.Time             `json:"joined_at"`
}

// InvitationLookup is the public view of an invitation
type InvitationLookup struct {
	CompanyName string                  `json:"company_name"`
	Email       string                  `json:"email"`
	Status      models.InvitationStatus `json:"status"`
	ExpiresAt   time.Time               `json:"expires_at"`
}

// AdminStats are the counters shown on the admin dashboard
type AdminStats struct {
	Users              int64            `json:"users"`
	Admins             int64            `json:"admins"`
	Companies          map[string]int64 `json:"companies"`
	PersonalRecipes    int64            `json:"personal_recipes"`
	CompanyRecipes     int64            `json:"company_recipes"`
	LegacyRecipes      int64            `json:"legacy_recipes"`
	PendingInvitations int64            `json:"pending_invitations"`
}
