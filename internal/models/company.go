package models

import (
	"time"

	"github.com/google/uuid"
)

type CompanyStatus string

const (
	CompanyPending  CompanyStatus = "pending"
	CompanyApproved CompanyStatus = "approved"
	CompanyRejected CompanyStatus = "rejected"
)

type Company struct {
	Base
	Name            string        `gorm:"not null" json:"name"`
	Address         string        `json:"address"`
	Phone           string        `json:"phone"`
	VATNumber       string        `gorm:"column:vat_number" json:"vat_number"`
	OwnerID         uuid.UUID     `gorm:"type:varchar(36);not null;uniqueIndex" json:"owner_id"`
	Owner           *User         `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Status          CompanyStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectionReason string        `gorm:"type:text" json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time    `json:"reviewed_at,omitempty"`
	ReviewedByID    *uuid.UUID    `gorm:"type:varchar(36)" json:"reviewed_by_id,omitempty"`
}

// IsApproved reports whether the company passed admin review.
func (c *Company) IsApproved() bool {
	return c.Status == CompanyApproved
}

type MembershipRole string

const (
	RoleOwner    MembershipRole = "owner"
	RoleEmployee MembershipRole = "employee"
)

type CompanyMembership struct {
	Base
	CompanyID uuid.UUID      `gorm:"type:varchar(36);not null;uniqueIndex:idx_membership_company_user" json:"company_id"`
	Company   *Company       `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	UserID    uuid.UUID      `gorm:"type:varchar(36);not null;uniqueIndex:idx_membership_company_user" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      MembershipRole `gorm:"type:varchar(20);not null" json:"role"`
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
	InvitationExpired  InvitationStatus = "expired"
)

// EmployeeInvitation links an email address to a company until the invitee
// accepts it with a matching account.
type EmployeeInvitation struct {
	Base
	CompanyID    uuid.UUID        `gorm:"type:varchar(36);not null;index" json:"company_id"`
	Company      *Company         `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Email        string           `gorm:"not null;index" json:"email"`
	Token        string           `gorm:"size:64;not null;uniqueIndex" json:"-"`
	Status       InvitationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	InvitedByID  uuid.UUID        `gorm:"type:varchar(36);not null" json:"invited_by_id"`
	ExpiresAt    time.Time        `gorm:"not null" json:"expires_at"`
	AcceptedAt   *time.Time       `json:"accepted_at,omitempty"`
	AcceptedByID *uuid.UUID       `gorm:"type:varchar(36)" json:"accepted_by_id,omitempty"`
}

// Expired reports whether a pending invitation is past its deadline.
func (i *EmployeeInvitation) Expired(now time.Time) bool {
	return i.Status == InvitationExpired || (i.Status == InvitationPending && now.After(i.ExpiresAt))
}
