package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gastro-elite/backend/internal/models"
	"github.com/gastro-elite/backend/internal/types"
)

const invitationTTL = 7 * 24 * time.Hour

type InvitationService struct {
	db    *gorm.DB
	email IEmailService
	audit *AuditService
	now   func() time.Time
}

var _ IInvitationService = (*InvitationService)(nil)

func NewInvitationService(db *gorm.DB, email IEmailService, audit *AuditService) *InvitationService {
	return &InvitationService{db: db, email: email, audit: audit, now: time.Now}
}

func findInvitation(tx *gorm.DB, token string) (*models.EmployeeInvitation, error) {
	var invitation models.EmployeeInvitation
	if err := tx.Preload("Company").Where("token = ?", token).First(&invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "invitation not found")
		}
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}
	return &invitation, nil
}

// acceptInvitation turns a pending invitation into an employee membership of user.
// It runs inside the caller's transaction.
func acceptInvitation(tx *gorm.DB, token string, user *models.User, now time.Time) (*models.CompanyMembership, error) {
	invitation, err := findInvitation(tx, token)
	if err != nil {
		return nil, err
	}

	switch {
	case invitation.Status == models.InvitationAccepted:
		return nil, newError(ErrConflict, "invitation has already been accepted")
	case invitation.Status == models.InvitationRevoked:
		return nil, newError(ErrGone, "invitation has been revoked")
	case invitation.Expired(now):
		return nil, newError(ErrGone, "invitation has expired")
	}
	if normalizeEmail(invitation.Email) != normalizeEmail(user.Email) {
		return nil, newError(ErrForbidden, "invitation was sent to a different email address")
	}

	var count int64
	if err := tx.Model(&models.CompanyMembership{}).
		Where("company_id = ? AND user_id = ?", invitation.CompanyID, user.ID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, newError(ErrConflict, "already a member of this company")
	}

	membership := &models.CompanyMembership{
		CompanyID: invitation.CompanyID,
		UserID:    user.ID,
		Role:      models.RoleEmployee,
	}
	if err := tx.Create(membership).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":         models.InvitationAccepted,
		"accepted_at":    now,
		"accepted_by_id": user.ID,
	}
	if err := tx.Model(invitation).Updates(updates).Error; err != nil {
		return nil, err
	}

	membership.Company = invitation.Company
	return membership, nil
}

// Invite creates an invitation for email, or re-sends the one still pending.
func (s *InvitationService) Invite(ctx context.Context, inviterID, companyID uuid.UUID, email string) (*models.EmployeeInvitation, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, newError(ErrInvalidInput, "email is required")
	}
	now := s.now()

	var (
		invitation *models.EmployeeInvitation
		company    *models.Company
		inviter    models.User
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		company, err = ownedCompany(tx, inviterID, companyID)
		if err != nil {
			return err
		}
		if !company.IsApproved() {
			return ErrCompanyNotApproved
		}
		if err := tx.First(&inviter, "id = ?", inviterID).Error; err != nil {
			return err
		}

		var members int64
		if err := tx.Model(&models.CompanyMembership{}).
			Joins("JOIN users ON users.id = company_memberships.user_id").
			Where("company_memberships.company_id = ? AND users.email = ?", companyID, email).
			Count(&members).Error; err != nil {
			return err
		}
		if members > 0 {
			return newError(ErrConflict, "%s is already a member of this company", email)
		}

		var pending models.EmployeeInvitation
		err = tx.Where("company_id = ? AND email = ? AND status = ?", companyID, email, models.InvitationPending).
			First(&pending).Error
		switch {
		case err == nil && !pending.Expired(now):
			pending.ExpiresAt = now.Add(invitationTTL)
			if err := tx.Model(&pending).Update("expires_at", pending.ExpiresAt).Error; err != nil {
				return err
			}
			invitation = &pending
			return nil
		case err == nil:
			if err := tx.Model(&pending).Update("status", models.InvitationExpired).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		token, err := randomToken()
		if err != nil {
			return err
		}
		invitation = &models.EmployeeInvitation{
			CompanyID:   companyID,
			Email:       email,
			Token:       token,
			Status:      models.InvitationPending,
			InvitedByID: inviterID,
			ExpiresAt:   now.Add(invitationTTL),
		}
		if err := tx.Create(invitation).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newError(ErrConflict, "an invitation for %s is already pending", email)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrapInternal("failed to invite employee", err)
	}

	s.audit.Record(ctx, &inviterID, "invitation.send", "company", companyID.String(), email)
	dispatch(ctx, "invitation", func(ctx context.Context) error {
		return s.email.SendInvitation(ctx, invitation, company, &inviter)
	})

	return invitation, nil
}

func (s *InvitationService) List(ctx context.Context, userID, companyID uuid.UUID) ([]models.EmployeeInvitation, error) {
	db := s.db.WithContext(ctx)
	if _, err := ownedCompany(db, userID, companyID); err != nil {
		return nil, err
	}

	var invitations []models.EmployeeInvitation
	if err := db.Where("company_id = ?", companyID).Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	now := s.now()
	for i := range invitations {
		if invitations[i].Expired(now) {
			invitations[i].Status = models.InvitationExpired
		}
	}
	return invitations, nil
}

func (s *InvitationService) Revoke(ctx context.Context, userID, companyID, invitationID uuid.UUID) error {
	db := s.db.WithContext(ctx)
	if _, err := ownedCompany(db, userID, companyID); err != nil {
		return err
	}

	var invitation models.EmployeeInvitation
	if err := db.Where("id = ? AND company_id = ?", invitationID, companyID).First(&invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrNotFound, "invitation not found")
		}
		return fmt.Errorf("failed to load invitation: %w", err)
	}
	if invitation.Status != models.InvitationPending {
		return newError(ErrConflict, "invitation is %s", invitation.Status)
	}
	if err := db.Model(&invitation).Update("status", models.InvitationRevoked).Error; err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}

	s.audit.Record(ctx, &userID, "invitation.revoke", "invitation", invitation.ID.String(), invitation.Email)
	return nil
}

// Lookup is the public view used by the accept page before sign-in.
func (s *InvitationService) Lookup(ctx context.Context, token string) (*types.InvitationLookup, error) {
	invitation, err := findInvitation(s.db.WithContext(ctx), token)
	if err != nil {
		return nil, err
	}

	status := invitation.Status
	if invitation.Expired(s.now()) {
		status = models.InvitationExpired
	}
	lookup := &types.InvitationLookup{
		Email:     invitation.Email,
		Status:    status,
		ExpiresAt: invitation.ExpiresAt,
	}
	if invitation.Company != nil {
		lookup.CompanyName = invitation.Company.Name
	}
	return lookup, nil
}

func (s *InvitationService) Accept(ctx context.Context, userID uuid.UUID, token string) (*models.CompanyMembership, error) {
	var membership *models.CompanyMembership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "user not found")
			}
			return err
		}
		var err error
		membership, err = acceptInvitation(tx, token, &user, s.now())
		return err
	})
	if err != nil {
		return nil, wrapInternal("failed to accept invitation", err)
	}

	s.audit.Record(ctx, &userID, "invitation.accept", "company", membership.CompanyID.String(), "")
	return membership, nil
}

// ExpireStale marks pending invitations past their deadline as expired.
func (s *InvitationService) ExpireStale(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.EmployeeInvitation{}).
		Where("status = ? AND expires_at < ?", models.InvitationPending, s.now()).
		Update("status", models.InvitationExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", res.Error)
	}
	return res.RowsAffected, nil
}
