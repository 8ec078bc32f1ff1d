package service

import (
	"context"
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/osteele/liquid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gastro-elite/backend/internal/models"
)

//go:embed templates/*.liquid
var templateFS embed.FS

const brandName = "Gastro-Elite"

// Message is a rendered email ready for a Sender.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

type EmailService struct {
	sender     Sender
	engine     *liquid.Engine
	templates  map[string]*liquid.Template
	appURL     string
	adminEmail string
}

var _ IEmailService = (*EmailService)(nil)

// NewEmailService parses the embedded templates once and returns a service
// that renders them and hands the result to sender.
func NewEmailService(sender Sender, appURL, adminEmail string) (*EmailService, error) {
	s := &EmailService{
		sender:     sender,
		engine:     liquid.NewEngine(),
		templates:  make(map[string]*liquid.Template),
		appURL:     strings.TrimRight(appURL, "/"),
		adminEmail: adminEmail,
	}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read email templates: %w", err)
	}
	for _, entry := range entries {
		source, err := templateFS.ReadFile(path.Join("templates", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", entry.Name(), err)
		}
		tpl, perr := s.engine.ParseString(string(source))
		if perr != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", entry.Name(), perr)
		}
		s.templates[strings.TrimSuffix(entry.Name(), ".liquid")] = tpl
	}

	return s, nil
}

func (s *EmailService) render(name string, vars map[string]interface{}) (string, error) {
	tpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	bindings := map[string]interface{}{
		"brand":   brandName,
		"app_url": s.appURL,
	}
	for k, v := range vars {
		bindings[k] = v
	}
	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return out, nil
}

func (s *EmailService) send(ctx context.Context, to, subject, name string, vars map[string]interface{}) error {
	body, err := s.render(name, vars)
	if err != nil {
		return err
	}
	return s.SendEmail(ctx, to, subject, body)
}

func (s *EmailService) SendEmail(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("email has no recipient")
	}
	if err := s.sender.Send(ctx, &Message{To: to, Subject: subject, HTML: body}); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, user *models.User) error {
	return s.send(ctx, user.Email, "Welcome to "+brandName, "welcome", map[string]interface{}{
		"name": user.Name,
	})
}

func (s *EmailService) SendRegistrationReceived(ctx context.Context, user *models.User, company *models.Company) error {
	subject := fmt.Sprintf("[%s] We received the registration of %s", brandName, company.Name)
	return s.send(ctx, user.Email, subject, "registration_received", map[string]interface{}{
		"name":    user.Name,
		"company": companyVars(company),
	})
}

// SendApprovalRequest notifies the platform admin that a business account waits for review.
func (s *EmailService) SendApprovalRequest(ctx context.Context, user *models.User, company *models.Company) error {
	if s.adminEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("[%s] New business registration: %s", brandName, company.Name)
	return s.send(ctx, s.adminEmail, subject, "approval_request", map[string]interface{}{
		"owner_name":  user.Name,
		"owner_email": user.Email,
		"company":     companyVars(company),
		"review_url":  s.appURL + "/admin/companies",
	})
}

func (s *EmailService) SendCompanyApproved(ctx context.Context, owner *models.User, company *models.Company) error {
	return s.sendReview(ctx, owner, company, "company_approved")
}

func (s *EmailService) SendCompanyRejected(ctx context.Context, owner *models.User, company *models.Company) error {
	return s.sendReview(ctx, owner, company, "company_rejected")
}

func (s *EmailService) sendReview(ctx context.Context, owner *models.User, company *models.Company, name string) error {
	caser := cases.Title(language.English)
	subject := fmt.Sprintf("[%s] %s has been %s", brandName, company.Name, caser.String(string(company.Status)))
	return s.send(ctx, owner.Email, subject, name, map[string]interface{}{
		"name":    owner.Name,
		"company": companyVars(company),
		"reason":  company.RejectionReason,
	})
}

func (s *EmailService) SendInvitation(ctx context.Context, invitation *models.EmployeeInvitation, company *models.Company, inviter *models.User) error {
	subject := fmt.Sprintf("[%s] %s invited you to join %s", brandName, inviter.Name, company.Name)
	return s.send(ctx, invitation.Email, subject, "invitation", map[string]interface{}{
		"inviter":    inviter.Name,
		"company":    companyVars(company),
		"accept_url": fmt.Sprintf("%s/invite/%s", s.appURL, invitation.Token),
		"expires_at": invitation.ExpiresAt.Format("2006-01-02 15:04 MST"),
	})
}

func (s *EmailService) SendPasswordReset(ctx context.Context, user *models.User, token string) error {
	return s.send(ctx, user.Email, "Reset your "+brandName+" password", "password_reset", map[string]interface{}{
		"name":      user.Name,
		"reset_url": fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token),
		"ttl_hours": int(resetTokenTTL.Hours()),
	})
}

func companyVars(c *models.Company) map[string]interface{} {
	return map[string]interface{}{
		"name":       c.Name,
		"address":    c.Address,
		"phone":      c.Phone,
		"vat_number": c.VATNumber,
		"status":     string(c.Status),
	}
}
