package service

import (
	"context"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"github.com/gastro-elite/backend/config"
	"github.com/gastro-elite/backend/internal/logger"
)

// NewSender builds the Sender selected by EMAIL_PROVIDER.
func NewSender(ctx context.Context, cfg *config.Config) (Sender, error) {
	switch cfg.EmailProvider {
	case "smtp":
		return &SMTPSender{
			host:      cfg.SMTPHost,
			port:      cfg.SMTPPort,
			username:  cfg.SMTPUsername,
			password:  cfg.SMTPPassword,
			fromEmail: cfg.EmailFrom,
			fromName:  cfg.EmailFromName,
		}, nil
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SESRegion))
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return &SESSender{
			client:    sesv2.NewFromConfig(awsCfg),
			fromEmail: cfg.EmailFrom,
			fromName:  cfg.EmailFromName,
		}, nil
	default:
		return LogSender{}, nil
	}
}

type SMTPSender struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
	fromName  string
}

func (s *SMTPSender) Send(_ context.Context, msg *Message) error {
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	from := (&mail.Address{Name: s.fromName, Address: s.fromEmail}).String()
	var b strings.Builder
	writeHeader(&b, "To", msg.To)
	writeHeader(&b, "From", from)
	writeHeader(&b, "Subject", mime.QEncoding.Encode("utf-8", headerValue(msg.Subject)))
	writeHeader(&b, "MIME-Version", "1.0")
	writeHeader(&b, "Content-Type", "text/html; charset=UTF-8")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n")
	raw := []byte(b.String())

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{headerValue(msg.To)}, raw)
}

// headerValue drops line breaks so a value can never start a new header.
func headerValue(v string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, v)
}

func writeHeader(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(headerValue(value))
	b.WriteString("\r\n")
}

type SESSender struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
}

func (s *SESSender) Send(ctx context.Context, msg *Message) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination:      &sestypes.Destination{ToAddresses: []string{msg.To}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(headerValue(msg.Subject)), Charset: aws.String("UTF-8")},
				Body: &sestypes.Body{
					Html: &sestypes.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	_, err := s.client.SendEmail(ctx, input)
	return err
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg *Message) error {
	logger.Info(ctx, "email not delivered, no provider configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTML)),
	)
	return nil
}
