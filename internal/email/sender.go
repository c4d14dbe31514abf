// Package email delivers workflow notifications over SMTP.
package email

import (
	"context"

	"leadflow_backend/platform/config"
)

// Sender delivers lead workflow emails.
type Sender interface {
	SendLeadAssignedEmail(ctx context.Context, toEmail, assigneeName, company, stage, leadURL string) error
}

// NewSender returns an SMTP-backed sender, or a no-op sender when email
// delivery is disabled in configuration.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

// NoopSender drops every email. Used in development environments without
// an SMTP server.
type NoopSender struct{}

func (NoopSender) SendLeadAssignedEmail(context.Context, string, string, string, string, string) error {
	return nil
}
