package email

import (
	"context"
	"fmt"
	"strings"

	"talent_intake_backend/platform/config"
)

const (
	ProviderSMTP  = "smtp"
	ProviderBrevo = "brevo"
)

// LeadNotification is everything the operator email shows about an application.
type LeadNotification struct {
	ChildName string
	Gender    string
	Age       string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	PostCode  string
	ImageURL  string
}

type Sender interface {
	SendLeadNotification(ctx context.Context, toEmail string, n LeadNotification) error
}

type NoopSender struct{}

func (NoopSender) SendLeadNotification(ctx context.Context, toEmail string, n LeadNotification) error {
	return nil
}

// NewSender picks the transport named by EMAIL_PROVIDER.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	switch strings.ToLower(cfg.GetEmailProvider()) {
	case ProviderBrevo:
		if cfg.GetBrevoAPIKey() == "" {
			return nil, fmt.Errorf("brevo provider requires BREVO_API_KEY")
		}
		return NewBrevoSender(cfg.GetBrevoAPIKey(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName()), nil
	case ProviderSMTP, "":
		return NewSMTPSender(
			cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(), cfg.GetEmailFromName(),
		), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.GetEmailProvider())
	}
}
