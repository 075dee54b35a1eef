package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/modomall/console/auth"
)

// DevMailer logs links instead of sending email. Use it in local
// development where no Resend key is configured.
type DevMailer struct {
	AppURL string
	Logger auth.Logger
}

var _ auth.Mailer = (*DevMailer)(nil)

// NewDevMailer creates a log-only mailer.
func NewDevMailer(appURL string, logger auth.Logger) *DevMailer {
	return &DevMailer{
		AppURL: strings.TrimRight(appURL, "/"),
		Logger: logger,
	}
}

// SendVerificationEmail implements auth.Mailer.
func (m *DevMailer) SendVerificationEmail(ctx context.Context, email, token string) error {
	m.log("verification", email, fmt.Sprintf("%s/new-verification/%s", m.AppURL, token))
	return nil
}

// SendPasswordResetEmail implements auth.Mailer.
func (m *DevMailer) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	m.log("password reset", email, fmt.Sprintf("%s/password-reset/%s", m.AppURL, token))
	return nil
}

func (m *DevMailer) log(kind, email, link string) {
	if m.Logger == nil {
		return
	}
	m.Logger.Info("dev mailer: %s link for %s: %s", kind, email, link)
}
