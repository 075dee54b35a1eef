package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/modomall/console/auth"
)

const defaultBaseURL = "https://api.resend.com"

// ResendMailer delivers auth emails through the Resend HTTP API.
type ResendMailer struct {
	apiKey  string
	from    string
	appURL  string
	baseURL string
	client  *http.Client
	logger  auth.Logger
}

var _ auth.Mailer = (*ResendMailer)(nil)

// ResendConfig configures the Resend mailer. AppURL is the public base
// URL used to compose the verification and reset links.
type ResendConfig struct {
	APIKey  string
	From    string
	AppURL  string
	BaseURL string

	HTTPClient *http.Client
	Logger     auth.Logger
}

// NewResendMailer creates a Resend backed mailer.
func NewResendMailer(cfg ResendConfig) (*ResendMailer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing Resend API key", errors.CategoryInternal).
			WithTextCode("MAILER_CONFIG")
	}

	if cfg.From == "" {
		return nil, errors.New("missing sender address", errors.CategoryInternal).
			WithTextCode("MAILER_CONFIG")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	return &ResendMailer{
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		appURL:  strings.TrimRight(cfg.AppURL, "/"),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		logger:  cfg.Logger,
	}, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendVerificationEmail implements auth.Mailer.
func (m *ResendMailer) SendVerificationEmail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/new-verification/%s", m.appURL, token)

	html := fmt.Sprintf(`
		<p>Welcome!</p>
		<p>Please confirm your email by clicking the link below:</p>
		<p><a href="%s">Confirm email</a></p>
		<p>The link is valid for one hour.</p>
	`, link)

	return m.send(ctx, email, "Confirm your email", html)
}

// SendPasswordResetEmail implements auth.Mailer.
func (m *ResendMailer) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/password-reset/%s", m.appURL, token)

	html := fmt.Sprintf(`
		<p>We received a request to reset your password.</p>
		<p><a href="%s">Reset password</a></p>
		<p>The link is valid for one hour. If you did not request this you can ignore this email.</p>
	`, link)

	return m.send(ctx, email, "Reset your password", html)
}

func (m *ResendMailer) send(ctx context.Context, to, subject, html string) error {
	payload := sendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to encode email payload")
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		m.baseURL+"/emails",
		bytes.NewBuffer(b),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to build email request")
	}

	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to reach email service")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.New("email delivery failed", errors.CategoryOperation).
			WithTextCode("MAIL_DELIVERY").
			WithMetadata(map[string]any{
				"status":   resp.StatusCode,
				"response": string(body),
			})
	}

	if m.logger != nil {
		m.logger.Debug("sent %q email to %s", subject, to)
	}

	return nil
}
