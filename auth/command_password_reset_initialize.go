package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	Token   EmailToken
	Success bool
}

// InitializePasswordResetHandler issues a reset token for an existing
// account and mails the reset link.
type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	issuer *TokenIssuer
	mailer Mailer
	logger Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, mailer Mailer, logger Logger) *InitializePasswordResetHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &InitializePasswordResetHandler{
		repo:   repo,
		issuer: NewPasswordResetTokenIssuer(repo),
		mailer: mailer,
		logger: logger,
	}
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	resp := &InitializePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrAccountNotFound.Clone()
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	token, err := h.issuer.Issue(ctx, user.Email)
	if err != nil {
		return err
	}

	if h.mailer != nil {
		if err := h.mailer.SendPasswordResetEmail(ctx, user.Email, token.GetToken()); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send password reset email")
		}
	}

	resp.Token = token
	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
