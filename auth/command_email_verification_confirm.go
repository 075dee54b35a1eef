package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ConfirmEmailVerificationMessage struct {
	Token      string `json:"token" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Verification token."`
	OnResponse func(resp *ConfirmEmailVerificationResponse)
}

func (p ConfirmEmailVerificationMessage) Type() string { return "user.email_verification_confirm" }

type ConfirmEmailVerificationResponse struct {
	Found   bool
	Expired bool
	Email   string
	Success bool
}

// ConfirmEmailVerificationHandler consumes a verification token. On
// success the user's email_verified_at is stamped, the account adopts
// the email the token was issued for, and the token row is deleted.
// Expired tokens are rejected and left in place; the next issue for the
// same email replaces them.
type ConfirmEmailVerificationHandler struct {
	repo   RepositoryManager
	logger Logger
	now    func() time.Time
}

func NewConfirmEmailVerificationHandler(repo RepositoryManager, logger Logger) *ConfirmEmailVerificationHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &ConfirmEmailVerificationHandler{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (h *ConfirmEmailVerificationHandler) Execute(ctx context.Context, event ConfirmEmailVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification confirm",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmEmailVerificationHandler) execute(ctx context.Context, event ConfirmEmailVerificationMessage) error {
	resp := &ConfirmEmailVerificationResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		token, err := h.repo.VerificationTokens().FindByToken(ctx, event.Token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrTokenNotFound.Clone()
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up verification token")
		}

		resp.Found = true
		resp.Email = token.GetEmail()

		if token.Expired(h.now()) {
			resp.Expired = true
			return ErrTokenExpired.Clone()
		}

		user, err := h.repo.Users().GetByIdentifier(ctx, token.GetEmail())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrAccountNotFound.Clone()
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification")
		}

		if err := h.repo.Users().MarkEmailVerifiedTx(ctx, tx, user.ID, token.GetEmail()); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email verified")
		}

		return h.repo.VerificationTokens().DeleteByIDTx(ctx, tx, token.GetID())
	})

	if err != nil {
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm email verification")
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
