package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token      string `json:"token" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Reset token."`
	Password   string `json:"password" doc:"New cleartext password."`
	OnResponse func(resp *FinalizePasswordResetResponse)
}

func (p FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

type FinalizePasswordResetResponse struct {
	Found   bool
	Expired bool
	Email   string
	Success bool
}

// FinalizePasswordResetHandler consumes a reset token and overwrites
// the account password. Only the hash changes; verification state is
// untouched. The token row is deleted with the update.
type FinalizePasswordResetHandler struct {
	repo   RepositoryManager
	logger Logger
	now    func() time.Time
}

func NewFinalizePasswordResetHandler(repo RepositoryManager, logger Logger) *FinalizePasswordResetHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &FinalizePasswordResetHandler{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	resp := &FinalizePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "failed to hash password")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		token, err := h.repo.PasswordResetTokens().FindByToken(ctx, event.Token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrTokenNotFound.Clone()
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up reset token")
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
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		if err := h.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
		}

		return h.repo.PasswordResetTokens().DeleteByIDTx(ctx, tx, token.GetID())
	})

	if err != nil {
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
