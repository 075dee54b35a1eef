package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type RequestEmailVerificationMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *RequestEmailVerificationResponse)
}

func (p RequestEmailVerificationMessage) Type() string { return "user.email_verification_request" }

type RequestEmailVerificationResponse struct {
	Token           EmailToken
	AlreadyVerified bool
	Success         bool
}

// RequestEmailVerificationHandler reissues the verification token for an
// account that never completed verification. The fresh token replaces
// any outstanding one.
type RequestEmailVerificationHandler struct {
	repo   RepositoryManager
	issuer *TokenIssuer
	mailer Mailer
	logger Logger
}

func NewRequestEmailVerificationHandler(repo RepositoryManager, mailer Mailer, logger Logger) *RequestEmailVerificationHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &RequestEmailVerificationHandler{
		repo:   repo,
		issuer: NewVerificationTokenIssuer(repo),
		mailer: mailer,
		logger: logger,
	}
}

func (h *RequestEmailVerificationHandler) Execute(ctx context.Context, event RequestEmailVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestEmailVerificationHandler) execute(ctx context.Context, event RequestEmailVerificationMessage) error {
	resp := &RequestEmailVerificationResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrAccountNotFound.Clone()
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification")
	}

	if user.Verified() {
		resp.AlreadyVerified = true
		resp.Success = true
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	token, err := h.issuer.Issue(ctx, user.Email)
	if err != nil {
		return err
	}

	if h.mailer != nil {
		if err := h.mailer.SendVerificationEmail(ctx, user.Email, token.GetToken()); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send verification email")
		}
	}

	resp.Token = token
	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
