package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Name       string `json:"name" example:"Pepe Rone" doc:"Display name."`
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	Password   string `json:"password" doc:"Cleartext password, hashed before storage."`
	OnResponse func(resp *RegisterUserResponse)
}

func (p RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	User    *User
	Token   EmailToken
	Success bool
}

// RegisterUserHandler creates a local-credentials account and issues its
// email verification token in one transaction. The verification mail
// goes out after commit.
type RegisterUserHandler struct {
	repo   RepositoryManager
	issuer *TokenIssuer
	mailer Mailer
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager, mailer Mailer, logger Logger) *RegisterUserHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &RegisterUserHandler{
		repo:   repo,
		issuer: NewVerificationTokenIssuer(repo),
		mailer: mailer,
		logger: logger,
	}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	resp := &RegisterUserResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "failed to hash password")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Users().GetByIdentifier(ctx, event.Email); err == nil {
			return ErrEmailTaken.Clone()
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing user")
		}

		record := &User{
			Name:         event.Name,
			Email:        event.Email,
			PasswordHash: hash,
			Role:         RoleUser,
		}
		// Stable ID derived from the email; re-registrations after a
		// failed flow land on the same row key.
		if id, err := hashid.NewUUID(event.Email); err == nil {
			record.ID = id
		}

		user, err := h.repo.Users().CreateTx(ctx, tx, record)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
		}

		token, err := h.issuer.IssueTx(ctx, tx, user.Email)
		if err != nil {
			return err
		}

		resp.User = user
		resp.Token = token
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to register user")
	}

	if h.mailer != nil {
		if err := h.mailer.SendVerificationEmail(ctx, resp.User.Email, resp.Token.GetToken()); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send verification email")
		}
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
