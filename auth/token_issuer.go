package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EmailTokenTTL is how long verification and password reset tokens stay
// redeemable.
const EmailTokenTTL = time.Hour

// EmailTokens is the persistence surface for one single-use token table.
// Verification and password reset tokens live in separate tables but
// share this shape.
type EmailTokens interface {
	FindByEmail(ctx context.Context, email string) (EmailToken, error)
	FindByToken(ctx context.Context, token string) (EmailToken, error)
	CreateTx(ctx context.Context, tx bun.IDB, email, token string, expires time.Time) (EmailToken, error)
	DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) error
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type emailTokens[T EmailToken] struct {
	db       *bun.DB
	newToken func(id uuid.UUID, email, token string, expires time.Time) T
}

// NewVerificationTokensRepository backs email verification tokens.
func NewVerificationTokensRepository(db *bun.DB) EmailTokens {
	return &emailTokens[*VerificationToken]{
		db: db,
		newToken: func(id uuid.UUID, email, token string, expires time.Time) *VerificationToken {
			return &VerificationToken{ID: id, Email: email, Token: token, Expires: expires}
		},
	}
}

// NewPasswordResetTokensRepository backs password reset tokens.
func NewPasswordResetTokensRepository(db *bun.DB) EmailTokens {
	return &emailTokens[*PasswordResetToken]{
		db: db,
		newToken: func(id uuid.UUID, email, token string, expires time.Time) *PasswordResetToken {
			return &PasswordResetToken{ID: id, Email: email, Token: token, Expires: expires}
		},
	}
}

func (r *emailTokens[T]) FindByEmail(ctx context.Context, email string) (EmailToken, error) {
	record := r.newToken(uuid.Nil, "", "", time.Time{})
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}
	return record, nil
}

func (r *emailTokens[T]) FindByToken(ctx context.Context, token string) (EmailToken, error) {
	record := r.newToken(uuid.Nil, "", "", time.Time{})
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"token": token})
		}
		return nil, err
	}
	return record, nil
}

func (r *emailTokens[T]) CreateTx(ctx context.Context, tx bun.IDB, email, token string, expires time.Time) (EmailToken, error) {
	record := r.newToken(uuid.New(), email, token, expires)
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to insert email token")
	}
	return record, nil
}

func (r *emailTokens[T]) DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) error {
	record := r.newToken(uuid.Nil, "", "", time.Time{})
	_, err := tx.NewDelete().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Exec(ctx)
	return err
}

func (r *emailTokens[T]) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	record := r.newToken(uuid.Nil, "", "", time.Time{})
	_, err := tx.NewDelete().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	return err
}

// TokenIssuer issues single-use email tokens. Issuing replaces any
// previous token for the same email so at most one is redeemable at a
// time; the delete and insert commit together.
type TokenIssuer struct {
	repo   RepositoryManager
	tokens func(RepositoryManager) EmailTokens
	now    func() time.Time
}

// NewVerificationTokenIssuer issues email verification tokens.
func NewVerificationTokenIssuer(repo RepositoryManager) *TokenIssuer {
	return &TokenIssuer{
		repo:   repo,
		tokens: RepositoryManager.VerificationTokens,
		now:    time.Now,
	}
}

// NewPasswordResetTokenIssuer issues password reset tokens.
func NewPasswordResetTokenIssuer(repo RepositoryManager) *TokenIssuer {
	return &TokenIssuer{
		repo:   repo,
		tokens: RepositoryManager.PasswordResetTokens,
		now:    time.Now,
	}
}

// Issue mints a fresh token for email, replacing any outstanding one.
func (i *TokenIssuer) Issue(ctx context.Context, email string) (EmailToken, error) {
	var issued EmailToken

	err := i.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := i.IssueTx(ctx, tx, email)
		if err != nil {
			return err
		}

		issued = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	return issued, nil
}

// IssueTx is Issue inside a caller-owned transaction, for flows that
// also touch other tables.
func (i *TokenIssuer) IssueTx(ctx context.Context, tx bun.IDB, email string) (EmailToken, error) {
	tokens := i.tokens(i.repo)

	if err := tokens.DeleteByEmailTx(ctx, tx, email); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to delete outstanding token")
	}

	return tokens.CreateTx(ctx, tx, email, uuid.NewString(), i.now().Add(EmailTokenTTL))
}
