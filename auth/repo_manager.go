package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() Users
	Accounts() Accounts
	VerificationTokens() EmailTokens
	PasswordResetTokens() EmailTokens
}

type mngr struct {
	db                  *bun.DB
	users               Users
	accounts            Accounts
	verificationTokens  EmailTokens
	passwordResetTokens EmailTokens
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:                  db,
		users:               NewUsersRepository(db),
		accounts:            NewAccountsRepository(db),
		verificationTokens:  NewVerificationTokensRepository(db),
		passwordResetTokens: NewPasswordResetTokensRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.verificationTokens == nil {
		return errors.New("repository verificationTokens should be initialized")
	}

	if m.passwordResetTokens == nil {
		return errors.New("repository passwordResetTokens should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) VerificationTokens() EmailTokens {
	return m.verificationTokens
}

func (m mngr) PasswordResetTokens() EmailTokens {
	return m.passwordResetTokens
}
