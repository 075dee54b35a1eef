package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the persistence surface for federated identity links.
type Accounts interface {
	FindByProviderID(ctx context.Context, provider, providerAccountID string) (*Account, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Account, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int, error)
	Upsert(ctx context.Context, record *Account) (*Account, error)
	UpsertTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
}

type accounts struct {
	db *bun.DB
}

var _ Accounts = (*accounts)(nil)

func NewAccountsRepository(db *bun.DB) Accounts {
	return &accounts{db: db}
}

func (a *accounts) FindByProviderID(ctx context.Context, provider, providerAccountID string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.provider = ?", provider).
		Where("?TableAlias.provider_account_id = ?", providerAccountID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"provider":            provider,
					"provider_account_id": providerAccountID,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Account, error) {
	var records []*Account
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *accounts) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	return a.db.NewSelect().
		Model((*Account)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Count(ctx)
}

func (a *accounts) Upsert(ctx context.Context, record *Account) (*Account, error) {
	return a.UpsertTx(ctx, a.db, record)
}

// UpsertTx inserts the provider link or refreshes its token columns when
// the (provider, provider_account_id) pair already exists.
func (a *accounts) UpsertTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	if record == nil {
		return nil, errors.New("account record must not be nil", errors.CategoryBadInput)
	}

	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (provider, provider_account_id) DO UPDATE").
		Set("user_id = EXCLUDED.user_id").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("access_token = EXCLUDED.access_token").
		Set("expires_at = EXCLUDED.expires_at").
		Set("token_type = EXCLUDED.token_type").
		Set("scope = EXCLUDED.scope").
		Set("id_token = EXCLUDED.id_token").
		Set("session_state = EXCLUDED.session_state").
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to upsert account")
	}

	return record, nil
}
