package auth

import (
	"context"

	"github.com/google/uuid"
)

// ClaimsEnricher refreshes the profile claims carried in a session from
// the database. Every token refresh runs through here so role changes
// and renames take effect without forcing a new sign-in.
//
// Enrichment never fails a session: when the subject is missing, the
// user row is gone, or a read errors out, the claims pass through
// unchanged and the problem is logged.
type ClaimsEnricher struct {
	store    *CredentialStore
	accounts Accounts
	logger   Logger
}

func NewClaimsEnricher(store *CredentialStore, accounts Accounts, logger Logger) *ClaimsEnricher {
	if logger == nil {
		logger = defLogger{}
	}
	return &ClaimsEnricher{
		store:    store,
		accounts: accounts,
		logger:   logger,
	}
}

// Enrich overlays fresh profile data onto claims in place.
func (e *ClaimsEnricher) Enrich(ctx context.Context, claims *SessionClaims) {
	if claims == nil || claims.UserID() == "" {
		return
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		e.logger.Warn("enrich skipped, subject is not a user id: %v", err)
		return
	}

	user := e.store.FindByID(ctx, id)
	if user == nil {
		return
	}

	linked, err := e.accounts.CountByUserID(ctx, user.ID)
	if err != nil {
		e.logger.Warn("enrich account count failed: %v", err)
		linked = 0
	}

	claims.UserName = user.Name
	claims.UserEmail = user.Email
	claims.UserRole = user.Role
	claims.OAuth = linked > 0
}
