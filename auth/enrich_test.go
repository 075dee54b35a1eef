package auth_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/modomall/console/auth"
	"github.com/stretchr/testify/assert"
)

func newEnricherFixture(seed ...*auth.User) (*auth.ClaimsEnricher, *memUsers, *memAccounts) {
	users := newMemUsers(seed...)
	accounts := newMemAccounts()
	store := auth.NewCredentialStore(users, testLogger{})
	return auth.NewClaimsEnricher(store, accounts, testLogger{}), users, accounts
}

func claimsFor(id string) *auth.SessionClaims {
	return &auth.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: id},
		UID:              id,
		UserName:         "Stale Name",
		UserEmail:        "stale@example.com",
		UserRole:         auth.RoleUser,
	}
}

func TestClaimsEnricher_OverlaysFreshProfile(t *testing.T) {
	user := &auth.User{
		ID:    uuid.New(),
		Name:  "Pepe Rone",
		Email: "pepe.rone@example.com",
		Role:  auth.RoleAdmin,
	}
	enricher, _, accounts := newEnricherFixture(user)
	accounts.accounts = append(accounts.accounts, &auth.Account{
		Provider:          "google",
		ProviderAccountID: "google-1",
		UserID:            user.ID,
	})

	claims := claimsFor(user.ID.String())
	enricher.Enrich(context.Background(), claims)

	assert.Equal(t, "Pepe Rone", claims.UserName)
	assert.Equal(t, "pepe.rone@example.com", claims.UserEmail)
	assert.Equal(t, auth.RoleAdmin, claims.UserRole)
	assert.True(t, claims.OAuth)
}

func TestClaimsEnricher_NoLinkedAccounts(t *testing.T) {
	user := &auth.User{ID: uuid.New(), Name: "Pepe Rone", Email: "pepe.rone@example.com", Role: auth.RoleUser}
	enricher, _, _ := newEnricherFixture(user)

	claims := claimsFor(user.ID.String())
	claims.OAuth = true
	enricher.Enrich(context.Background(), claims)

	assert.False(t, claims.OAuth)
}

func TestClaimsEnricher_PassThrough(t *testing.T) {
	user := &auth.User{ID: uuid.New(), Name: "Pepe Rone", Email: "pepe.rone@example.com", Role: auth.RoleUser}

	tests := []struct {
		name   string
		claims *auth.SessionClaims
		setup  func(users *memUsers, accounts *memAccounts)
	}{
		{
			name:   "nil claims",
			claims: nil,
		},
		{
			name:   "empty subject",
			claims: claimsFor(""),
		},
		{
			name:   "subject is not a uuid",
			claims: claimsFor("not-a-uuid"),
		},
		{
			name:   "user row gone",
			claims: claimsFor(uuid.NewString()),
		},
		{
			name:   "user read fails",
			claims: claimsFor(user.ID.String()),
			setup: func(users *memUsers, accounts *memAccounts) {
				users.outage = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enricher, users, accounts := newEnricherFixture(user)
			if tt.setup != nil {
				tt.setup(users, accounts)
			}

			enricher.Enrich(context.Background(), tt.claims)

			if tt.claims == nil {
				return
			}
			// Claims pass through untouched when enrichment cannot run.
			assert.Equal(t, "Stale Name", tt.claims.UserName)
			assert.Equal(t, "stale@example.com", tt.claims.UserEmail)
			assert.Equal(t, auth.RoleUser, tt.claims.UserRole)
		})
	}
}

func TestClaimsEnricher_AccountCountFailure(t *testing.T) {
	user := &auth.User{ID: uuid.New(), Name: "Pepe Rone", Email: "pepe.rone@example.com", Role: auth.RoleAdmin}
	enricher, _, accounts := newEnricherFixture(user)
	accounts.outage = true

	claims := claimsFor(user.ID.String())
	claims.OAuth = true
	enricher.Enrich(context.Background(), claims)

	// Profile still refreshes; the federated flag falls back to false.
	assert.Equal(t, auth.RoleAdmin, claims.UserRole)
	assert.False(t, claims.OAuth)
}
