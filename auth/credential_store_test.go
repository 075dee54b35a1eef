package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/modomall/console/auth"
	"github.com/stretchr/testify/assert"
)

func TestCredentialStore_FindByEmail(t *testing.T) {
	seeded := &auth.User{
		ID:    uuid.New(),
		Name:  "Pepe Rone",
		Email: "pepe.rone@example.com",
	}
	users := newMemUsers(seeded)
	store := auth.NewCredentialStore(users, testLogger{})

	t.Run("returns the user when present", func(t *testing.T) {
		user := store.FindByEmail(context.Background(), "pepe.rone@example.com")
		assert.NotNil(t, user)
		assert.Equal(t, seeded.ID, user.ID)
	})

	t.Run("nil when absent", func(t *testing.T) {
		assert.Nil(t, store.FindByEmail(context.Background(), "nobody@example.com"))
	})

	t.Run("nil for empty email", func(t *testing.T) {
		assert.Nil(t, store.FindByEmail(context.Background(), ""))
	})

	t.Run("nil when the read fails", func(t *testing.T) {
		users.outage = true
		defer func() { users.outage = false }()

		assert.Nil(t, store.FindByEmail(context.Background(), "pepe.rone@example.com"))
	})
}

func TestCredentialStore_FindByID(t *testing.T) {
	seeded := &auth.User{
		ID:    uuid.New(),
		Email: "pepe.rone@example.com",
	}
	users := newMemUsers(seeded)
	store := auth.NewCredentialStore(users, testLogger{})

	t.Run("returns the user when present", func(t *testing.T) {
		user := store.FindByID(context.Background(), seeded.ID)
		assert.NotNil(t, user)
		assert.Equal(t, "pepe.rone@example.com", user.Email)
	})

	t.Run("nil when absent", func(t *testing.T) {
		assert.Nil(t, store.FindByID(context.Background(), uuid.New()))
	})

	t.Run("nil for the zero id", func(t *testing.T) {
		assert.Nil(t, store.FindByID(context.Background(), uuid.Nil))
	})

	t.Run("nil when the read fails", func(t *testing.T) {
		users.outage = true
		defer func() { users.outage = false }()

		assert.Nil(t, store.FindByID(context.Background(), seeded.ID))
	})
}
