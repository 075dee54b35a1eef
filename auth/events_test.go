package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/modomall/console/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []auth.AccountLinked
	err    error
}

func (h *recordingHandler) Execute(ctx context.Context, event auth.AccountLinked) error {
	h.events = append(h.events, event)
	return h.err
}

func TestEventDispatcher_Dispatch(t *testing.T) {
	first := &recordingHandler{}
	second := &recordingHandler{}

	dispatcher := auth.NewEventDispatcher(testLogger{}).
		OnAccountLinked(first).
		OnAccountLinked(second)

	event := auth.AccountLinked{UserID: uuid.New(), Provider: "google"}
	require.NoError(t, dispatcher.Dispatch(context.Background(), event))

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, event.UserID, first.events[0].UserID)
	assert.False(t, first.events[0].OccurredAt.IsZero(), "dispatch stamps the event time")
}

func TestEventDispatcher_FirstErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	first := &recordingHandler{err: boom}
	second := &recordingHandler{}

	dispatcher := auth.NewEventDispatcher(testLogger{}).
		OnAccountLinked(first).
		OnAccountLinked(second)

	err := dispatcher.Dispatch(context.Background(), auth.AccountLinked{UserID: uuid.New()})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, second.events)
}

func TestMarkVerifiedOnLink(t *testing.T) {
	t.Run("stamps unverified user", func(t *testing.T) {
		repo := newMemRepo()
		user, err := repo.users.Create(context.Background(), &auth.User{Email: "pepe.rone@example.com"})
		require.NoError(t, err)

		handler := auth.NewMarkVerifiedOnLink(repo)
		err = handler.Execute(context.Background(), auth.AccountLinked{
			UserID:   user.ID,
			Provider: "kakao",
		})
		require.NoError(t, err)

		refreshed, err := repo.users.GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.True(t, refreshed.Verified())
	})

	t.Run("leaves a verified user alone", func(t *testing.T) {
		repo := newMemRepo()
		verifiedAt := time.Now().Add(-time.Hour)
		user, err := repo.users.Create(context.Background(), &auth.User{
			Email:           "pepe.rone@example.com",
			EmailVerifiedAt: &verifiedAt,
		})
		require.NoError(t, err)

		handler := auth.NewMarkVerifiedOnLink(repo)
		require.NoError(t, handler.Execute(context.Background(), auth.AccountLinked{UserID: user.ID}))

		refreshed, err := repo.users.GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, verifiedAt, *refreshed.EmailVerifiedAt, "existing verification timestamp is preserved")
	})

	t.Run("unknown user errors", func(t *testing.T) {
		repo := newMemRepo()
		handler := auth.NewMarkVerifiedOnLink(repo)
		assert.Error(t, handler.Execute(context.Background(), auth.AccountLinked{UserID: uuid.New()}))
	})
}
