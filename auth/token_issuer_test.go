package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/modomall/console/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestTokenIssuer_Issue(t *testing.T) {
	repo := newMemRepo()
	issuer := auth.NewVerificationTokenIssuer(repo)

	before := time.Now()
	token, err := issuer.Issue(context.Background(), "pepe.rone@example.com")
	require.NoError(t, err)

	assert.Equal(t, "pepe.rone@example.com", token.GetEmail())
	assert.NotEmpty(t, token.GetToken())

	// Fresh tokens carry the full TTL.
	assert.False(t, token.Expired(time.Now()))
	assert.True(t, token.GetExpires().After(before.Add(auth.EmailTokenTTL-time.Minute)))

	assert.Len(t, repo.verifications.all(), 1)
	assert.Empty(t, repo.resets.all(), "verification issuer must not touch reset tokens")
}

func TestTokenIssuer_ReissueReplacesOutstandingToken(t *testing.T) {
	repo := newMemRepo()
	issuer := auth.NewVerificationTokenIssuer(repo)

	first, err := issuer.Issue(context.Background(), "pepe.rone@example.com")
	require.NoError(t, err)

	second, err := issuer.Issue(context.Background(), "pepe.rone@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, first.GetToken(), second.GetToken())

	remaining := repo.verifications.all()
	require.Len(t, remaining, 1, "at most one redeemable token per email")
	assert.Equal(t, second.GetToken(), remaining[0].Token)
}

func TestTokenIssuer_ReissueKeepsOtherEmails(t *testing.T) {
	repo := newMemRepo()
	issuer := auth.NewVerificationTokenIssuer(repo)

	_, err := issuer.Issue(context.Background(), "first@example.com")
	require.NoError(t, err)
	_, err = issuer.Issue(context.Background(), "second@example.com")
	require.NoError(t, err)
	_, err = issuer.Issue(context.Background(), "second@example.com")
	require.NoError(t, err)

	emails := map[string]int{}
	for _, record := range repo.verifications.all() {
		emails[record.Email]++
	}

	assert.Equal(t, map[string]int{
		"first@example.com":  1,
		"second@example.com": 1,
	}, emails)
}

func TestTokenIssuer_IssueTx(t *testing.T) {
	repo := newMemRepo()
	issuer := auth.NewPasswordResetTokenIssuer(repo)

	err := repo.RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := issuer.IssueTx(ctx, tx, "pepe.rone@example.com")
		return err
	})
	require.NoError(t, err)

	assert.Len(t, repo.resets.all(), 1)
	assert.Empty(t, repo.verifications.all(), "reset issuer must not touch verification tokens")
}

func TestTokenIssuer_IssueCancelledContext(t *testing.T) {
	repo := newMemRepo()
	issuer := auth.NewVerificationTokenIssuer(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := issuer.Issue(ctx, "pepe.rone@example.com")
	assert.Error(t, err)
	assert.Empty(t, repo.verifications.all())
}
