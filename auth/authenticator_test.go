package auth_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/modomall/console/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExchanger struct {
	identity auth.Identity
	err      error
	input    auth.ExchangeInput
}

func (s *stubExchanger) ExchangeForIdentity(ctx context.Context, input auth.ExchangeInput) (auth.Identity, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func newAutherFixture(seed ...*auth.User) (*auth.Auther, *memRepo) {
	repo := newMemRepo()
	for _, u := range seed {
		if _, err := repo.users.Create(context.Background(), u); err != nil {
			panic(err)
		}
	}
	auther := auth.NewAuthenticator(repo, testConfig{}).WithLogger(testLogger{})
	return auther, repo
}

func assertTextCode(t *testing.T, err error, want string) {
	t.Helper()
	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, want, richErr.TextCode)
}

func TestAuther_SignInCredentials(t *testing.T) {
	verified := &auth.User{
		ID:              uuid.New(),
		Name:            "Pepe Rone",
		Email:           "pepe.rone@example.com",
		PasswordHash:    mustHash("securePassword123!"),
		Role:            auth.RoleAdmin,
		EmailVerifiedAt: timePtr(time.Now()),
	}

	auther, _ := newAutherFixture(verified)

	result, err := auther.SignIn(context.Background(), auth.SignInRequest{
		Provider: auth.ProviderCredentials,
		Email:    "pepe.rone@example.com",
		Password: "securePassword123!",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "/", result.RedirectTo)

	session, err := auther.SessionFromToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, verified.ID.String(), session.GetUserID())
	assert.Equal(t, "pepe.rone@example.com", session.GetEmail())
	assert.Equal(t, auth.RoleAdmin, session.GetRole())
}

func TestAuther_SignInCallbackOverridesRedirect(t *testing.T) {
	verified := &auth.User{
		Email:           "pepe.rone@example.com",
		PasswordHash:    mustHash("securePassword123!"),
		EmailVerifiedAt: timePtr(time.Now()),
	}
	auther, _ := newAutherFixture(verified)

	result, err := auther.SignIn(context.Background(), auth.SignInRequest{
		Provider:    auth.ProviderCredentials,
		Email:       "pepe.rone@example.com",
		Password:    "securePassword123!",
		CallbackURL: "/admin/products",
	})
	require.NoError(t, err)
	assert.Equal(t, "/admin/products", result.RedirectTo)
}

func TestAuther_SignInCredentialFailures(t *testing.T) {
	verified := &auth.User{
		Email:           "verified@example.com",
		PasswordHash:    mustHash("rightPassword!"),
		EmailVerifiedAt: timePtr(time.Now()),
	}
	unverified := &auth.User{
		Email:        "unverified@example.com",
		PasswordHash: mustHash("rightPassword!"),
	}
	federated := &auth.User{
		Email:           "federated@example.com",
		EmailVerifiedAt: timePtr(time.Now()),
	}

	auther, _ := newAutherFixture(verified, unverified, federated)

	tests := []struct {
		name         string
		email        string
		password     string
		wantTextCode string
	}{
		{
			// No account for the email is its own error; the console
			// surfaces it as such.
			name:         "unknown email",
			email:        "nobody@example.com",
			password:     "whatever1!",
			wantTextCode: auth.ErrAccountNotFound.TextCode,
		},
		{
			name:         "wrong password",
			email:        "verified@example.com",
			password:     "wrongPassword!",
			wantTextCode: auth.ErrInvalidCredentials.TextCode,
		},
		{
			name:         "federated-only account has no password",
			email:        "federated@example.com",
			password:     "anyPassword!",
			wantTextCode: auth.ErrInvalidCredentials.TextCode,
		},
		{
			name:         "unverified email with correct password",
			email:        "unverified@example.com",
			password:     "rightPassword!",
			wantTextCode: auth.ErrEmailNotVerified.TextCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auther.SignIn(context.Background(), auth.SignInRequest{
				Provider: auth.ProviderCredentials,
				Email:    tt.email,
				Password: tt.password,
			})
			require.Error(t, err)
			assertTextCode(t, err, tt.wantTextCode)
		})
	}
}

func TestAuther_SignInUnknownProvider(t *testing.T) {
	auther, _ := newAutherFixture()

	_, err := auther.SignIn(context.Background(), auth.SignInRequest{
		Provider: "myspace",
		Code:     "some-code",
	})
	require.Error(t, err)
	assertTextCode(t, err, auth.ErrUnknownProvider.TextCode)
}

func TestAuther_SignInValidation(t *testing.T) {
	auther, _ := newAutherFixture()

	tests := []struct {
		name string
		req  auth.SignInRequest
	}{
		{
			name: "missing provider",
			req:  auth.SignInRequest{Email: "pepe.rone@example.com", Password: "pw"},
		},
		{
			name: "credentials without email",
			req:  auth.SignInRequest{Provider: auth.ProviderCredentials, Password: "pw"},
		},
		{
			name: "credentials without password",
			req:  auth.SignInRequest{Provider: auth.ProviderCredentials, Email: "pepe.rone@example.com"},
		},
		{
			name: "federated without code",
			req:  auth.SignInRequest{Provider: "google"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auther.SignIn(context.Background(), tt.req)
			require.Error(t, err)

			var richErr *goerrors.Error
			require.ErrorAs(t, err, &richErr)
			assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
		})
	}
}

func TestAuther_SignInFederatedSkipsVerificationGate(t *testing.T) {
	// The federated user never verified their email locally; the provider
	// vouched for it, so the gate does not apply.
	unverified := &auth.User{
		ID:    uuid.New(),
		Name:  "Pepe Rone",
		Email: "pepe.rone@example.com",
		Role:  auth.RoleUser,
	}

	auther, repo := newAutherFixture(unverified)
	repo.accounts.accounts = append(repo.accounts.accounts, &auth.Account{
		Provider:          "google",
		ProviderAccountID: "google-1",
		UserID:            unverified.ID,
	})

	exchanger := &stubExchanger{identity: auth.NewIdentity(unverified, true)}
	auther.WithExchanger("google", exchanger)

	result, err := auther.SignIn(context.Background(), auth.SignInRequest{
		Provider: "google",
		Code:     "authorization-code",
		State:    "opaque-state",
	})
	require.NoError(t, err)

	assert.Equal(t, "authorization-code", exchanger.input.Code)
	assert.Equal(t, "opaque-state", exchanger.input.State)

	session, err := auther.SessionFromToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, unverified.ID.String(), session.GetUserID())
}

func TestAuther_IssueSession(t *testing.T) {
	user := &auth.User{
		ID:    uuid.New(),
		Name:  "Pepe Rone",
		Email: "pepe.rone@example.com",
		Role:  auth.RoleUser,
	}
	auther, _ := newAutherFixture(user)

	token, err := auther.IssueSession(context.Background(), user)
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), session.GetUserID())

	_, err = auther.IssueSession(context.Background(), nil)
	assert.Error(t, err)
}

func TestAuther_RefreshPicksUpRoleChange(t *testing.T) {
	user := &auth.User{
		ID:              uuid.New(),
		Name:            "Pepe Rone",
		Email:           "pepe.rone@example.com",
		PasswordHash:    mustHash("securePassword123!"),
		Role:            auth.RoleUser,
		EmailVerifiedAt: timePtr(time.Now()),
	}
	auther, repo := newAutherFixture(user)

	result, err := auther.SignIn(context.Background(), auth.SignInRequest{
		Provider: auth.ProviderCredentials,
		Email:    user.Email,
		Password: "securePassword123!",
	})
	require.NoError(t, err)

	// Promote the user after the session was issued.
	user.Role = auth.RoleAdmin
	_, err = repo.users.Update(context.Background(), user)
	require.NoError(t, err)

	refreshed, err := auther.Refresh(context.Background(), result.Token)
	require.NoError(t, err)

	claims, err := auther.TokenService().Validate(refreshed)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, user.ID.String(), claims.UserID())
}

func TestAuther_RefreshRotatesTokenID(t *testing.T) {
	user := &auth.User{
		ID:    uuid.New(),
		Email: "pepe.rone@example.com",
		Role:  auth.RoleUser,
	}
	auther, _ := newAutherFixture(user)

	token, err := auther.IssueSession(context.Background(), user)
	require.NoError(t, err)

	refreshed, err := auther.Refresh(context.Background(), token)
	require.NoError(t, err)

	first, err := auther.TokenService().Validate(token)
	require.NoError(t, err)
	second, err := auther.TokenService().Validate(refreshed)
	require.NoError(t, err)

	firstClaims, ok := first.(*auth.SessionClaims)
	require.True(t, ok)
	secondClaims, ok := second.(*auth.SessionClaims)
	require.True(t, ok)

	assert.NotEmpty(t, secondClaims.RegisteredClaims.ID)
	assert.NotEqual(t, firstClaims.RegisteredClaims.ID, secondClaims.RegisteredClaims.ID)
}

func TestAuther_RefreshRejectsBadToken(t *testing.T) {
	auther, _ := newAutherFixture()

	_, err := auther.Refresh(context.Background(), "not.a.jwt")
	assert.Error(t, err)
}

func TestAuther_SessionFromTokenRejectsBadToken(t *testing.T) {
	auther, _ := newAutherFixture()

	_, err := auther.SessionFromToken("not.a.jwt")
	assert.Error(t, err)
}
