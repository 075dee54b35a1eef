package auth_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/modomall/console/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDecideAdminAccess(t *testing.T) {
	tests := []struct {
		name   string
		claims auth.AuthClaims
		want   auth.GuardDecision
	}{
		{
			name:   "nil claims",
			claims: nil,
			want:   auth.GuardDenyUnauthenticated,
		},
		{
			name:   "claims without a subject",
			claims: &auth.SessionClaims{UserRole: auth.RoleAdmin},
			want:   auth.GuardDenyUnauthenticated,
		},
		{
			name: "valid session without admin role",
			claims: &auth.SessionClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "user123"},
				UID:              "user123",
				UserRole:         auth.RoleUser,
			},
			want: auth.GuardDenyForbidden,
		},
		{
			name: "valid session with empty role",
			claims: &auth.SessionClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "user123"},
				UID:              "user123",
			},
			want: auth.GuardDenyForbidden,
		},
		{
			name: "admin session",
			claims: &auth.SessionClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "admin123"},
				UID:              "admin123",
				UserRole:         auth.RoleAdmin,
			},
			want: auth.GuardAllow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.DecideAdminAccess(tt.claims))
		})
	}
}

func adminGuardHandler(t *testing.T, called *bool) router.HandlerFunc {
	t.Helper()
	guard := auth.AdminGuard(auth.AdminGuardConfig{Logger: testLogger{}})
	return guard(func(ctx router.Context) error {
		*called = true
		return nil
	})
}

func guardClaims(role auth.UserRole) *auth.SessionClaims {
	return &auth.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user123"},
		UID:              "user123",
		UserRole:         role,
	}
}

func TestAdminGuard_AdminPassesThrough(t *testing.T) {
	called := false
	handler := adminGuardHandler(t, &called)

	ctx := router.NewMockContext()
	ctx.LocalsMock["user"] = guardClaims(auth.RoleAdmin)

	require.NoError(t, handler(ctx))
	assert.True(t, called)
}

func TestAdminGuard_NonAdminRedirectsToLanding(t *testing.T) {
	called := false
	handler := adminGuardHandler(t, &called)

	ctx := router.NewMockContext()
	ctx.LocalsMock["user"] = guardClaims(auth.RoleUser)

	var target string
	ctx.On("Redirect", mock.Anything, []int{router.StatusSeeOther}).
		Run(func(args mock.Arguments) {
			target = args.String(0)
		}).Return(nil)

	require.NoError(t, handler(ctx))
	assert.False(t, called)
	assert.Equal(t, "/", target)
}

func TestAdminGuard_NoSessionRedirectsToLogin(t *testing.T) {
	called := false
	handler := adminGuardHandler(t, &called)

	ctx := router.NewMockContext()
	ctx.On("Locals", "user").Return(nil)

	var target string
	ctx.On("Redirect", mock.Anything, []int{router.StatusSeeOther}).
		Run(func(args mock.Arguments) {
			target = args.String(0)
		}).Return(nil)

	require.NoError(t, handler(ctx))
	assert.False(t, called)
	assert.Equal(t, "/login", target)
}
