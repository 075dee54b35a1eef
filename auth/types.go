package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Name() string
	Email() string
	Role() UserRole
	IsOAuth() bool
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetEmail() string
	GetRole() UserRole
	GetIssuer() string
	GetAudience() []string
	GetIssuedAt() *time.Time
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	SignIn(ctx context.Context, req SignInRequest) (*SignInResult, error)
	IssueSession(ctx context.Context, user *User) (string, error)
	Refresh(ctx context.Context, raw string) (string, error)
	SessionFromToken(raw string) (Session, error)
}

// TokenService signs and validates session tokens
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignClaims(claims *SessionClaims) (string, error)
	TokenValidator
}

// TokenValidator validates raw session tokens into claims
type TokenValidator interface {
	Validate(raw string) (AuthClaims, error)
}

// IdentityExchanger trades provider-specific sign-in input for an Identity.
// Credentials and each OAuth provider implement the same capability.
type IdentityExchanger interface {
	ExchangeForIdentity(ctx context.Context, input ExchangeInput) (Identity, error)
}

// ExchangeInput is the union of the inputs the providers understand.
type ExchangeInput struct {
	Email    string
	Password string
	Code     string
	State    string
}

// Mailer is the external mail collaborator. Failures surface as a
// generic error to the caller; nothing is retried here.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetExtendedTokenDuration() int
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetCookieDomain() string
	GetCookieSecure() bool
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
	GetDefaultRedirect() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
