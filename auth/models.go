package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role given to every new account
	RoleUser UserRole = "user"
	// RoleAdmin grants access to the admin console
	RoleAdmin UserRole = "admin"
)

// User is the aggregate root; accounts and email tokens hang off it.
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name            string     `bun:"name" json:"name,omitempty"`
	Email           string     `bun:"email,notnull,unique" json:"email,omitempty"`
	EmailVerifiedAt *time.Time `bun:"email_verified_at,nullzero" json:"email_verified_at,omitempty"`
	Image           string     `bun:"image" json:"image,omitempty"`
	PasswordHash    string     `bun:"password_hash" json:"-"`
	Role            UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Verified reports whether the user completed email verification.
func (u *User) Verified() bool {
	return u != nil && u.EmailVerifiedAt != nil
}

// HasPassword reports whether this is a local-credentials account.
// Pure-OAuth accounts carry no hash.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// Account is a federated identity link. The composite (provider,
// provider_account_id) key is the identity at the provider; user_id
// cascades with the owning User row.
type Account struct {
	bun.BaseModel     `bun:"table:accounts,alias:acc"`
	Provider          string     `bun:"provider,pk" json:"provider"`
	ProviderAccountID string     `bun:"provider_account_id,pk" json:"provider_account_id"`
	UserID            uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id"`
	Type              string     `bun:"type" json:"type,omitempty"`
	RefreshToken      string     `bun:"refresh_token" json:"-"`
	AccessToken       string     `bun:"access_token" json:"-"`
	ExpiresAt         *time.Time `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	TokenType         string     `bun:"token_type" json:"token_type,omitempty"`
	Scope             string     `bun:"scope" json:"scope,omitempty"`
	IDToken           string     `bun:"id_token" json:"-"`
	SessionState      string     `bun:"session_state" json:"-"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// VerificationToken is a single-use email verification token. Tokens are
// keyed by the plain email string, not by user id; rows for since-deleted
// users are tolerated and simply expire.
type VerificationToken struct {
	bun.BaseModel `bun:"table:verification_tokens,alias:vtk"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	Token         string    `bun:"token,notnull,unique" json:"token"`
	Expires       time.Time `bun:"expires,notnull" json:"expires"`
}

// PasswordResetToken mirrors VerificationToken in a separate namespace.
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string    `bun:"email,notnull,unique" json:"email"`
	Token         string    `bun:"token,notnull,unique" json:"token"`
	Expires       time.Time `bun:"expires,notnull" json:"expires"`
}

// EmailToken is the read surface the two token tables share.
type EmailToken interface {
	GetID() uuid.UUID
	GetEmail() string
	GetToken() string
	GetExpires() time.Time
	Expired(now time.Time) bool
}

func (t *VerificationToken) GetID() uuid.UUID      { return t.ID }
func (t *VerificationToken) GetEmail() string      { return t.Email }
func (t *VerificationToken) GetToken() string      { return t.Token }
func (t *VerificationToken) GetExpires() time.Time { return t.Expires }

func (t *VerificationToken) Expired(now time.Time) bool {
	return t.Expires.Before(now)
}

func (t *PasswordResetToken) GetID() uuid.UUID      { return t.ID }
func (t *PasswordResetToken) GetEmail() string      { return t.Email }
func (t *PasswordResetToken) GetToken() string      { return t.Token }
func (t *PasswordResetToken) GetExpires() time.Time { return t.Expires }

func (t *PasswordResetToken) Expired(now time.Time) bool {
	return t.Expires.Before(now)
}

var (
	_ EmailToken = (*VerificationToken)(nil)
	_ EmailToken = (*PasswordResetToken)(nil)
)
