package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims for an admin-console session
type AuthClaims interface {
	Subject() string
	UserID() string
	Name() string
	Email() string
	Role() UserRole
	IsOAuth() bool
	IsAdmin() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// SessionClaims is the concrete implementation of AuthClaims. The JSON
// field names are the session payload the console frontend reads; keep
// them stable.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID       string   `json:"uid,omitempty"`
	UserName  string   `json:"name,omitempty"`
	UserEmail string   `json:"email,omitempty"`
	UserRole  UserRole `json:"role,omitempty"`
	OAuth     bool     `json:"is_oauth"`
}

// Verify interface compliance
var _ AuthClaims = (*SessionClaims)(nil)

// Subject returns the subject claim
func (c *SessionClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Name returns the display name carried in the session
func (c *SessionClaims) Name() string {
	return c.UserName
}

// Email returns the email carried in the session
func (c *SessionClaims) Email() string {
	return c.UserEmail
}

// Role returns the global role
func (c *SessionClaims) Role() UserRole {
	return c.UserRole
}

// IsOAuth reports whether the session belongs to a federated account
func (c *SessionClaims) IsOAuth() bool {
	return c.OAuth
}

// IsAdmin reports whether the session may enter the admin console
func (c *SessionClaims) IsAdmin() bool {
	return c.UserRole == RoleAdmin
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
