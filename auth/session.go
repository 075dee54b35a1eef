package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the decoded view of a session token handed to
// request handlers and templates.
type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	UserName       string     `json:"name,omitempty"`
	UserEmail      string     `json:"email,omitempty"`
	Role           UserRole   `json:"role,omitempty"`
	OAuth          bool       `json:"is_oauth"`
	Audience       []string   `json:"audience,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetEmail() string {
	return s.UserEmail
}

func (s *SessionObject) GetRole() UserRole {
	return s.Role
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

// IsAdmin reports whether this session may enter the admin console.
func (s *SessionObject) IsAdmin() bool {
	return s.Role == RoleAdmin
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s email=%s role=%s oauth=%t iss=%s iat=%s",
		s.UserID,
		s.UserEmail,
		s.Role,
		s.OAuth,
		s.Issuer,
		issuedAt,
	)
}

// sessionFromAuthClaims creates a SessionObject from decoded claims
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToMapClaims
	}

	var audience []string
	issuer := claims.Subject()
	if sc, ok := claims.(*SessionClaims); ok {
		audience = append(audience, sc.RegisteredClaims.Audience...)
		if sc.RegisteredClaims.Issuer != "" {
			issuer = sc.RegisteredClaims.Issuer
		}
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	return &SessionObject{
		UserID:         claims.UserID(),
		UserName:       claims.Name(),
		UserEmail:      claims.Email(),
		Role:           claims.Role(),
		OAuth:          claims.IsOAuth(),
		Audience:       audience,
		Issuer:         issuer,
		IssuedAt:       &issuedAt,
		ExpirationDate: &expiresAt,
	}, nil
}
