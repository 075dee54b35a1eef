package social

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/modomall/console/auth"
)

// LinkingStrategy determines how social profiles are linked to users.
type LinkingStrategy interface {
	ResolveUser(ctx context.Context, lc LinkingContext) (*LinkingResult, error)
}

// LinkingContext provides context for user resolution.
type LinkingContext struct {
	Profile  *SocialProfile
	Accounts auth.Accounts
	Users    auth.Users
}

// LinkingResult contains the resolved user and metadata.
type LinkingResult struct {
	User      *auth.User
	IsNewUser bool
	Linked    bool
}

// DefaultLinkingStrategy resolves a provider profile to a local user:
// an existing provider link wins, then an email match links the
// provider to the existing account, otherwise a new user is created.
// Email-match linking trusts the provider's address check, which is why
// linking marks the local email verified downstream.
type DefaultLinkingStrategy struct {
	OnAccountLinked func(ctx context.Context, user *auth.User, profile *SocialProfile) error
	OnUserCreated   func(ctx context.Context, user *auth.User, profile *SocialProfile) error
}

var _ LinkingStrategy = (*DefaultLinkingStrategy)(nil)

// ResolveUser implements LinkingStrategy.
func (s *DefaultLinkingStrategy) ResolveUser(ctx context.Context, lc LinkingContext) (*LinkingResult, error) {
	if lc.Profile == nil {
		return nil, ErrUserInfoFailed
	}
	if lc.Accounts == nil || lc.Users == nil {
		return nil, ErrUserInfoFailed
	}

	profile := lc.Profile

	if profile.Email == "" {
		return nil, ErrEmailMissing
	}

	existing, err := lc.Accounts.FindByProviderID(ctx, profile.Provider, profile.ProviderUserID)
	if err == nil && existing != nil {
		user, err := lc.Users.GetByID(ctx, existing.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to find linked user: %w", err)
		}
		return &LinkingResult{User: user, IsNewUser: false}, nil
	}
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, fmt.Errorf("failed to find linked account: %w", err)
	}

	user, err := lc.Users.GetByIdentifier(ctx, profile.Email)
	if err == nil && user != nil {
		if s.OnAccountLinked != nil {
			if err := s.OnAccountLinked(ctx, user, profile); err != nil {
				return nil, err
			}
		}
		return &LinkingResult{User: user, IsNewUser: false, Linked: true}, nil
	}
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	created, err := lc.Users.Create(ctx, s.createUserFromProfile(profile))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.OnUserCreated != nil {
		if err := s.OnUserCreated(ctx, created, profile); err != nil {
			return nil, err
		}
	}

	return &LinkingResult{User: created, IsNewUser: true}, nil
}

func (s *DefaultLinkingStrategy) createUserFromProfile(profile *SocialProfile) *auth.User {
	user := &auth.User{
		Name:  profile.Name,
		Email: profile.Email,
		Image: profile.AvatarURL,
		Role:  auth.RoleUser,
	}

	// Same stable-ID scheme registration uses, so a later local
	// registration with this email resolves to the same row key.
	if id, err := hashid.NewUUID(profile.Email); err == nil {
		user.ID = id
	}

	// The provider vouched for the address; the local verification gate
	// applies only to password accounts.
	if profile.EmailVerified {
		now := time.Now()
		user.EmailVerifiedAt = &now
	}

	return user
}
