package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// CredentialStore is the tolerant read layer over users. Lookups report
// presence only: a read failure is logged and surfaces as absent, so
// callers never have to distinguish "missing" from "backend hiccup".
type CredentialStore struct {
	users  Users
	logger Logger
}

func NewCredentialStore(users Users, logger Logger) *CredentialStore {
	if logger == nil {
		logger = defLogger{}
	}
	return &CredentialStore{
		users:  users,
		logger: logger,
	}
}

// FindByEmail returns the user for email, or nil when absent.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) *User {
	if email == "" {
		return nil
	}

	user, err := s.users.GetByIdentifier(ctx, email)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			s.logger.Warn("credential store read by email failed: %v", err)
		}
		return nil
	}

	return user
}

// FindByID returns the user for id, or nil when absent.
func (s *CredentialStore) FindByID(ctx context.Context, id uuid.UUID) *User {
	if id == uuid.Nil {
		return nil
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			s.logger.Warn("credential store read by id failed: %v", err)
		}
		return nil
	}

	return user
}
