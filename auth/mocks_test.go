package auth_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/modomall/console/auth"
	"github.com/uptrace/bun"
)

// testLogger discards output; tests assert on behavior, not logs.
type testLogger struct{}

func (testLogger) Debug(format string, args ...any) {}
func (testLogger) Info(format string, args ...any)  {}
func (testLogger) Warn(format string, args ...any)  {}
func (testLogger) Error(format string, args ...any) {}

// testConfig implements auth.Config with fixed development values.
type testConfig struct{}

func (testConfig) GetSigningKey() string           { return "test-signing-key-0123456789" }
func (testConfig) GetTokenExpiration() int         { return 1 }
func (testConfig) GetExtendedTokenDuration() int   { return 24 }
func (testConfig) GetIssuer() string               { return "console-test" }
func (testConfig) GetAudience() []string           { return []string{"console-test"} }
func (testConfig) GetContextKey() string           { return "user" }
func (testConfig) GetCookieDomain() string         { return "" }
func (testConfig) GetCookieSecure() bool           { return false }
func (testConfig) GetRejectedRouteKey() string     { return "rejected_route" }
func (testConfig) GetRejectedRouteDefault() string { return "/login" }
func (testConfig) GetDefaultRedirect() string      { return "/" }

type memUsers struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*auth.User
	outage bool
}

func newMemUsers(seed ...*auth.User) *memUsers {
	m := &memUsers{users: map[uuid.UUID]*auth.User{}}
	for _, u := range seed {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		m.users[u.ID] = u
	}
	return m
}

var errBackendDown = errors.New("backend down")

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outage {
		return nil, errBackendDown
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memUsers) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outage {
		return nil, errBackendDown
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, identifier) || u.ID.String() == identifier {
			return u, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memUsers) Create(ctx context.Context, record *auth.User) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = auth.RoleUser
	}
	m.users[record.ID] = record
	return record, nil
}

func (m *memUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User) (*auth.User, error) {
	return m.Create(ctx, record)
}

func (m *memUsers) Update(ctx context.Context, record *auth.User) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[record.ID] = record
	return record, nil
}

func (m *memUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *auth.User) (*auth.User, error) {
	return m.Update(ctx, record)
}

func (m *memUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memUsers) MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.NewRecordNotFound()
	}
	now := time.Now()
	u.EmailVerifiedAt = &now
	u.Email = email
	return nil
}

type memAccounts struct {
	mu       sync.Mutex
	accounts []*auth.Account
	outage   bool
}

func newMemAccounts(seed ...*auth.Account) *memAccounts {
	return &memAccounts{accounts: seed}
}

func (m *memAccounts) FindByProviderID(ctx context.Context, provider, providerAccountID string) (*auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Provider == provider && a.ProviderAccountID == providerAccountID {
			return a, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memAccounts) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*auth.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAccounts) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.outage {
		return 0, errBackendDown
	}
	records, _ := m.FindByUserID(ctx, userID)
	return len(records), nil
}

func (m *memAccounts) Upsert(ctx context.Context, record *auth.Account) (*auth.Account, error) {
	return m.UpsertTx(ctx, nil, record)
}

func (m *memAccounts) UpsertTx(ctx context.Context, tx bun.IDB, record *auth.Account) (*auth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.accounts {
		if a.Provider == record.Provider && a.ProviderAccountID == record.ProviderAccountID {
			m.accounts[i] = record
			return record, nil
		}
	}
	m.accounts = append(m.accounts, record)
	return record, nil
}

// memTokens is an in-memory EmailTokens table.
type memTokens struct {
	mu     sync.Mutex
	tokens []*auth.VerificationToken
}

func newMemTokens() *memTokens {
	return &memTokens{}
}

func (m *memTokens) all() []*auth.VerificationToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*auth.VerificationToken, len(m.tokens))
	copy(out, m.tokens)
	return out
}

func (m *memTokens) seed(email, token string, expires time.Time) *auth.VerificationToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := &auth.VerificationToken{ID: uuid.New(), Email: email, Token: token, Expires: expires}
	m.tokens = append(m.tokens, record)
	return record
}

func (m *memTokens) FindByEmail(ctx context.Context, email string) (auth.EmailToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Email == email {
			return t, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memTokens) FindByToken(ctx context.Context, token string) (auth.EmailToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Token == token {
			return t, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memTokens) CreateTx(ctx context.Context, tx bun.IDB, email, token string, expires time.Time) (auth.EmailToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := &auth.VerificationToken{ID: uuid.New(), Email: email, Token: token, Expires: expires}
	m.tokens = append(m.tokens, record)
	return record, nil
}

func (m *memTokens) DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tokens[:0]
	for _, t := range m.tokens {
		if t.Email != email {
			kept = append(kept, t)
		}
	}
	m.tokens = kept
	return nil
}

func (m *memTokens) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tokens[:0]
	for _, t := range m.tokens {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	m.tokens = kept
	return nil
}

// memRepo satisfies auth.RepositoryManager over the in-memory fakes.
// RunInTx simply runs the function; the fakes have no transactions.
type memRepo struct {
	users         *memUsers
	accounts      *memAccounts
	verifications *memTokens
	resets        *memTokens
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:         newMemUsers(),
		accounts:      newMemAccounts(),
		verifications: newMemTokens(),
		resets:        newMemTokens(),
	}
}

func (m *memRepo) Validate() error { return nil }
func (m *memRepo) MustValidate()   {}

func (m *memRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return f(ctx, bun.Tx{})
	}
}

func (m *memRepo) Users() auth.Users                     { return m.users }
func (m *memRepo) Accounts() auth.Accounts               { return m.accounts }
func (m *memRepo) VerificationTokens() auth.EmailTokens  { return m.verifications }
func (m *memRepo) PasswordResetTokens() auth.EmailTokens { return m.resets }

// mockMailer records outgoing messages.
type mockMailer struct {
	mu            sync.Mutex
	verifications []mailRecord
	resets        []mailRecord
	fail          bool
}

type mailRecord struct {
	Email string
	Token string
}

func (m *mockMailer) SendVerificationEmail(ctx context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errBackendDown
	}
	m.verifications = append(m.verifications, mailRecord{Email: email, Token: token})
	return nil
}

func (m *mockMailer) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errBackendDown
	}
	m.resets = append(m.resets, mailRecord{Email: email, Token: token})
	return nil
}

func timePtr(t time.Time) *time.Time { return &t }

func mustHash(password string) string {
	hash, err := auth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return hash
}
