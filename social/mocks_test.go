package social

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/modomall/console/auth"
	"github.com/uptrace/bun"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*auth.User
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

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memUsers) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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

type memRepoManager struct {
	users    *memUsers
	accounts *memAccounts
}

func (m *memRepoManager) Validate() error { return nil }
func (m *memRepoManager) MustValidate()   {}

func (m *memRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *memRepoManager) Users() auth.Users                    { return m.users }
func (m *memRepoManager) Accounts() auth.Accounts              { return m.accounts }
func (m *memRepoManager) VerificationTokens() auth.EmailTokens { return nil }
func (m *memRepoManager) PasswordResetTokens() auth.EmailTokens {
	return nil
}

// fakeProvider returns canned token and profile responses.
type fakeProvider struct {
	name     string
	profile  *SocialProfile
	token    *Token
	exchErr  error
	infoErr  error
	lastOpts ExchangeConfig
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) AuthCodeURL(state string, opts ...AuthCodeOption) string {
	cfg := ApplyAuthCodeOptions(nil, opts...)
	u := "https://provider.test/authorize?state=" + state
	if cfg.CodeChallenge != "" {
		u += "&code_challenge=" + cfg.CodeChallenge
	}
	return u
}

func (p *fakeProvider) Exchange(ctx context.Context, code string, opts ...ExchangeOption) (*Token, error) {
	p.lastOpts = ApplyExchangeOptions(opts...)
	if p.exchErr != nil {
		return nil, p.exchErr
	}
	return p.token, nil
}

func (p *fakeProvider) UserInfo(ctx context.Context, token *Token) (*SocialProfile, error) {
	if p.infoErr != nil {
		return nil, p.infoErr
	}
	return p.profile, nil
}
