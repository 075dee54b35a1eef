package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modomall/console/auth"
)

// SocialAuthenticator orchestrates federated sign-in flows.
type SocialAuthenticator struct {
	providers       map[string]SocialProvider
	stateManager    StateManager
	linkingStrategy LinkingStrategy
	repo            auth.RepositoryManager
	dispatcher      *auth.EventDispatcher
	logger          auth.Logger
	config          SocialAuthConfig
}

// SocialAuthConfig configures the social authenticator.
type SocialAuthConfig struct {
	BaseURL            string
	CallbackPath       string
	DefaultRedirectURL string
	StateEncryptionKey []byte
	StateHMACKey       []byte
	StateTTL           time.Duration
}

// SocialAuthOption configures the social authenticator.
type SocialAuthOption func(*SocialAuthenticator)

// NewSocialAuthenticator creates a new social authenticator.
func NewSocialAuthenticator(
	repo auth.RepositoryManager,
	config SocialAuthConfig,
	opts ...SocialAuthOption,
) *SocialAuthenticator {
	cfg := config
	if cfg.StateTTL == 0 {
		cfg.StateTTL = 10 * time.Minute
	}

	sa := &SocialAuthenticator{
		providers: make(map[string]SocialProvider),
		repo:      repo,
		config:    cfg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sa)
		}
	}

	if sa.stateManager == nil {
		sa.stateManager = NewEncryptedStateManager(
			cfg.StateEncryptionKey,
			cfg.StateHMACKey,
			cfg.StateTTL,
		)
	}

	if sa.linkingStrategy == nil {
		sa.linkingStrategy = &DefaultLinkingStrategy{
			OnAccountLinked: sa.emitAccountLinked,
		}
	}

	return sa
}

// WithProvider registers a social provider.
func WithProvider(provider SocialProvider) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		if provider == nil {
			return
		}
		sa.providers[provider.Name()] = provider
	}
}

// WithStateManager sets a custom state manager.
func WithStateManager(sm StateManager) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.stateManager = sm
	}
}

// WithLinkingStrategy sets a custom user linking strategy.
func WithLinkingStrategy(ls LinkingStrategy) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.linkingStrategy = ls
	}
}

// WithEventDispatcher sets the dispatcher that receives AccountLinked
// events.
func WithEventDispatcher(d *auth.EventDispatcher) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.dispatcher = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger auth.Logger) SocialAuthOption {
	return func(sa *SocialAuthenticator) {
		sa.logger = logger
	}
}

// BeginAuth starts the OAuth flow for a provider.
func (sa *SocialAuthenticator) BeginAuth(
	ctx context.Context,
	providerName string,
	opts ...BeginAuthOption,
) (*AuthRedirect, error) {
	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	if sa.stateManager == nil {
		return nil, ErrInvalidState
	}

	cfg := &beginAuthConfig{
		redirectURL: sa.config.DefaultRedirectURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	codeChallenge := computeCodeChallenge(codeVerifier)

	state := &OAuthState{
		Nonce:        generateNonce(),
		Provider:     providerName,
		CodeVerifier: codeVerifier,
		RedirectURL:  cfg.redirectURL,
		IssuedAt:     time.Now().Unix(),
		ExpiresAt:    time.Now().Add(sa.config.StateTTL).Unix(),
	}

	stateToken, err := sa.stateManager.Encode(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	authURL := provider.AuthCodeURL(stateToken, WithPKCE(codeChallenge, "S256"))

	return &AuthRedirect{
		URL:      authURL,
		State:    stateToken,
		Provider: providerName,
	}, nil
}

// CompleteAuth finishes the OAuth flow after callback.
func (sa *SocialAuthenticator) CompleteAuth(
	ctx context.Context,
	providerName string,
	code string,
	stateToken string,
) (*AuthResult, error) {
	if sa.stateManager == nil {
		return nil, ErrInvalidState
	}

	state, err := sa.stateManager.Decode(stateToken)
	if err != nil {
		if errors.Is(err, ErrStateExpired) {
			return nil, ErrStateExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if state.Provider != providerName {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidState)
	}

	provider, ok := sa.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	token, err := provider.Exchange(ctx, code, WithCodeVerifier(state.CodeVerifier))
	if err != nil {
		return nil, wrapProviderError(ErrTokenExchangeFailed, providerName, "exchange", err)
	}

	profile, err := provider.UserInfo(ctx, token)
	if err != nil {
		return nil, wrapProviderError(ErrUserInfoFailed, providerName, "user_info", err)
	}

	result, err := sa.linkingStrategy.ResolveUser(ctx, LinkingContext{
		Profile:  profile,
		Accounts: sa.repo.Accounts(),
		Users:    sa.repo.Users(),
	})
	if err != nil {
		return nil, err
	}
	if result == nil || result.User == nil {
		return nil, auth.ErrAccountNotFound
	}

	account := &auth.Account{
		Provider:          providerName,
		ProviderAccountID: profile.ProviderUserID,
		UserID:            result.User.ID,
		Type:              "oauth",
		AccessToken:       token.AccessToken,
		RefreshToken:      token.RefreshToken,
		TokenType:         token.TokenType,
		Scope:             strings.Join(token.Scopes, " "),
		IDToken:           token.IDToken,
	}
	if !token.ExpiresAt.IsZero() {
		expiresAt := token.ExpiresAt
		account.ExpiresAt = &expiresAt
	}

	if _, err := sa.repo.Accounts().Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save provider account: %w", err)
	}

	return &AuthResult{
		User:        result.User,
		Identity:    auth.NewIdentity(result.User, true),
		IsNewUser:   result.IsNewUser,
		Linked:      result.Linked,
		Provider:    providerName,
		Profile:     profile,
		RedirectURL: state.RedirectURL,
	}, nil
}

// ListProviders returns the registered provider names, for rendering
// the login page's provider buttons. Authorize URLs carry state and a
// PKCE challenge, so they are minted per request by BeginAuth.
func (sa *SocialAuthenticator) ListProviders() []ProviderInfo {
	var providers []ProviderInfo
	for name := range sa.providers {
		providers = append(providers, ProviderInfo{Name: name})
	}
	return providers
}

func (sa *SocialAuthenticator) emitAccountLinked(ctx context.Context, user *auth.User, profile *SocialProfile) error {
	if sa.dispatcher == nil {
		return nil
	}
	return sa.dispatcher.Dispatch(ctx, auth.AccountLinked{
		UserID:   user.ID,
		Provider: profile.Provider,
	})
}

// ProviderInfo describes an available provider.
type ProviderInfo struct {
	Name string
}

// AuthRedirect contains the authorization URL for redirecting users.
type AuthRedirect struct {
	URL      string
	State    string
	Provider string
}

// AuthResult contains the result of a successful authentication.
type AuthResult struct {
	User        *auth.User
	Identity    auth.Identity
	IsNewUser   bool
	Linked      bool
	Provider    string
	Profile     *SocialProfile
	RedirectURL string
}

// BeginAuthOption configures the auth initiation.
type BeginAuthOption func(*beginAuthConfig)

type beginAuthConfig struct {
	redirectURL string
}

// WithRedirectURL sets the post-auth redirect URL.
func WithRedirectURL(url string) BeginAuthOption {
	return func(c *beginAuthConfig) {
		c.redirectURL = url
	}
}

// Exchanger adapts one registered provider to the auth package's
// IdentityExchanger so federated sign-ins flow through the same
// orchestrator as credentials.
type Exchanger struct {
	sa       *SocialAuthenticator
	provider string
}

var _ auth.IdentityExchanger = (*Exchanger)(nil)

// NewExchanger returns an IdentityExchanger backed by providerName.
func NewExchanger(sa *SocialAuthenticator, providerName string) *Exchanger {
	return &Exchanger{sa: sa, provider: providerName}
}

// ExchangeForIdentity implements auth.IdentityExchanger.
func (e *Exchanger) ExchangeForIdentity(ctx context.Context, input auth.ExchangeInput) (auth.Identity, error) {
	result, err := e.sa.CompleteAuth(ctx, e.provider, input.Code, input.State)
	if err != nil {
		return nil, err
	}
	return result.Identity, nil
}
