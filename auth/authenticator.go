package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// ProviderCredentials is the built-in email/password provider name.
// Federated providers register under their own names.
const ProviderCredentials = "credentials"

// SignInRequest is the transport-agnostic sign-in input.
type SignInRequest struct {
	Provider    string `json:"provider"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Code        string `json:"code"`
	State       string `json:"state"`
	CallbackURL string `json:"callback_url"`
}

// Validate checks the fields the named provider requires.
func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Provider, validation.Required),
		validation.Field(&r.Email, validation.Required.When(r.Provider == ProviderCredentials), is.Email),
		validation.Field(&r.Password, validation.Required.When(r.Provider == ProviderCredentials)),
		validation.Field(&r.Code, validation.Required.When(r.Provider != ProviderCredentials)),
	)
}

// SignInResult carries the issued session and where to send the user.
type SignInResult struct {
	Token      string   `json:"token"`
	Identity   Identity `json:"-"`
	RedirectTo string   `json:"redirect_to,omitempty"`
}

// Auther orchestrates sign-in across providers and owns the session
// token lifecycle.
type Auther struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	defaultRedirect string
	logger          Logger
	tokenService    TokenService
	enricher        *ClaimsEnricher
	exchangers      map[string]IdentityExchanger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Auther wired with the built-in
// credentials provider. Federated providers register via WithExchanger.
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	logger := defLogger{}

	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		logger,
	)

	store := NewCredentialStore(repo.Users(), logger)
	enricher := NewClaimsEnricher(store, repo.Accounts(), logger)

	auther := &Auther{
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		issuer:          opts.GetIssuer(),
		audience:        opts.GetAudience(),
		defaultRedirect: opts.GetDefaultRedirect(),
		logger:          logger,
		tokenService:    tokenService,
		enricher:        enricher,
		exchangers:      map[string]IdentityExchanger{},
	}

	auther.exchangers[ProviderCredentials] = NewCredentialsExchanger(store, logger)

	return auther
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithExchanger registers (or replaces) a sign-in provider.
func (s *Auther) WithExchanger(provider string, exchanger IdentityExchanger) *Auther {
	if provider != "" && exchanger != nil {
		s.exchangers[provider] = exchanger
	}
	return s
}

// WithEnricher replaces the claims enricher, mostly for tests.
func (s *Auther) WithEnricher(enricher *ClaimsEnricher) *Auther {
	if enricher != nil {
		s.enricher = enricher
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// SignIn authenticates the request through its named provider and
// returns a signed session token.
func (s *Auther) SignIn(ctx context.Context, req SignInRequest) (*SignInResult, error) {
	if err := req.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid sign in request")
	}

	exchanger, ok := s.exchangers[req.Provider]
	if !ok {
		s.logger.Warn("sign in with unregistered provider: %s", req.Provider)
		return nil, ErrUnknownProvider.Clone()
	}

	identity, err := exchanger.ExchangeForIdentity(ctx, ExchangeInput{
		Email:    req.Email,
		Password: req.Password,
		Code:     req.Code,
		State:    req.State,
	})
	if err != nil {
		s.logger.Error("sign in exchange failed for provider %s: %v", req.Provider, err)
		return nil, err
	}

	token, err := s.issueToken(ctx, identity)
	if err != nil {
		return nil, err
	}

	redirect := req.CallbackURL
	if redirect == "" {
		redirect = s.defaultRedirect
	}

	return &SignInResult{
		Token:      token,
		Identity:   identity,
		RedirectTo: redirect,
	}, nil
}

// IssueSession mints a session token for an already-authenticated user,
// as after registration or email confirmation.
func (s *Auther) IssueSession(ctx context.Context, user *User) (string, error) {
	if user == nil {
		return "", goerrors.New("user must not be nil", goerrors.CategoryBadInput)
	}
	return s.issueToken(ctx, NewIdentity(user, false))
}

// Refresh re-validates raw and issues a replacement token with fresh
// profile claims and a new expiry window.
func (s *Auther) Refresh(ctx context.Context, raw string) (string, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		return "", err
	}

	sessionClaims, ok := claims.(*SessionClaims)
	if !ok {
		return "", ErrUnableToMapClaims.Clone()
	}

	s.enricher.Enrich(ctx, sessionClaims)
	s.restampClaims(sessionClaims)

	return s.tokenService.SignClaims(sessionClaims)
}

func (s Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed: %v", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims: %v", err)
		return nil, err
	}

	return session, nil
}

func (s *Auther) issueToken(ctx context.Context, identity Identity) (string, error) {
	claims := s.newSessionClaims(identity)
	s.enricher.Enrich(ctx, claims)
	return s.tokenService.SignClaims(claims)
}

func (s *Auther) newSessionClaims(identity Identity) *SessionClaims {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(s.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(s.audience))
		copy(aud, s.audience)
	}

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.ID(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.tokenExpiration) * time.Hour)),
		},
		UID:       identity.ID(),
		UserName:  identity.Name(),
		UserEmail: identity.Email(),
		UserRole:  identity.Role(),
		OAuth:     identity.IsOAuth(),
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

// restampClaims resets the issuance window so the refreshed token gets a
// full lifetime and its own jti.
func (s *Auther) restampClaims(claims *SessionClaims) {
	now := time.Now()
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Duration(s.tokenExpiration) * time.Hour))
	claims.RegisteredClaims.ID = ""
	ensureTokenID(&claims.RegisteredClaims)
}

// CredentialsExchanger is the email/password provider. Account lookup
// failures and password mismatches surface as distinct errors: the
// console tells users when no account exists for an email.
type CredentialsExchanger struct {
	store  *CredentialStore
	logger Logger
}

var _ IdentityExchanger = (*CredentialsExchanger)(nil)

func NewCredentialsExchanger(store *CredentialStore, logger Logger) *CredentialsExchanger {
	if logger == nil {
		logger = defLogger{}
	}
	return &CredentialsExchanger{
		store:  store,
		logger: logger,
	}
}

func (e *CredentialsExchanger) ExchangeForIdentity(ctx context.Context, input ExchangeInput) (Identity, error) {
	user := e.store.FindByEmail(ctx, input.Email)
	if user == nil {
		return nil, ErrAccountNotFound.Clone()
	}

	if !user.HasPassword() {
		// Federated-only account; there is no hash to compare against.
		return nil, ErrInvalidCredentials.Clone()
	}

	if err := ComparePasswordAndHash(input.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials.Clone()
	}

	if !user.Verified() {
		e.logger.Info("sign in rejected for unverified email: %s", input.Email)
		return nil, ErrEmailNotVerified.Clone()
	}

	return NewIdentity(user, false), nil
}
