package auth

import (
	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

var _ Config = &EnvConfig{}

// EnvConfig is the environment-backed Config implementation. Defaults
// are development values; production deployments set every variable.
type EnvConfig struct {
	SigningKey            string   `env:"AUTH_SIGNING_KEY,required"`
	TokenExpiration       int      `env:"AUTH_TOKEN_EXPIRATION" envDefault:"24"`
	ExtendedTokenDuration int      `env:"AUTH_EXTENDED_TOKEN_DURATION" envDefault:"168"`
	Issuer                string   `env:"AUTH_ISSUER" envDefault:"console"`
	Audience              []string `env:"AUTH_AUDIENCE" envDefault:"console"`
	ContextKey            string   `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	CookieDomain          string   `env:"AUTH_COOKIE_DOMAIN"`
	CookieSecure          bool     `env:"AUTH_COOKIE_SECURE" envDefault:"false"`
	RejectedRouteKey      string   `env:"AUTH_REJECTED_ROUTE_KEY" envDefault:"rejected_route"`
	RejectedRouteDefault  string   `env:"AUTH_REJECTED_ROUTE_DEFAULT" envDefault:"/login"`
	DefaultRedirect       string   `env:"AUTH_DEFAULT_REDIRECT" envDefault:"/"`
}

// NewEnvConfig parses auth configuration from the environment.
func NewEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to parse auth config")
	}
	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string { return c.SigningKey }
func (c *EnvConfig) GetTokenExpiration() int { return c.TokenExpiration }
func (c *EnvConfig) GetExtendedTokenDuration() int { return c.ExtendedTokenDuration }
func (c *EnvConfig) GetIssuer() string { return c.Issuer }
func (c *EnvConfig) GetAudience() []string { return c.Audience }
func (c *EnvConfig) GetContextKey() string { return c.ContextKey }
func (c *EnvConfig) GetCookieDomain() string { return c.CookieDomain }
func (c *EnvConfig) GetCookieSecure() bool { return c.CookieSecure }
func (c *EnvConfig) GetRejectedRouteKey() string { return c.RejectedRouteKey }
func (c *EnvConfig) GetRejectedRouteDefault() string { return c.RejectedRouteDefault }
func (c *EnvConfig) GetDefaultRedirect() string { return c.DefaultRedirect }
