package social

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/modomall/console/auth"
)

// RegisterSocialRoutes mounts the federated sign-in flows on the router.
func RegisterSocialRoutes[T any](app router.Router[T], opts ...SocialControllerOption) {

	controller := NewSocialController(opts...)

	app.
		Get(fmt.Sprintf("%s/:provider", controller.Routes.Begin), controller.Begin).
		SetName("social-sign-in.get")

	app.
		Get(fmt.Sprintf("%s/:provider/callback", controller.Routes.Begin), controller.Callback).
		SetName("social-callback.get")
}

type SocialControllerRoutes struct {
	Begin string
	Login string
}

type SocialController struct {
	Logger auth.Logger
	Social *SocialAuthenticator
	Auther auth.HTTPAuthenticator
	Routes *SocialControllerRoutes
	Views  *SocialControllerViews
}

type SocialControllerViews struct {
	Login string
}

type SocialControllerOption func(*SocialController) *SocialController

func NewSocialController(opts ...SocialControllerOption) *SocialController {
	c := &SocialController{
		Logger: nil,
		Routes: &SocialControllerRoutes{
			Begin: "/auth",
			Login: "/login",
		},
		Views: &SocialControllerViews{
			Login: "login",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Social == nil {
		panic("Missing SocialAuthenticator in social controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in social controller...")
	}

	return c
}

func WithSocialAuthenticatorController(sa *SocialAuthenticator) SocialControllerOption {
	return func(c *SocialController) *SocialController {
		c.Social = sa
		return c
	}
}

func WithSocialAuther(auther auth.HTTPAuthenticator) SocialControllerOption {
	return func(c *SocialController) *SocialController {
		c.Auther = auther
		return c
	}
}

func WithSocialLogger(logger auth.Logger) SocialControllerOption {
	return func(c *SocialController) *SocialController {
		c.Logger = logger
		return c
	}
}

// Begin redirects the browser to the provider's consent screen.
func (c *SocialController) Begin(ctx router.Context) error {
	providerName := ctx.Param("provider", "")

	redirect, err := c.Social.BeginAuth(
		ctx.Context(),
		providerName,
		WithRedirectURL(ctx.Query("redirect", "")),
	)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Error("social begin %s: %v", providerName, err)
		}
		return c.failLogin(ctx, socialErrorMessage(err))
	}

	return ctx.Redirect(redirect.URL, router.StatusFound)
}

// Callback finishes the provider handshake and signs the user in.
func (c *SocialController) Callback(ctx router.Context) error {
	providerName := ctx.Param("provider", "")

	if denied := ctx.Query("error", ""); denied != "" {
		if c.Logger != nil {
			c.Logger.Warn("social callback %s denied: %s", providerName, denied)
		}
		return c.failLogin(ctx, "Sign in was cancelled")
	}

	code := ctx.Query("code", "")
	state := ctx.Query("state", "")
	if code == "" || state == "" {
		return c.failLogin(ctx, "Invalid provider response")
	}

	result, err := c.Auther.SignIn(ctx, auth.SignInRequest{
		Provider: providerName,
		Code:     code,
		State:    state,
	})
	if err != nil {
		if c.Logger != nil {
			c.Logger.Error("social callback %s: %v", providerName, err)
		}
		return c.failLogin(ctx, socialErrorMessage(err))
	}

	redirect := c.Auther.GetRedirect(ctx, result.RedirectTo)

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (c *SocialController) failLogin(ctx router.Context, message string) error {
	return flash.WithError(ctx, router.ViewContext{
		"error_message": message,
	}).Redirect(c.Routes.Login, router.StatusSeeOther)
}

// socialErrorMessage maps federated sign-in failures to what the login
// form shows.
func socialErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrProviderNotFound):
		return "Unknown sign in provider"
	case errors.Is(err, ErrStateExpired):
		return "Your sign in attempt expired, please try again"
	case errors.Is(err, ErrInvalidState):
		return "Invalid sign in attempt, please try again"
	case errors.Is(err, ErrEmailMissing):
		return "The provider did not share an email address"
	case errors.Is(err, ErrTokenExchangeFailed), errors.Is(err, ErrUserInfoFailed):
		return "The provider could not complete sign in"
	default:
		return "Authentication error"
	}
}
