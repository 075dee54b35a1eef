package auth

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/modomall/console/middleware/sessionware"
)

// HTTPAuthenticator is the surface the HTTP controller drives.
type HTTPAuthenticator interface {
	SignIn(ctx router.Context, req SignInRequest) (*SignInResult, error)
	SignOut(ctx router.Context)
	SetSessionCookie(ctx router.Context, token string, extended bool)
	GetRedirect(ctx router.Context, def ...string) string
	GetRedirectOrDefault(ctx router.Context) string
	SetRedirect(ctx router.Context)
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
	AdminRoute(cfg Config) router.MiddlewareFunc
}

type RouteAuthenticator struct {
	auth                   Authenticator
	cfg                    Config
	cookieDuration         time.Duration
	extendedCookieDuration time.Duration
	Logger                 Logger
	AuthErrorHandler       func(c router.Context, err error) error
	ErrorHandler           func(c router.Context, err error) error
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	extendedCookieDuration := cookieDuration
	if cfg.GetExtendedTokenDuration() > 0 {
		extendedCookieDuration = time.Duration(cfg.GetExtendedTokenDuration()) * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:                    cfg,
		auth:                   auther,
		Logger:                 defLogger{},
		cookieDuration:         cookieDuration,
		extendedCookieDuration: extendedCookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

func (a RouteAuthenticator) GetExtendedCookieDuration() time.Duration {
	return a.extendedCookieDuration
}

// ProtectedRoute requires a valid session token on the route.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	validator, ok := a.auth.(interface{ TokenService() TokenService })
	if !ok {
		panic("AUTH: authenticator does not expose a token service")
	}

	return sessionware.New(sessionware.Config{
		ErrorHandler:   errorHandler,
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    "cookie:" + cfg.GetContextKey() + ",header:" + router.HeaderAuthorization,
		TokenValidator: sessionValidator{validator.TokenService()},
	})
}

// AdminRoute stacks the session check and the admin gate: a valid
// non-admin session lands on the default redirect, everything else on
// login.
func (a *RouteAuthenticator) AdminRoute(cfg Config) router.MiddlewareFunc {
	protected := a.ProtectedRoute(cfg, a.MakeClientRouteAuthErrorHandler(false))
	guard := AdminGuard(AdminGuardConfig{
		ContextKey:     cfg.GetContextKey(),
		DeniedRedirect: cfg.GetDefaultRedirect(),
		LoginRedirect:  cfg.GetRejectedRouteDefault(),
		Logger:         a.Logger,
	})

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return protected(guard(hf))
	}
}

// SignIn runs the sign-in flow and, on success, installs the session
// cookie.
func (a *RouteAuthenticator) SignIn(ctx router.Context, req SignInRequest) (*SignInResult, error) {
	result, err := a.auth.SignIn(ctx.Context(), req)
	if err != nil {
		a.Logger.Error("SignIn error: %s", err)
		return nil, err
	}

	a.SetSessionCookie(ctx, result.Token, false)
	return result, nil
}

func (a *RouteAuthenticator) SignOut(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetContextKey())
}

// SetSessionCookie installs the session token cookie; extended sessions
// get the remember-me duration.
func (a *RouteAuthenticator) SetSessionCookie(ctx router.Context, token string, extended bool) {
	duration := a.cookieDuration
	if extended {
		duration = a.extendedCookieDuration
	}
	a.setCookieToken(ctx, token, duration)
}

func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding: %s", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) GetRedirect(ctx router.Context, def ...string) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	r := ctx.Cookies(rejectedRoute)
	if r == "" {
		return def[0]
	}
	a.cookieDel(ctx, rejectedRoute)
	return r
}

func (a *RouteAuthenticator) GetRedirectOrDefault(ctx router.Context) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	refererHeader := string(ctx.Referer())

	r := ctx.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = a.cfg.GetRejectedRouteDefault()
	}
	a.cookieDel(ctx, rejectedRoute)
	return r
}

func (a *RouteAuthenticator) SetRedirect(ctx router.Context) {
	rejectedRoute := a.cfg.GetRejectedRouteKey()

	a.Logger.Info("Setting redirect cookie %s to %s", rejectedRoute, ctx.OriginalURL())

	ctx.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   a.cfg.GetCookieSecure(),
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Domain:   a.cfg.GetCookieDomain(),
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   a.cfg.GetCookieSecure(),
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Domain:   a.cfg.GetCookieDomain(),
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.cfg.GetCookieSecure(),
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error %s (%s), redirecting to login from %s",
		richErr.Message,
		richErr.TextCode,
		c.OriginalURL(),
	)

	a.SetRedirect(c)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect(a.cfg.GetRejectedRouteDefault(), statusCode)
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler %s (%v): %s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.JSON(richErr.Code, richErr)
	}
}

// sessionValidator adapts the auth TokenValidator to the middleware's
// claims surface.
type sessionValidator struct {
	validator TokenValidator
}

func (v sessionValidator) Validate(tokenString string) (sessionware.AuthClaims, error) {
	claims, err := v.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
