package auth

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// GuardDecision is the outcome of an admin-gate check.
type GuardDecision int

const (
	// GuardAllow lets the request through.
	GuardAllow GuardDecision = iota
	// GuardDenyUnauthenticated means no usable session was presented.
	GuardDenyUnauthenticated
	// GuardDenyForbidden means the session is valid but not an admin.
	GuardDenyForbidden
)

// DecideAdminAccess is the admin-gate predicate: only a valid session
// with the admin role gets through. Kept free of transport types so it
// can be exercised directly.
func DecideAdminAccess(claims AuthClaims) GuardDecision {
	if claims == nil || claims.UserID() == "" {
		return GuardDenyUnauthenticated
	}
	if !claims.IsAdmin() {
		return GuardDenyForbidden
	}
	return GuardAllow
}

// AdminGuardConfig configures the AdminGuard middleware.
type AdminGuardConfig struct {
	// ContextKey is where the session middleware stored the claims.
	ContextKey string
	// DeniedRedirect is where non-admin sessions get sent. Defaults to "/".
	DeniedRedirect string
	// LoginRedirect is where unauthenticated requests get sent.
	LoginRedirect string
	Logger        Logger
}

// AdminGuard keeps non-admin sessions out of console routes. Valid
// sessions without the admin role bounce to the storefront rather than
// an error page; missing sessions go to login.
func AdminGuard(cfg AdminGuardConfig) router.MiddlewareFunc {
	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}
	if cfg.DeniedRedirect == "" {
		cfg.DeniedRedirect = "/"
	}
	if cfg.LoginRedirect == "" {
		cfg.LoginRedirect = "/login"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, _ := GetRouterClaims(ctx, cfg.ContextKey)

			switch DecideAdminAccess(claims) {
			case GuardAllow:
				return hf(ctx)
			case GuardDenyForbidden:
				logger.Info("admin guard rejected non-admin session: %s", claims.UserID())
				return ctx.Redirect(cfg.DeniedRedirect, router.StatusSeeOther)
			default:
				return ctx.Redirect(cfg.LoginRedirect, router.StatusSeeOther)
			}
		}
	}
}

// RequireAdmin is the API flavor of the guard: it answers with an error
// payload instead of redirecting.
func RequireAdmin(contextKey string) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, _ := GetRouterClaims(ctx, contextKey)

			switch DecideAdminAccess(claims) {
			case GuardAllow:
				return hf(ctx)
			case GuardDenyForbidden:
				return ctx.JSON(router.StatusForbidden, errors.New("admin role required", errors.CategoryAuthz))
			default:
				return ctx.JSON(router.StatusUnauthorized, ErrUnableToFindSession)
			}
		}
	}
}
