package csrf

import "github.com/goliatone/go-router"

// RouteConfig controls the token bootstrap endpoint.
type RouteConfig struct {
	// Path is the route registered for retrieving the CSRF token.
	Path string
	// ContextKey is where the middleware stored the token.
	ContextKey string
	// FormFieldName and HeaderName are echoed so the frontend knows
	// where to put the token.
	FormFieldName string
	HeaderName    string
	// RouteName is the name assigned to the registered route.
	RouteName string
}

const (
	defaultRoutePath = "/csrf"
	defaultRouteName = "auth.csrf.get"
)

// RegisterRoutes registers a GET endpoint that hands the frontend a CSRF
// token plus the field and header names it can echo the token through.
// The middleware from New must run before it.
func RegisterRoutes[T any](app router.Router[T], cfg ...RouteConfig) {
	conf := routeConfigDefault(cfg...)
	app.Get(conf.Path, tokenHandler(conf)).SetName(conf.RouteName)
}

func routeConfigDefault(cfg ...RouteConfig) RouteConfig {
	conf := RouteConfig{
		Path:          defaultRoutePath,
		ContextKey:    DefaultContextKey,
		FormFieldName: DefaultFormFieldName,
		HeaderName:    DefaultHeaderName,
		RouteName:     defaultRouteName,
	}
	if len(cfg) == 0 {
		return conf
	}

	c := cfg[0]
	if c.Path != "" {
		conf.Path = c.Path
	}
	if c.ContextKey != "" {
		conf.ContextKey = c.ContextKey
	}
	if c.FormFieldName != "" {
		conf.FormFieldName = c.FormFieldName
	}
	if c.HeaderName != "" {
		conf.HeaderName = c.HeaderName
	}
	if c.RouteName != "" {
		conf.RouteName = c.RouteName
	}
	return conf
}

func tokenHandler(cfg RouteConfig) router.HandlerFunc {
	return func(ctx router.Context) error {
		token, _ := ctx.Locals(cfg.ContextKey).(string)
		if token == "" {
			return ctx.JSON(router.StatusUnauthorized, map[string]string{
				"error": ErrTokenMissing.Error(),
			})
		}

		ctx.SetHeader("Cache-Control", "no-store, max-age=0")

		return ctx.JSON(router.StatusOK, map[string]string{
			"token":       token,
			"field_name":  cfg.FormFieldName,
			"header_name": cfg.HeaderName,
		})
	}
}
