package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/modomall/console/auth"
	"github.com/modomall/console/mailer"
	"github.com/modomall/console/middleware/csrf"
	"github.com/modomall/console/social"
	"github.com/modomall/console/social/providers/google"
	"github.com/modomall/console/social/providers/kakao"
	"github.com/modomall/console/store"
)

// AppConfig holds the non-auth settings of the console binary.
type AppConfig struct {
	Addr   string `env:"APP_ADDR" envDefault:":8080"`
	DSN    string `env:"APP_DSN" envDefault:"file::memory:?cache=shared"`
	AppURL string `env:"APP_URL" envDefault:"http://localhost:8080"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	ResendFrom   string `env:"RESEND_FROM" envDefault:"Console <no-reply@localhost>"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	KakaoClientID      string `env:"KAKAO_CLIENT_ID"`
	KakaoClientSecret  string `env:"KAKAO_CLIENT_SECRET"`

	StateEncryptionKey string `env:"OAUTH_STATE_KEY"`
	StateHMACKey       string `env:"OAUTH_STATE_HMAC_KEY"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	appCfg := &AppConfig{}
	if err := env.Parse(appCfg); err != nil {
		log.Fatalf("app config: %v", err)
	}

	authCfg, err := auth.NewEnvConfig()
	if err != nil {
		log.Fatalf("auth config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, appCfg.DSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	dispatcher := auth.NewEventDispatcher(nil).
		OnAccountLinked(auth.NewMarkVerifiedOnLink(repo))

	socialAuth := social.NewSocialAuthenticator(repo,
		social.SocialAuthConfig{
			BaseURL:            appCfg.AppURL,
			DefaultRedirectURL: authCfg.GetDefaultRedirect(),
			StateEncryptionKey: []byte(appCfg.StateEncryptionKey),
			StateHMACKey:       []byte(appCfg.StateHMACKey),
			StateTTL:           10 * time.Minute,
		},
		social.WithEventDispatcher(dispatcher),
		social.WithProvider(google.New(google.Config{
			ClientID:     appCfg.GoogleClientID,
			ClientSecret: appCfg.GoogleClientSecret,
			CallbackURL:  appCfg.AppURL + "/auth/google/callback",
		})),
		social.WithProvider(kakao.New(kakao.Config{
			ClientID:     appCfg.KakaoClientID,
			ClientSecret: appCfg.KakaoClientSecret,
			CallbackURL:  appCfg.AppURL + "/auth/kakao/callback",
		})),
	)

	auther := auth.NewAuthenticator(repo, authCfg).
		WithExchanger("google", social.NewExchanger(socialAuth, "google")).
		WithExchanger("kakao", social.NewExchanger(socialAuth, "kakao"))

	httpAuth, err := auth.NewHTTPAuthenticator(auther, authCfg)
	if err != nil {
		log.Fatalf("http authenticator: %v", err)
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	srv.Router().Use(mflash.New(mflash.ConfigDefault))
	srv.Router().Use(csrf.New(csrf.Config{
		SecureKey:         []byte(appCfg.StateHMACKey),
		SessionContextKey: authCfg.GetContextKey(),
	}))
	csrf.RegisterRoutes(srv.Router())

	auth.RegisterAuthRoutes(srv.Router(),
		auth.WithControllerRepo(repo),
		auth.WithControllerAuther(httpAuth),
		auth.WithControllerMailer(newMailer(appCfg)),
	)

	social.RegisterSocialRoutes(srv.Router(),
		social.WithSocialAuthenticatorController(socialAuth),
		social.WithSocialAuther(httpAuth),
	)

	catalog := store.NewCatalog(db)
	store.RegisterCatalogRoutes(srv.Router(), catalog, stdLogger{}, httpAuth.AdminRoute(authCfg))

	srv.Router().Get("/healthz", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, map[string]string{"status": "ok"})
	})

	log.Printf("console listening on %s", appCfg.Addr)
	srv.Serve(appCfg.Addr)

	<-ctx.Done()
	log.Println("shutting down")
}

func openDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	models := []any{
		(*auth.User)(nil),
		(*auth.Account)(nil),
		(*auth.VerificationToken)(nil),
		(*auth.PasswordResetToken)(nil),
		(*store.Service)(nil),
		(*store.ServiceCategory)(nil),
		(*store.Banner)(nil),
		(*store.Category)(nil),
		(*store.Color)(nil),
		(*store.Brand)(nil),
		(*store.Product)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func newMailer(cfg *AppConfig) auth.Mailer {
	if cfg.ResendAPIKey == "" {
		log.Println("RESEND_API_KEY not set, using dev mailer")
		return mailer.NewDevMailer(cfg.AppURL, stdLogger{})
	}

	m, err := mailer.NewResendMailer(mailer.ResendConfig{
		APIKey: cfg.ResendAPIKey,
		From:   cfg.ResendFrom,
		AppURL: cfg.AppURL,
	})
	if err != nil {
		log.Fatalf("mailer: %v", err)
	}
	return m
}

// stdLogger bridges the standard library logger into the auth Logger
// interface for the pieces main wires directly.
type stdLogger struct{}

func (stdLogger) Debug(format string, args ...any) { log.Printf("[DBG] "+format, args...) }
func (stdLogger) Info(format string, args ...any)  { log.Printf("[INF] "+format, args...) }
func (stdLogger) Warn(format string, args ...any)  { log.Printf("[WRN] "+format, args...) }
func (stdLogger) Error(format string, args ...any) { log.Printf("[ERR] "+format, args...) }
