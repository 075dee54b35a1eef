package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-router"
)

var (
	ErrTokenMismatch    = errors.New("CSRF token mismatch")
	ErrTokenMissing     = errors.New("CSRF token missing")
	ErrTokenExpired     = errors.New("CSRF token expired")
	ErrSecureKeyMissing = errors.New("CSRF secure key required")
)

// DefaultTokenLength is the nonce length of generated tokens.
const DefaultTokenLength = 32

// DefaultContextKey is where the middleware stores the issued token.
const DefaultContextKey = "csrf_token"

// DefaultFormFieldName is the form field the validator reads.
const DefaultFormFieldName = "_token"

// DefaultHeaderName is the request header the validator reads.
const DefaultHeaderName = "X-CSRF-Token"

// DefaultExpiration bounds how old a token may be.
const DefaultExpiration = 24 * time.Hour

// sessionReader is the slice of the session claims the middleware needs.
// Matches what the session middleware stores without importing it.
type sessionReader interface {
	UserID() string
}

// Config defines the configuration for the CSRF middleware. Tokens are
// stateless: an HMAC over a timestamp, a random nonce, and the caller's
// session key, so no server-side storage is involved.
type Config struct {
	// Skip defines a function to skip the middleware.
	Skip func(router.Context) bool

	// SecureKey signs the issued tokens. Required.
	SecureKey []byte

	// TokenLength is the nonce length in bytes.
	TokenLength int

	// ContextKey is where the token lands for handlers and templates.
	ContextKey string

	// FormFieldName is the form field checked on unsafe methods.
	FormFieldName string

	// HeaderName is the header checked on unsafe methods.
	HeaderName string

	// SessionContextKey is where the session middleware stored the
	// decoded claims; the token binds to the session's user when present.
	SessionContextKey string

	// SafeMethods pass through without validation.
	SafeMethods []string

	// Expiration bounds token age.
	Expiration time.Duration

	// ErrorHandler renders rejections. Defaults to a 403 JSON payload.
	ErrorHandler router.ErrorHandler
}

func (cfg Config) withDefaults() Config {
	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultTokenLength
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}
	if cfg.FormFieldName == "" {
		cfg.FormFieldName = DefaultFormFieldName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}
	if cfg.SessionContextKey == "" {
		cfg.SessionContextKey = "user"
	}
	if cfg.SafeMethods == nil {
		cfg.SafeMethods = []string{"GET", "HEAD", "OPTIONS", "TRACE"}
	}
	if cfg.Expiration == 0 {
		cfg.Expiration = DefaultExpiration
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			return ctx.JSON(router.StatusForbidden, map[string]string{
				"error": err.Error(),
			})
		}
	}
	return cfg
}

// New creates the CSRF middleware. Every request gets a token in the
// context; unsafe methods additionally have to echo a valid token back
// through the form field or header.
func New(config Config) router.MiddlewareFunc {
	cfg := config.withDefaults()

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			token, err := issueToken(ctx, cfg)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, token)

			method := strings.ToUpper(ctx.Method())
			if slices.Contains(cfg.SafeMethods, method) {
				return hf(ctx)
			}

			received := ctx.FormValue(cfg.FormFieldName)
			if received == "" {
				received = ctx.GetString(cfg.HeaderName, "")
			}
			if received == "" {
				return cfg.ErrorHandler(ctx, ErrTokenMissing)
			}

			if err := validateToken(ctx, cfg, received); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			return hf(ctx)
		}
	}
}

func issueToken(ctx router.Context, cfg Config) (string, error) {
	if len(cfg.SecureKey) == 0 {
		return "", ErrSecureKeyMissing
	}

	nonce := make([]byte, cfg.TokenLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	payload := fmt.Sprintf("%d:%s:%s",
		time.Now().UTC().Unix(),
		hex.EncodeToString(nonce),
		sessionKey(ctx, cfg),
	)

	mac := hmac.New(sha256.New, cfg.SecureKey)
	mac.Write([]byte(payload))

	token := payload + ":" + hex.EncodeToString(mac.Sum(nil))
	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

func validateToken(ctx router.Context, cfg Config, token string) error {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrTokenMismatch
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 4 {
		return ErrTokenMismatch
	}

	timestamp, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ErrTokenMismatch
	}

	signature, err := hex.DecodeString(parts[3])
	if err != nil {
		return ErrTokenMismatch
	}

	payload := strings.Join(parts[:3], ":")
	mac := hmac.New(sha256.New, cfg.SecureKey)
	mac.Write([]byte(payload))
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return ErrTokenMismatch
	}

	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(sessionKey(ctx, cfg))) != 1 {
		return ErrTokenMismatch
	}

	if cfg.Expiration > 0 {
		if time.Now().UTC().After(time.Unix(timestamp, 0).Add(cfg.Expiration)) {
			return ErrTokenExpired
		}
	}

	return nil
}

// sessionKey binds tokens to the signed-in user when a session is
// present, falling back to the client IP for anonymous form posts like
// login itself.
func sessionKey(ctx router.Context, cfg Config) string {
	if claims, ok := ctx.Locals(cfg.SessionContextKey).(sessionReader); ok {
		if id := claims.UserID(); id != "" {
			return "user_" + id
		}
	}
	return "ip_" + ctx.IP()
}
