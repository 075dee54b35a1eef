package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrAccountNotFound is returned when a sign-in email matches no user.
// Deliberately distinct from ErrInvalidCredentials: the source system
// confirms account existence and we preserve that observable behavior.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode("ACCOUNT_NOT_FOUND")

// ErrInvalidCredentials is returned on a password mismatch for an
// existing account.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INVALID_CREDENTIALS")

// ErrEmailNotVerified rejects local-credential sign-ins before the
// verification token was consumed. Federated sign-ins bypass this gate.
var ErrEmailNotVerified = errors.New("email address not verified", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("EMAIL_NOT_VERIFIED")

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("an account with this email already exists", errors.CategoryConflict).
	WithTextCode("EMAIL_TAKEN")

// ErrTokenNotFound is returned when consuming an unknown email token.
var ErrTokenNotFound = errors.New("token not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode("TOKEN_NOT_FOUND")

// ErrTokenExpired covers both expired session tokens and expired email
// tokens; consumption rejects either way.
var ErrTokenExpired = errors.New("token has expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned for session tokens that fail to parse.
var ErrTokenMalformed = errors.New("invalid or malformed token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_MALFORMED")

// ErrUnknownProvider is returned for sign-in requests naming a provider
// that was never registered.
var ErrUnknownProvider = errors.New("unknown sign-in provider", errors.CategoryBadInput).
	WithTextCode("UNKNOWN_PROVIDER")

// ErrMismatchedHashAndPassword is the bcrypt mismatch sentinel.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("PASSWORD_MISMATCH")

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD")

// TextCodeTokenExpired is shared by session and email token expiry errors.
const TextCodeTokenExpired = "TOKEN_EXPIRED"

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
