package identity

import (
	goerrors "github.com/goliatone/go-errors"
)

// Stable text codes the boundary layer can switch on without string matching
const (
	TextCodeDuplicateEmail      = "DUPLICATE_EMAIL"
	TextCodeUserNotFound        = "USER_NOT_FOUND"
	TextCodeInvalidCreds        = "INVALID_CREDENTIALS"
	TextCodeUnauthenticated     = "UNAUTHENTICATED"
	TextCodeInsufficientRole    = "INSUFFICIENT_ROLE"
	TextCodeInvalidAccountState = "INVALID_ACCOUNT_STATE"
	TextCodeUnknownRole         = "UNKNOWN_ROLE"
	TextCodeImmutableField      = "IMMUTABLE_FIELD"
	TextCodePasswordPolicy      = "PASSWORD_POLICY"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenPurpose        = "TOKEN_PURPOSE_MISMATCH"
	TextCodeTokenSignature      = "TOKEN_SIGNATURE_INVALID"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
)

// ErrDuplicateEmail is returned when registering an email that already exists
var ErrDuplicateEmail = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrUserNotFound is returned when an operation targets a missing user record
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidCredentials is returned on password mismatch during login or
// password change. It never discloses which part of the credential failed.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnauthenticated is returned when a bearer credential cannot be resolved
// to a live user account.
var ErrUnauthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned when the actor lacks the role an operation requires
var ErrForbidden = goerrors.New("insufficient role for operation", goerrors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRole).
	WithCode(goerrors.CodeForbidden)

// ErrInvalidAccountState is returned when the account is in the wrong
// lifecycle state for the requested transition.
var ErrInvalidAccountState = goerrors.New("account state does not permit operation", goerrors.CategoryConflict).
	WithTextCode(TextCodeInvalidAccountState).
	WithCode(goerrors.CodeConflict)

// ErrUnknownRole is returned when assigning a role absent from the registry
var ErrUnknownRole = goerrors.New("unknown role", goerrors.CategoryValidation).
	WithTextCode(TextCodeUnknownRole).
	WithCode(goerrors.CodeBadRequest)

// ErrImmutableField is returned when an update touches a field the lifecycle
// owns: id, password hash, role, or the email of a verified account.
var ErrImmutableField = goerrors.New("field is immutable", goerrors.CategoryValidation).
	WithTextCode(TextCodeImmutableField).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordPolicy is returned when a new password fails the strength policy
var ErrPasswordPolicy = goerrors.New("password does not meet policy", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordPolicy).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned when a token is presented after its expiry
var ErrTokenExpired = goerrors.New("token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenPurpose is returned when a well-formed token is presented for a
// purpose other than the one it was issued with.
var ErrTokenPurpose = goerrors.New("token purpose mismatch", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenPurpose).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenSignature is returned when the signature check fails
var ErrTokenSignature = goerrors.New("token signature invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be decoded at all
var ErrTokenMalformed = goerrors.New("token malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString is the error returned for empty required string input
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// withDetails attaches metadata to a copy of a sentinel. The package-level
// values are shared across requests, so they must never be mutated.
func withDetails(sentinel *goerrors.Error, meta map[string]any) *goerrors.Error {
	clone := sentinel.Clone()
	if clone == nil {
		return sentinel
	}
	clone.Source = sentinel
	return clone.WithMetadata(meta)
}

// IsTokenError reports whether err is one of the token validation failures
func IsTokenError(err error) bool {
	return goerrors.Is(err, ErrTokenExpired) ||
		goerrors.Is(err, ErrTokenPurpose) ||
		goerrors.Is(err, ErrTokenSignature) ||
		goerrors.Is(err, ErrTokenMalformed)
}

// IsDuplicateEmail reports whether err signals an email uniqueness conflict
func IsDuplicateEmail(err error) bool {
	return goerrors.Is(err, ErrDuplicateEmail)
}
