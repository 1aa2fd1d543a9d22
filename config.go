package identity

import (
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Default page bounds applied when the config leaves them zero
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// DefaultBcryptCost matches the cost used across our services
const DefaultBcryptCost = 14

// PasswordPolicy is the configuration-driven strength policy enforced on
// every password rotation. The zero value accepts anything, so callers are
// expected to use DefaultPasswordPolicy or set explicit knobs.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSymbol    bool
}

// DefaultPasswordPolicy mirrors the policy enforced at the API boundary:
// at least 8 characters with one uppercase, one lowercase, one digit, and
// one special character.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
		RequireSymbol:    true,
	}
}

// Validate checks a plaintext candidate against the policy
func (p PasswordPolicy) Validate(plaintext string) error {
	if plaintext == "" {
		return withDetails(ErrPasswordPolicy, map[string]any{"reason": "empty password"})
	}

	if len(plaintext) < p.MinLength {
		return withDetails(ErrPasswordPolicy, map[string]any{
			"reason":     "too short",
			"min_length": p.MinLength,
		})
	}

	var upper, lower, digit, symbol bool
	for _, r := range plaintext {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	switch {
	case p.RequireUppercase && !upper:
		return withDetails(ErrPasswordPolicy, map[string]any{"reason": "missing uppercase character"})
	case p.RequireLowercase && !lower:
		return withDetails(ErrPasswordPolicy, map[string]any{"reason": "missing lowercase character"})
	case p.RequireDigit && !digit:
		return withDetails(ErrPasswordPolicy, map[string]any{"reason": "missing digit"})
	case p.RequireSymbol && !symbol:
		return withDetails(ErrPasswordPolicy, map[string]any{"reason": "missing special character"})
	}

	return nil
}

// Config holds the process-wide parameters every component receives at
// construction time. There is no ambient global state: pass the same Config
// to NewTokenService, NewAccounts, and NewAccessController.
type Config struct {
	// SigningKey is the shared HMAC secret for all token purposes
	SigningKey string
	// Issuer is stamped into token claims when non-empty
	Issuer string

	// Per-purpose TTLs. Each call site supplies its TTL explicitly; these
	// are the values the lifecycle passes through, not implicit defaults
	// inside the token service.
	VerifyEmailTTL   time.Duration
	ResetPasswordTTL time.Duration
	SessionTTL       time.Duration

	BcryptCost int
	Password   PasswordPolicy

	// PrivilegedRole gates role assignment and full listing
	PrivilegedRole string

	// AllowPendingRoleAssignment permits assigning a role to an account that
	// has not yet verified its email.
	AllowPendingRoleAssignment bool

	PageSize    int
	PageSizeMax int
}

// Validate reports configuration errors before any component is built
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(32, 0)),
		validation.Field(&c.VerifyEmailTTL, validation.Required),
		validation.Field(&c.ResetPasswordTTL, validation.Required),
		validation.Field(&c.SessionTTL, validation.Required),
		validation.Field(&c.PrivilegedRole, validation.Required),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid identity configuration").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

func (c Config) bcryptCost() int {
	if c.BcryptCost > 0 {
		return c.BcryptCost
	}
	return DefaultBcryptCost
}

func (c Config) pageSize(requested int) int {
	max := c.PageSizeMax
	if max <= 0 {
		max = MaxPageSize
	}
	if requested <= 0 {
		if c.PageSize > 0 {
			return c.PageSize
		}
		return DefaultPageSize
	}
	if requested > max {
		return max
	}
	return requested
}
