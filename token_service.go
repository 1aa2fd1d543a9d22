package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenPurpose scopes a token to exactly one redemption flow
type TokenPurpose = string

const (
	// PurposeVerifyEmail activates a pending account
	PurposeVerifyEmail TokenPurpose = "verify_email"
	// PurposeResetPassword authorizes a password rotation
	PurposeResetPassword TokenPurpose = "reset_password"
	// PurposeSession is the bearer credential format consumed by the
	// access controller. Issuance happens at login.
	PurposeSession TokenPurpose = "session"
)

// TokenClaims is the signed payload: subject, purpose, and the registered
// issued-at/expiry pair. No server-side storage backs these tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
	Purpose TokenPurpose `json:"prp,omitempty"`
}

// TokenServiceImpl implements TokenService on HMAC-signed JWTs
type TokenServiceImpl struct {
	signingKey []byte
	issuer     string
	logger     Logger
	now        func() time.Time
}

// TokenServiceOption customizes token service construction
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenClock injects a custom clock (useful for tests)
func WithTokenClock(clock func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if clock != nil {
			ts.now = clock
		}
	}
}

// WithTokenLogger overrides the default logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a TokenService signing with the given key
func NewTokenService(signingKey []byte, issuer string, opts ...TokenServiceOption) *TokenServiceImpl {
	ts := &TokenServiceImpl{
		signingKey: signingKey,
		issuer:     issuer,
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// Issue signs a token for the subject scoped to purpose. The TTL is always
// caller-supplied: the service holds no per-purpose defaults, so two
// purposes can never silently share one.
func (ts *TokenServiceImpl) Issue(subject string, purpose TokenPurpose, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrNoEmptyString
	}
	if purpose == "" {
		return "", goerrors.New("token purpose is required", goerrors.CategoryBadInput)
	}
	if ttl <= 0 {
		return "", goerrors.New("token TTL must be positive", goerrors.CategoryBadInput)
	}

	now := ts.now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose: purpose,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}

	return signed, nil
}

// Validate parses a token string, checks the signature and expiry, and
// verifies the encoded purpose matches expected. It returns the subject.
func (ts *TokenServiceImpl) Validate(tokenString string, expected TokenPurpose) (string, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, ErrTokenSignature
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		switch {
		case goerrors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case goerrors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrTokenSignature
		default:
			return "", goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
				WithTextCode(ErrTokenMalformed.TextCode).
				WithCode(goerrors.CodeUnauthorized)
		}
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token validate could not decode claims")
		return "", ErrTokenMalformed
	}

	if claims.Purpose != expected {
		return "", withDetails(ErrTokenPurpose, map[string]any{
			"expected": expected,
			"actual":   claims.Purpose,
		})
	}

	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}

	return claims.Subject, nil
}
