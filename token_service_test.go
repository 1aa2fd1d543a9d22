package identity_test

import (
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/zeeshanravian1/go-user-identity"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func TestTokenServiceIssueAndValidate(t *testing.T) {
	ts := identity.NewTokenService(testSigningKey, "identity-test")

	token, err := ts.Issue("alice@example.com", identity.PurposeVerifyEmail, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := ts.Validate(token, identity.PurposeVerifyEmail)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", subject)
}

func TestTokenServiceRejectsBadIssueInput(t *testing.T) {
	ts := identity.NewTokenService(testSigningKey, "identity-test")

	_, err := ts.Issue("", identity.PurposeVerifyEmail, time.Hour)
	assert.Error(t, err)

	_, err = ts.Issue("alice@example.com", "", time.Hour)
	assert.Error(t, err)

	_, err = ts.Issue("alice@example.com", identity.PurposeVerifyEmail, 0)
	assert.Error(t, err)
}

func TestTokenServiceRejectsPurposeMismatch(t *testing.T) {
	ts := identity.NewTokenService(testSigningKey, "identity-test")

	cases := []struct {
		issued   identity.TokenPurpose
		expected identity.TokenPurpose
	}{
		{identity.PurposeVerifyEmail, identity.PurposeResetPassword},
		{identity.PurposeVerifyEmail, identity.PurposeSession},
		{identity.PurposeResetPassword, identity.PurposeVerifyEmail},
		{identity.PurposeResetPassword, identity.PurposeSession},
		{identity.PurposeSession, identity.PurposeVerifyEmail},
		{identity.PurposeSession, identity.PurposeResetPassword},
	}

	for _, tc := range cases {
		token, err := ts.Issue("alice@example.com", tc.issued, time.Hour)
		require.NoError(t, err)

		_, err = ts.Validate(token, tc.expected)
		assert.ErrorIs(t, err, identity.ErrTokenPurpose, "issued %s validated as %s", tc.issued, tc.expected)
		assert.True(t, identity.IsTokenError(err))
	}
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ts := identity.NewTokenService(testSigningKey, "identity-test", identity.WithTokenClock(func() time.Time {
		return issuedAt
	}))

	token, err := ts.Issue("alice@example.com", identity.PurposeResetPassword, 30*time.Minute)
	require.NoError(t, err)

	// still valid just before expiry
	early := identity.NewTokenService(testSigningKey, "identity-test", identity.WithTokenClock(func() time.Time {
		return issuedAt.Add(29 * time.Minute)
	}))
	_, err = early.Validate(token, identity.PurposeResetPassword)
	assert.NoError(t, err)

	late := identity.NewTokenService(testSigningKey, "identity-test", identity.WithTokenClock(func() time.Time {
		return issuedAt.Add(31 * time.Minute)
	}))
	_, err = late.Validate(token, identity.PurposeResetPassword)
	assert.ErrorIs(t, err, identity.ErrTokenExpired)
	assert.True(t, identity.IsTokenError(err))
}

func TestTokenServiceRejectsWrongSigningKey(t *testing.T) {
	ts := identity.NewTokenService(testSigningKey, "identity-test")
	other := identity.NewTokenService([]byte("ffffffffffffffffffffffffffffffff"), "identity-test")

	token, err := ts.Issue("alice@example.com", identity.PurposeSession, time.Hour)
	require.NoError(t, err)

	_, err = other.Validate(token, identity.PurposeSession)
	assert.ErrorIs(t, err, identity.ErrTokenSignature)
}

func TestTokenServiceRejectsTamperedToken(t *testing.T) {
	ts := identity.NewTokenService(testSigningKey, "identity-test")

	token, err := ts.Issue("alice@example.com", identity.PurposeSession, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// graft the signature onto a different payload
	forged, err := ts.Issue("mallory@example.com", identity.PurposeSession, time.Hour)
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")
	tampered := strings.Join([]string{parts[0], forgedParts[1], parts[2]}, ".")

	_, err = ts.Validate(tampered, identity.PurposeSession)
	assert.Error(t, err)
	assert.True(t, identity.IsTokenError(err))
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	ts := identity.NewTokenService(testSigningKey, "identity-test")

	_, err := ts.Validate("not-a-token", identity.PurposeSession)
	require.Error(t, err)

	var rich *goerrors.Error
	require.ErrorAs(t, err, &rich)
	assert.Equal(t, identity.TextCodeTokenMalformed, rich.TextCode)
}

func TestTokenServiceRejectsWrongIssuer(t *testing.T) {
	ts := identity.NewTokenService(testSigningKey, "identity-test")
	other := identity.NewTokenService(testSigningKey, "someone-else")

	token, err := other.Issue("alice@example.com", identity.PurposeSession, time.Hour)
	require.NoError(t, err)

	_, err = ts.Validate(token, identity.PurposeSession)
	assert.Error(t, err)
}
