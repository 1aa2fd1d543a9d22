package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	identity "github.com/zeeshanravian1/go-user-identity"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"alice@example.com", false},
		{"a.b-c_d@sub.example.org", false},
		{"", true},
		{"a@b", true},
		{"not-an-email", true},
		{"@example.com", true},
	}

	for _, tt := range tests {
		err := identity.ValidateEmail(tt.email)
		if tt.wantErr {
			assert.Error(t, err, "email %q", tt.email)
		} else {
			assert.NoError(t, err, "email %q", tt.email)
		}
	}
}

func TestUserPatchValidate(t *testing.T) {
	tests := []struct {
		name    string
		patch   identity.UserPatch
		wantErr bool
	}{
		{"empty patch", identity.UserPatch{}, false},
		{"valid profile", identity.UserPatch{
			FirstName: strPtr("Alice"),
			LastName:  strPtr("Smith"),
			City:      strPtr("Austin"),
		}, false},
		{"digits in first name", identity.UserPatch{FirstName: strPtr("Alice99")}, true},
		{"space in username", identity.UserPatch{Username: strPtr("alice smith")}, true},
		{"username with allowed punctuation", identity.UserPatch{Username: strPtr("alice.smith-1_x")}, false},
		{"short email", identity.UserPatch{Email: strPtr("a@b")}, true},
		{"valid email", identity.UserPatch{Email: strPtr("alice@example.com")}, false},
		{"valid contact", identity.UserPatch{Contact: strPtr("+14155552671")}, false},
		{"invalid contact", identity.UserPatch{Contact: strPtr("12345")}, true},
		{"postal code too long", identity.UserPatch{PostalCode: strPtr("1234567")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", identity.NormalizeEmail("  Alice@Example.COM "))
	assert.Equal(t, "", identity.NormalizeEmail("   "))
}

func TestUsernameFromEmail(t *testing.T) {
	assert.Equal(t, "alice", identity.UsernameFromEmail("Alice@Example.com"))
	assert.Equal(t, "a.b-c", identity.UsernameFromEmail("a.b-c@example.com"))
	assert.Equal(t, "plain", identity.UsernameFromEmail("plain"))
}

func TestUserStatusHelpers(t *testing.T) {
	user := &identity.User{}
	assert.True(t, user.IsPending(), "zero status behaves as pending")
	assert.Equal(t, identity.UserStatusPending, user.Status)

	user.Status = identity.UserStatusActive
	assert.True(t, user.IsActive())
	assert.False(t, user.IsDisabled())

	role := identity.RoleUser
	user.RoleID = &role
	assert.True(t, user.HasRole(identity.RoleUser))
	assert.False(t, user.HasRole(identity.RoleAdmin))

	user.RoleID = nil
	assert.False(t, user.HasRole(identity.RoleUser))
}
