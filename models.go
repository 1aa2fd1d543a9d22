package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the lifecycle status of a user account
type UserStatus = string

const (
	// UserStatusPending marks an account awaiting email verification
	UserStatusPending UserStatus = "pending_verification"
	// UserStatusActive marks a verified, usable account
	UserStatusActive UserStatus = "active"
	// UserStatusDisabled marks an account an administrator switched off
	UserStatusDisabled UserStatus = "disabled"
)

// User is the identity record
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email        string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Username     string     `bun:"username,notnull,unique" json:"username,omitempty"`
	FirstName    string     `bun:"first_name" json:"first_name,omitempty"`
	LastName     string     `bun:"last_name" json:"last_name,omitempty"`
	Contact      string     `bun:"contact" json:"contact,omitempty"`
	CompanyName  string     `bun:"company_name" json:"company_name,omitempty"`
	Address      string     `bun:"address" json:"address,omitempty"`
	City         string     `bun:"city" json:"city,omitempty"`
	Country      string     `bun:"country" json:"country,omitempty"`
	PostalCode   string     `bun:"postal_code" json:"postal_code,omitempty"`
	ProfileImage string     `bun:"profile_image" json:"profile_image,omitempty"`
	PasswordHash string     `bun:"password_hash" json:"-"`
	RoleID       *string    `bun:"role_id,nullzero" json:"role_id,omitempty"`
	Status       UserStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt    *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt    *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus backfills the zero value so legacy rows behave as pending
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusPending
	}
}

func (u *User) IsPending() bool {
	u.EnsureStatus()
	return u.Status == UserStatusPending
}

func (u *User) IsActive() bool {
	u.EnsureStatus()
	return u.Status == UserStatusActive
}

func (u *User) IsDisabled() bool {
	u.EnsureStatus()
	return u.Status == UserStatusDisabled
}

// HasRole reports whether the user currently holds the given role
func (u *User) HasRole(roleID string) bool {
	return u.RoleID != nil && *u.RoleID == roleID
}

// Role is immutable reference data seeded before any user exists
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`

	ID          string     `bun:"id,pk" json:"id,omitempty"`
	Name        string     `bun:"name,notnull,unique" json:"name,omitempty"`
	Description string     `bun:"description" json:"description,omitempty"`
	CreatedAt   *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt   *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NormalizeEmail lowercases and trims an email so uniqueness checks are
// case-insensitive everywhere.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UsernameFromEmail derives a username from the local part of an address
func UsernameFromEmail(email string) string {
	email = NormalizeEmail(email)
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
