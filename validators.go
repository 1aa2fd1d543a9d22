package identity

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	namesRe    = regexp.MustCompile(`^[a-zA-Z]*$`)
)

// DefaultPhoneRegion is the fallback region for contact numbers without an
// international prefix
var DefaultPhoneRegion = "US"

// ValidateEmail checks a registration or lookup email address
func ValidateEmail(email string) error {
	err := validation.Validate(email,
		validation.Required,
		validation.Length(6, 100),
		is.Email,
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid email address").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// UserPatch carries the mutable profile fields for Update. Nil means leave
// the field alone. Identity fields (id, password hash, role) are not
// representable here: role changes go through AccessController.AssignRole,
// credentials through the password operations.
type UserPatch struct {
	Email        *string `json:"email,omitempty"`
	Username     *string `json:"username,omitempty"`
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Contact      *string `json:"contact,omitempty"`
	CompanyName  *string `json:"company_name,omitempty"`
	Address      *string `json:"address,omitempty"`
	City         *string `json:"city,omitempty"`
	Country      *string `json:"country,omitempty"`
	PostalCode   *string `json:"postal_code,omitempty"`
	ProfileImage *string `json:"profile_image,omitempty"`
}

// Validate enforces the profile field formats before any row is touched.
func (p UserPatch) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Length(6, 100), is.Email),
		validation.Field(&p.Username, validation.Length(1, 30), validation.Match(usernameRe)),
		validation.Field(&p.FirstName, validation.Length(0, 30), validation.Match(namesRe)),
		validation.Field(&p.LastName, validation.Length(0, 30), validation.Match(namesRe)),
		validation.Field(&p.Contact, validation.By(validContactNumber)),
		validation.Field(&p.CompanyName, validation.Length(0, 30)),
		validation.Field(&p.Address, validation.Length(0, 100)),
		validation.Field(&p.City, validation.Length(0, 30)),
		validation.Field(&p.Country, validation.Length(0, 30)),
		validation.Field(&p.PostalCode, validation.Length(0, 6)),
		validation.Field(&p.ProfileImage, validation.Length(0, 100)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid user patch").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// apply copies the simple profile fields onto the user. Email and username
// are handled by the caller because they need uniqueness and mutability
// checks first.
func (p UserPatch) apply(user *User) {
	if p.FirstName != nil {
		user.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		user.LastName = *p.LastName
	}
	if p.Contact != nil {
		user.Contact = *p.Contact
	}
	if p.CompanyName != nil {
		user.CompanyName = *p.CompanyName
	}
	if p.Address != nil {
		user.Address = *p.Address
	}
	if p.City != nil {
		user.City = *p.City
	}
	if p.Country != nil {
		user.Country = *p.Country
	}
	if p.PostalCode != nil {
		user.PostalCode = *p.PostalCode
	}
	if p.ProfileImage != nil {
		user.ProfileImage = *p.ProfileImage
	}
}

// validContactNumber receives the raw field value: a *string for pointer
// fields, so the pointer has to be unwrapped before parsing.
func validContactNumber(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	default:
		return nil
	}

	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, DefaultPhoneRegion)
	if err != nil {
		return err
	}

	if !phonenumbers.IsValidNumber(num) {
		return goerrors.New("contact number should be in proper format", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	return nil
}
