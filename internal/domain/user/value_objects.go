package user

import (
	"regexp"
	"strings"

	"groupbuy/internal/pkg/errs"
)

var (
	ErrInvalidEmail         = errs.Define(errs.KindValidation, "invalid email format")
	ErrInvalidRole          = errs.Define(errs.KindValidation, "invalid role")
	ErrPasswordTooWeak      = errs.Define(errs.KindValidation, "password must be at least 8 characters long")
	ErrMerchantWithoutStore = errs.Define(errs.KindValidation, "merchant accounts must belong to a store")
	ErrNotFound             = errs.Define(errs.KindNotFound, "user not found")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type Email struct {
	value string
}

func NewEmail(s string) (Email, error) {
	s = strings.TrimSpace(s)
	if !emailRegex.MatchString(s) {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: s}, nil
}

// ReconstructEmail wraps an address that was validated before it was stored.
func ReconstructEmail(s string) Email {
	return Email{value: s}
}

func (e Email) Value() string {
	return e.value
}

type Password struct {
	value string
}

func NewPassword(s string) (Password, error) {
	if len(s) < 8 {
		return Password{}, ErrPasswordTooWeak
	}
	return Password{value: s}, nil
}

func (p Password) Value() string {
	return p.value
}
