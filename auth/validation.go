package auth

import (
	"fmt"
	"strings"

	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
)

// Validator checks user input before it reaches the backend
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCredentials requires both fields. Passwords are not trimmed.
func (v *Validator) ValidateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return invalid(UsernameRequiredErr)
	}
	if password == "" {
		return invalid(PasswordRequiredErr)
	}
	return nil
}

// ValidateEmail applies a basic shape check: one @, a non-empty local part
// and a dotted domain
func (v *Validator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid(EmailRequiredErr)
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return invalid(InvalidEmailErr)
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return invalid(InvalidEmailErr)
	}
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return invalid(InvalidEmailErr)
	}
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", hmserrors.ErrValidation, err)
}
