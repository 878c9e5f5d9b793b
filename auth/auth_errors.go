package auth

import "errors"

var (
	UsernameRequiredErr = errors.New("username is required")
	PasswordRequiredErr = errors.New("password is required")
	EmailRequiredErr    = errors.New("email is required")
	InvalidEmailErr     = errors.New("invalid email format")
	ServiceClosedErr    = errors.New("session service closed")
)
