package users

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the identity block carried by a session
type User struct {
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

func (u *User) IsZero() bool {
	return u == nil || *u == User{}
}

// DisplayName prefers the full name, then the username, then the email
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Clone returns a copy so callers cannot mutate session state through the pointer
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Account is a backend-side user record with credentials and grants.
type Account struct {
	User
	PasswordHash string    `json:"-"`                     // Hashed version of the user's password - never serialize
	Roles        []string  `json:"roles,omitempty"`       // e.g. ROLE_ADMIN, ROLE_DOCTOR
	Permissions  []string  `json:"permissions,omitempty"` // e.g. beds:write
	Blocked      bool      `json:"blocked,omitempty"`     // Blocked, has the user been blocked from logging in
	LastLogin    time.Time `json:"lastLogin,omitempty"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
