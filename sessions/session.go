package sessions

import (
	"time"

	"github.com/jrsteele09/go-hms-admin/internal/utils"
	"github.com/jrsteele09/go-hms-admin/token"
	"github.com/jrsteele09/go-hms-admin/users"
)

// Status tracks the last login or hydration attempt
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Session is the process-wide authenticated state. It is only changed through
// the Store transitions; values handed out by the Store are copies.
type Session struct {
	User            *users.User
	Roles           []string
	Permissions     []string
	Token           string
	ExpiresAt       time.Time // zero when the token carries no expiry
	Status          Status
	Error           string // last login failure message
	IsAuthenticated bool
}

func (s Session) clone() Session {
	s.User = s.User.Clone()
	s.Roles = utils.Clone(s.Roles)
	s.Permissions = utils.Clone(s.Permissions)
	return s
}

// Expired reports whether the session carries an expiry at or before now
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now)
}

// Record is the persisted layout of a session:
// {token: string|null, user: object|null, roles: string[], permissions: string[], exp: number|null}
// with exp in epoch milliseconds.
type Record struct {
	Token       *string     `json:"token"`
	User        *users.User `json:"user"`
	Roles       []string    `json:"roles"`
	Permissions []string    `json:"permissions"`
	Exp         *int64      `json:"exp"`
}

func newRecord(s Session) *Record {
	rec := &Record{
		User:        s.User.Clone(),
		Roles:       utils.Clone(s.Roles),
		Permissions: utils.Clone(s.Permissions),
		Exp:         utils.MillisPtr(s.ExpiresAt),
	}
	if s.Token != "" {
		rec.Token = utils.Ptr(s.Token)
	}
	return rec
}

// Expiry returns the record's exp as an instant, zero when absent
func (r *Record) Expiry() time.Time {
	return utils.FromMillis(r.Exp)
}

// LoginResponse is the body returned by the backend login endpoint. Roles and
// permissions may arrive as strings or as objects; they are normalised with
// token.Identifiers.
type LoginResponse struct {
	Token       string      `json:"token,omitempty"`
	AccessToken string      `json:"accessToken,omitempty"`
	User        *users.User `json:"user,omitempty"`
	Roles       any         `json:"roles,omitempty"`
	Permissions any         `json:"permissions,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// BearerToken returns the token field, falling back to accessToken
func (r *LoginResponse) BearerToken() string {
	if r == nil {
		return ""
	}
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

func (r *LoginResponse) roles() []string {
	if r == nil {
		return nil
	}
	return token.Identifiers(r.Roles)
}

func (r *LoginResponse) permissions() []string {
	if r == nil {
		return nil
	}
	return token.Identifiers(r.Permissions)
}
