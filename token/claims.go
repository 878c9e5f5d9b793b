package token

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-hms-admin/users"
)

// secondsThreshold separates expiry claims in seconds from ones already in milliseconds
const secondsThreshold = 1e12

// Claims is the decoded payload of a token. It is untrusted external input, so
// every accessor tolerates missing or mistyped fields.
type Claims map[string]any

// Subject returns the sub claim or "".
func (c Claims) Subject() string {
	sub, err := jwt.MapClaims(c).GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// Roles returns the role identifiers of the roles claim, falling back to authorities.
func (c Claims) Roles() []string {
	if roles := Identifiers(c["roles"]); len(roles) > 0 {
		return roles
	}
	return Identifiers(c["authorities"])
}

// Permissions returns the permission identifiers of the permissions claim.
func (c Claims) Permissions() []string {
	return Identifiers(c["permissions"])
}

// ExpiresAt returns the exp claim as an instant. Values below 10^12 are taken as
// seconds, larger ones as milliseconds. The zero time means no usable claim,
// which includes values beyond the int64 millisecond range.
func (c Claims) ExpiresAt() time.Time {
	v, ok := number(c["exp"])
	if !ok || math.IsNaN(v) || v <= 0 {
		return time.Time{}
	}
	if v < secondsThreshold {
		v *= 1000
	}
	if v >= math.MaxInt64 {
		return time.Time{}
	}
	return time.UnixMilli(int64(math.Round(v)))
}

// User returns the nested user object, nil when absent or not an object.
func (c Claims) User() *users.User {
	m, ok := c["user"].(map[string]any)
	if !ok {
		return nil
	}
	u := &users.User{
		Username:  firstString(m, "username", "userName", "login"),
		Email:     firstString(m, "email"),
		FirstName: firstString(m, "firstName", "first_name"),
		LastName:  firstString(m, "lastName", "last_name"),
		UserID:    firstString(m, "userId", "user_id", "id"),
	}
	if u.IsZero() {
		return nil
	}
	return u
}

// Identifiers flattens a roles or permissions value into identifier strings.
// It accepts a string (comma separated), an array of strings, or an array of
// objects carrying one of the name, authority, role or id fields.
func Identifiers(v any) []string {
	out := make([]string, 0)
	switch val := v.(type) {
	case string:
		for _, s := range strings.Split(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range val {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range val {
			switch it := item.(type) {
			case string:
				if s := strings.TrimSpace(it); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				if s := firstString(it, "name", "authority", "role", "id"); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
