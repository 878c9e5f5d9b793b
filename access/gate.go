// Package access decides which navigation entries and routes the current
// session may see. Every function is pure; callers pass the session's current
// roles and permissions on each evaluation.
package access

import (
	"strings"
	"unicode"
)

const rolePrefix = "ROLE_"

// Entry is one node of the navigation menu
type Entry struct {
	Title       string   `yaml:"title" json:"title"`
	Path        string   `yaml:"path,omitempty" json:"path,omitempty"`
	Icon        string   `yaml:"icon,omitempty" json:"icon,omitempty"`
	Roles       []string `yaml:"roles,omitempty" json:"roles,omitempty"`
	Permissions []string `yaml:"permissions,omitempty" json:"permissions,omitempty"`
	Children    []Entry  `yaml:"children,omitempty" json:"children,omitempty"`
}

// NormalizeRole upper-cases a role, strips a leading ROLE_ namespace and drops
// anything that is not a letter or digit: "role_lab-tech" becomes "LABTECH".
func NormalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	role = strings.TrimPrefix(role, rolePrefix)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, role)
}

// HasRole is true when nothing is required or when any required role is held,
// comparing normalised names.
func HasRole(required, current []string) bool {
	if len(required) == 0 {
		return true
	}
	held := make(map[string]struct{}, len(current))
	for _, r := range current {
		if n := NormalizeRole(r); n != "" {
			held[n] = struct{}{}
		}
	}
	for _, r := range required {
		if _, ok := held[NormalizeRole(r)]; ok {
			return true
		}
	}
	return false
}

// HasPermission is true when nothing is required or when any required
// permission is held verbatim.
func HasPermission(required, current []string) bool {
	if len(required) == 0 {
		return true
	}
	held := make(map[string]struct{}, len(current))
	for _, p := range current {
		held[p] = struct{}{}
	}
	for _, p := range required {
		if _, ok := held[p]; ok {
			return true
		}
	}
	return false
}

// IsVisible requires the entry's own checks to pass and, for an entry with
// children, at least one visible child.
func IsVisible(entry Entry, roles, permissions []string) bool {
	if !HasRole(entry.Roles, roles) || !HasPermission(entry.Permissions, permissions) {
		return false
	}
	if len(entry.Children) == 0 {
		return true
	}
	for _, child := range entry.Children {
		if IsVisible(child, roles, permissions) {
			return true
		}
	}
	return false
}

// Filter returns the visible part of the menu with invisible children pruned.
func Filter(entries []Entry, roles, permissions []string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !IsVisible(e, roles, permissions) {
			continue
		}
		if len(e.Children) > 0 {
			e.Children = Filter(e.Children, roles, permissions)
		}
		out = append(out, e)
	}
	return out
}

// CanAccess guards a route: the path must belong to an entry that passes its
// own checks and those of every ancestor. Paths not in the menu are allowed.
func CanAccess(entries []Entry, path string, roles, permissions []string) bool {
	allowed, found := canAccess(entries, path, roles, permissions)
	return allowed || !found
}

func canAccess(entries []Entry, path string, roles, permissions []string) (allowed, found bool) {
	for _, e := range entries {
		passes := HasRole(e.Roles, roles) && HasPermission(e.Permissions, permissions)
		if e.Path != "" && e.Path == path {
			return passes, true
		}
		if childAllowed, childFound := canAccess(e.Children, path, roles, permissions); childFound {
			return passes && childAllowed, true
		}
	}
	return false, false
}
