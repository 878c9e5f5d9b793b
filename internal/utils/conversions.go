package utils

import "strings"

// Dedupe returns the non-empty values in first-seen order without repeats.
func Dedupe(values ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, list := range values {
		for _, v := range list {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Clone copies a string slice, mapping nil to an empty slice.
func Clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
