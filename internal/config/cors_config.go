package config

import (
	"slices"
	"strings"
)

// requestIDHeader matches api.HeaderRequestID
const requestIDHeader = "X-Request-ID"

type Cors struct{}

var _ CorsConfig = Cors{}

// AllowedOrigins is the set of browser origins the backend answers with CORS headers
type AllowedOrigins map[string]bool

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	return a[origin]
}

func (a AllowedOrigins) String() string {
	list := make([]string, 0, len(a))
	for origin := range a {
		list = append(list, origin)
	}
	slices.Sort(list)
	return strings.Join(list, ", ")
}

// GetAllowedOrigins reads a comma separated CORS_ORIGINS list
func (Cors) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range strings.Split(GetEnv("CORS_ORIGINS", "http://localhost:3000"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = true
		}
	}
	return origins
}

func (Cors) GetAllowedMethods() string {
	return strings.Join([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}, ", ")
}

func (Cors) GetAllowedHeaders() string {
	return "Content-Type, Authorization, " + requestIDHeader
}
