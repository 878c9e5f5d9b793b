package server

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loginLimiter throttles failed logins per username. Only failures spend
// tokens; a successful login forgets the username.
type loginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	nowFunc  func() time.Time
}

func newLoginLimiter(interval time.Duration, burst int, nowFunc func() time.Time) *loginLimiter {
	return &loginLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(interval),
		burst:    burst,
		nowFunc:  nowFunc,
	}
}

func (l *loginLimiter) get(username string) *rate.Limiter {
	key := strings.ToLower(username)
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}

// Blocked reports whether username has no failed attempts left
func (l *loginLimiter) Blocked(username string) bool {
	return l.get(username).TokensAt(l.nowFunc()) < 1
}

func (l *loginLimiter) Failed(username string) {
	l.get(username).AllowN(l.nowFunc(), 1)
}

func (l *loginLimiter) Succeeded(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, strings.ToLower(username))
}
