package config

import (
	"strconv"
	"strings"
	"time"
)

// BackendConfig configures the development mock backend
type BackendConfig interface {
	GetTokenSecret() string
	GetPreviousTokenSecrets() []string
	GetTokenTTL() time.Duration
	GetSeedPassword() string
	GetLoginBurst() int
	GetLoginInterval() time.Duration
	GetRevokedStore() string
	GetRevokedKeyPrefix() string
}

type Backend struct{}

var _ BackendConfig = Backend{}

func (Backend) GetTokenSecret() string {
	return GetEnv("TOKEN_SECRET", "dev-secret-change-me")
}

// GetPreviousTokenSecrets lists retired secrets whose tokens are still accepted
func (Backend) GetPreviousTokenSecrets() []string {
	var secrets []string
	for _, s := range strings.Split(GetEnv("TOKEN_SECRET_PREVIOUS", ""), ",") {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

func (Backend) GetTokenTTL() time.Duration {
	return GetDuration("TOKEN_TTL", time.Hour)
}

// GetSeedPassword is the password given to the seeded accounts; empty means generate one
func (Backend) GetSeedPassword() string {
	return GetEnv("SEED_PASSWORD", "")
}

// GetLoginBurst is how many failed logins a username may make back to back
func (Backend) GetLoginBurst() int {
	burst, err := strconv.Atoi(GetEnv("LOGIN_BURST", "5"))
	if err != nil || burst < 1 {
		return 5
	}
	return burst
}

// GetLoginInterval is how often one further failed login is allowed once the burst is spent
func (Backend) GetLoginInterval() time.Duration {
	return GetDuration("LOGIN_INTERVAL", 30*time.Second)
}

// GetRevokedStore is "memory" or "redis"; redis uses REDIS_ADDR
func (Backend) GetRevokedStore() string {
	return GetEnv("REVOKED_STORE", "memory")
}

func (Backend) GetRevokedKeyPrefix() string {
	return GetEnv("REVOKED_KEY_PREFIX", "hms:revoked:")
}
