package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"time"
)

// SessionStoreType selects where the persisted session record lives
type SessionStoreType string

const (
	SessionStoreFile   SessionStoreType = "file"
	SessionStoreRedis  SessionStoreType = "redis"
	SessionStoreMemory SessionStoreType = "memory"
)

type SessionConfig interface {
	GetSessionStore() SessionStoreType
	GetSessionFile() string
	GetSessionKey() *[32]byte
	GetRedisAddr() string
	GetRedisKey() string
	GetExpiryGrace() time.Duration
	GetLandingPath() string
	GetHTTPTimeout() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionStore() SessionStoreType {
	switch s := SessionStoreType(GetEnv("SESSION_STORE", string(SessionStoreFile))); s {
	case SessionStoreFile, SessionStoreRedis, SessionStoreMemory:
		return s
	default:
		return SessionStoreFile
	}
}

func (Session) GetSessionFile() string {
	if path := os.Getenv("SESSION_FILE"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "hms-admin", "session.json")
}

// GetSessionKey returns the sealing key for the session file, nil when unset or not 32 hex-encoded bytes
func (Session) GetSessionKey() *[32]byte {
	raw, err := hex.DecodeString(os.Getenv("SESSION_KEY"))
	if err != nil || len(raw) != 32 {
		return nil
	}
	var key [32]byte
	copy(key[:], raw)
	return &key
}

func (Session) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Session) GetRedisKey() string {
	return GetEnv("REDIS_KEY", "hms:session")
}

func (Session) GetExpiryGrace() time.Duration {
	return GetDuration("EXPIRY_GRACE", 6*time.Second)
}

func (Session) GetLandingPath() string {
	return GetEnv("LANDING_PATH", "/login")
}

func (Session) GetHTTPTimeout() time.Duration {
	return GetDuration("HTTP_TIMEOUT", 15*time.Second)
}
