package token

import (
	"sync"
	"time"
)

// RevokedTokenCache remembers logged out tokens by jti until they expire
type RevokedTokenCache interface {
	Add(jti string, exp time.Time) error
	IsRevoked(jti string) bool
	// Cleanup forgets tokens that have expired since they were revoked
	Cleanup()
}

// pruneEvery is how many additions pass between automatic sweeps
const pruneEvery = 256

type memoryRevocations struct {
	mu      sync.RWMutex
	expiry  map[string]int64
	added   int
	nowFunc func() time.Time
}

var _ RevokedTokenCache = (*memoryRevocations)(nil)

// NewInMemoryRevokedTokenCache keeps revocations in process. A nil nowFunc means time.Now.
func NewInMemoryRevokedTokenCache(nowFunc func() time.Time) RevokedTokenCache {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &memoryRevocations{expiry: map[string]int64{}, nowFunc: nowFunc}
}

func (m *memoryRevocations) Add(jti string, exp time.Time) error {
	if jti == "" {
		return nil
	}
	m.mu.Lock()
	m.expiry[jti] = exp.UnixNano()
	m.added++
	sweep := m.added%pruneEvery == 0
	m.mu.Unlock()

	if sweep {
		m.Cleanup()
	}
	return nil
}

func (m *memoryRevocations) IsRevoked(jti string) bool {
	m.mu.RLock()
	_, ok := m.expiry[jti]
	m.mu.RUnlock()
	return ok
}

func (m *memoryRevocations) Cleanup() {
	cutoff := m.nowFunc().UnixNano()
	m.mu.Lock()
	defer m.mu.Unlock()
	for jti, exp := range m.expiry {
		if exp < cutoff {
			delete(m.expiry, jti)
		}
	}
}
