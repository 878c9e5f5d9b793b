package fakesessionrepo

import (
	"context"
	"sync"

	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo keeps the encoded record in memory
type FakeSessionRepo struct {
	data    []byte
	saves   int
	deletes int
	lock    sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

func (sr *FakeSessionRepo) Load(_ context.Context) (*sessions.Record, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	if sr.data == nil {
		return nil, hmserrors.ErrNoStoredSession
	}
	return sessions.DecodeRecord(sr.data)
}

func (sr *FakeSessionRepo) Save(_ context.Context, record *sessions.Record) error {
	data, err := sessions.EncodeRecord(record)
	if err != nil {
		return err
	}
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.data = data
	sr.saves++
	return nil
}

func (sr *FakeSessionRepo) Delete(_ context.Context) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.data = nil
	sr.deletes++
	return nil
}

// SetRaw stores bytes as-is, for seeding corrupt or hand-written records
func (sr *FakeSessionRepo) SetRaw(data []byte) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.data = data
}

// Raw returns the stored bytes, nil when nothing is stored
func (sr *FakeSessionRepo) Raw() []byte {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return sr.data
}

func (sr *FakeSessionRepo) Saves() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return sr.saves
}

func (sr *FakeSessionRepo) Deletes() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return sr.deletes
}
