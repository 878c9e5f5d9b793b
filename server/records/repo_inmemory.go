package records

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
)

var _ Repo = (*InMemoryRecordRepo)(nil)

type collectionRecords struct {
	order []string
	byID  map[string]json.RawMessage
}

// InMemoryRecordRepo is an in-memory implementation of Repo
type InMemoryRecordRepo struct {
	mu          sync.RWMutex
	collections map[string]*collectionRecords // collection -> records
}

func NewInMemoryRecordRepo() *InMemoryRecordRepo {
	return &InMemoryRecordRepo{
		collections: make(map[string]*collectionRecords),
	}
}

func (r *InMemoryRecordRepo) List(collection string) ([]json.RawMessage, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []json.RawMessage{}
	c, ok := r.collections[collection]
	if !ok {
		return out, nil
	}
	for _, id := range c.order {
		out = append(out, slices.Clone(c.byID[id]))
	}
	return out, nil
}

func (r *InMemoryRecordRepo) Get(collection, id string) (json.RawMessage, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.collections[collection]
	if !ok {
		return nil, hmserrors.Wrapf(hmserrors.ErrNotFound, "%s/%s", collection, id)
	}
	record, ok := c.byID[id]
	if !ok {
		return nil, hmserrors.Wrapf(hmserrors.ErrNotFound, "%s/%s", collection, id)
	}
	return slices.Clone(record), nil
}

// Upsert creates or replaces a record. Replacing keeps its position in List.
func (r *InMemoryRecordRepo) Upsert(collection, id string, record json.RawMessage) error {
	if collection == "" {
		return fmt.Errorf("collection is required")
	}
	if id == "" {
		return fmt.Errorf("id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.collections[collection]
	if !ok {
		c = &collectionRecords{byID: make(map[string]json.RawMessage)}
		r.collections[collection] = c
	}
	if _, exists := c.byID[id]; !exists {
		c.order = append(c.order, id)
	}
	c.byID[id] = slices.Clone(record)
	return nil
}

func (r *InMemoryRecordRepo) Delete(collection, id string) error {
	if collection == "" {
		return fmt.Errorf("collection is required")
	}
	if id == "" {
		return fmt.Errorf("id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.collections[collection]
	if !ok {
		return hmserrors.Wrapf(hmserrors.ErrNotFound, "%s/%s", collection, id)
	}
	if _, exists := c.byID[id]; !exists {
		return hmserrors.Wrapf(hmserrors.ErrNotFound, "%s/%s", collection, id)
	}
	delete(c.byID, id)
	c.order = slices.DeleteFunc(c.order, func(v string) bool { return v == id })

	// Clean up empty collection
	if len(c.byID) == 0 {
		delete(r.collections, collection)
	}
	return nil
}
