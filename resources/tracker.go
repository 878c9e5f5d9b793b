package resources

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-hms-admin/sessions"
)

// State is what a screen renders for one request
type State[T any] struct {
	Status sessions.Status
	Data   T
	Error  string
}

// Tracker wraps calls in the idle, loading, succeeded and failed states.
// When calls overlap only the most recently started one updates the state.
type Tracker[T any] struct {
	mu    sync.RWMutex
	state State[T]
	gen   uint64
}

func NewTracker[T any]() *Tracker[T] {
	return &Tracker[T]{state: State[T]{Status: sessions.StatusIdle}}
}

func (t *Tracker[T]) State() State[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Run calls fn and records its outcome. Data from a previous success is kept
// while loading and after a failure.
func (t *Tracker[T]) Run(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.state.Status = sessions.StatusLoading
	t.state.Error = ""
	t.mu.Unlock()

	data, err := fn(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return data, err
	}
	if err != nil {
		t.state.Status = sessions.StatusFailed
		t.state.Error = err.Error()
		return data, err
	}
	t.state = State[T]{Status: sessions.StatusSucceeded, Data: data}
	return data, nil
}

// Reset returns the tracker to idle and drops any in-flight result
func (t *Tracker[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.state = State[T]{Status: sessions.StatusIdle}
}
