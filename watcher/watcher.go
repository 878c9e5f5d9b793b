// Package watcher tears a session down when its token expires, even when no
// further request reaches the backend.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-hms-admin/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultGrace       = 6 * time.Second
	DefaultLandingPath = "/login"
	DefaultMessage     = "Your session has expired. Please log in again."
)

// Notice is the user-visible, time-bounded expiry message
type Notice struct {
	Message   string
	ExpiredAt time.Time
	Grace     time.Duration // teardown happens no later than this after the notice
}

// Notifier presents expiry notices. The returned channel is closed when the
// user acknowledges the notice; a nil channel means no acknowledgement.
// ctx is cancelled when the notice is no longer relevant.
type Notifier interface {
	ShowExpiryNotice(ctx context.Context, notice Notice) <-chan struct{}
}

// TeardownFunc ends the session, normally sessions.Store.Logout
type TeardownFunc func(ctx context.Context) error

type Watcher struct {
	mu      sync.Mutex
	target  time.Time
	timer   *time.Timer
	cancel  context.CancelFunc
	stopped bool

	notifier Notifier
	teardown TeardownFunc
	redirect func(path string)
	landing  string
	message  string
	grace    time.Duration
	nowFunc  func() time.Time
	logger   zerolog.Logger
}

type Option func(*Watcher)

func WithGrace(grace time.Duration) Option {
	return func(w *Watcher) {
		w.grace = grace
	}
}

// WithRedirect sets the navigation to the unauthenticated landing view
func WithRedirect(redirect func(path string)) Option {
	return func(w *Watcher) {
		w.redirect = redirect
	}
}

func WithLandingPath(path string) Option {
	return func(w *Watcher) {
		w.landing = path
	}
}

func WithMessage(message string) Option {
	return func(w *Watcher) {
		w.message = message
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(w *Watcher) {
		w.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

func New(notifier Notifier, teardown TeardownFunc, options ...Option) *Watcher {
	w := &Watcher{
		notifier: notifier,
		teardown: teardown,
		landing:  DefaultLandingPath,
		message:  DefaultMessage,
		grace:    DefaultGrace,
		logger:   log.Logger,
	}
	for _, opt := range options {
		opt(w)
	}
	if w.nowFunc == nil {
		w.nowFunc = time.Now
	}
	if w.grace <= 0 {
		w.grace = DefaultGrace
	}
	return w
}

// Bind keeps the watcher in step with the store's expiry and starts watching
// the current one. Every change notification re-reads the store under the
// watcher lock, so the schedule follows the latest session even when
// concurrent transitions notify out of order.
func (w *Watcher) Bind(store *sessions.Store) (unbind func()) {
	follow := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.watchLocked(store.Snapshot().ExpiresAt)
	}
	unbind = store.Subscribe(func(sessions.Session) { follow() })
	follow()
	return unbind
}

// Watch schedules teardown at expiresAt. A changed value cancels whatever was
// pending, including a notice already on screen. The zero time or an instant
// already past schedules nothing.
func (w *Watcher) Watch(expiresAt time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watchLocked(expiresAt)
}

func (w *Watcher) watchLocked(expiresAt time.Time) {
	if w.stopped || expiresAt.Equal(w.target) {
		return
	}
	w.cancelLocked()
	w.target = expiresAt

	if expiresAt.IsZero() {
		return
	}
	delay := expiresAt.Sub(w.nowFunc())
	if delay <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.timer = time.AfterFunc(delay, func() { w.fire(ctx, expiresAt) })
	w.logger.Debug().Time("expires_at", expiresAt).Dur("in", delay).Msg("session expiry scheduled")
}

// Stop cancels anything pending; the watcher never fires afterwards.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.cancelLocked()
}

func (w *Watcher) cancelLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *Watcher) fire(ctx context.Context, expiredAt time.Time) {
	if ctx.Err() != nil {
		return
	}

	var ack <-chan struct{}
	if w.notifier != nil {
		ack = w.notifier.ShowExpiryNotice(ctx, Notice{Message: w.message, ExpiredAt: expiredAt, Grace: w.grace})
	}

	grace := time.NewTimer(w.grace)
	defer grace.Stop()

	select {
	case <-ack:
	case <-grace.C:
	case <-ctx.Done():
		return
	}
	if ctx.Err() != nil {
		return
	}

	w.logger.Info().Time("expired_at", expiredAt).Msg("session expired, logging out")
	if w.teardown != nil {
		if err := w.teardown(context.Background()); err != nil {
			w.logger.Warn().Err(err).Msg("session teardown reported an error")
		}
	}
	if w.redirect != nil {
		w.redirect(w.landing)
	}
}
