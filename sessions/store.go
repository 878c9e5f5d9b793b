package sessions

import (
	"context"
	"strings"
	"sync"
	"time"

	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/internal/utils"
	"github.com/jrsteele09/go-hms-admin/token"
	"github.com/jrsteele09/go-hms-admin/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultLoginFailure = "Login failed"

// Store owns the Session. Its transitions (BeginLogin, LoginSucceeded,
// LoginFailed, Hydrate, Logout) are the only way to change it, and the only
// place where storage and the outbound bearer token are touched.
//
// Concurrent logins are not fenced: the last transition applied wins.
type Store struct {
	mu        sync.RWMutex
	session   Session
	repo      Repo
	tokens    TokenHolder
	listeners map[int]func(Session)
	nextID    int
	logger    zerolog.Logger
	nowFunc   func() time.Time
}

type StoreOption func(*Store)

func WithTokenHolder(holder TokenHolder) StoreOption {
	return func(s *Store) {
		s.tokens = holder
	}
}

func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func NewStore(repo Repo, options ...StoreOption) *Store {
	s := &Store{
		session:   emptySession(),
		repo:      repo,
		listeners: make(map[int]func(Session)),
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.nowFunc == nil {
		s.nowFunc = time.Now
	}
	return s
}

func emptySession() Session {
	return Session{
		Roles:       []string{},
		Permissions: []string{},
		Status:      StatusIdle,
	}
}

// Snapshot returns a copy of the current session
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.clone()
}

// Subscribe registers fn to run after every transition with the new session.
// Listeners run outside the store lock and may call back into the Store.
// Concurrent transitions can reach a listener out of order; listeners that
// act on the latest state should read Snapshot.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// BeginLogin marks a login attempt as in flight
func (s *Store) BeginLogin() {
	s.apply("begin_login", func(cur Session) Session {
		cur.Status = StatusLoading
		cur.Error = ""
		return cur
	})
}

// LoginSucceeded derives the session from a login response and persists it.
// The in-memory transition is applied even when persistence fails; the
// returned error reports the storage failure only.
func (s *Store) LoginSucceeded(ctx context.Context, resp *LoginResponse) error {
	raw := resp.BearerToken()
	claims, err := token.Decode(raw)
	if err != nil {
		// fall back to the response body
		s.logger.Debug().Err(err).Msg("login token carries no readable claims")
	}

	permissions := claims.Permissions()
	if len(permissions) == 0 {
		permissions = resp.permissions()
	}

	next := s.apply("login_succeeded", func(Session) Session {
		return Session{
			User:            loginUser(resp, claims),
			Roles:           utils.Dedupe(claims.Roles(), resp.roles()),
			Permissions:     utils.Dedupe(permissions),
			Token:           raw,
			ExpiresAt:       claims.ExpiresAt(),
			Status:          StatusSucceeded,
			IsAuthenticated: raw != "",
		}
	})

	s.attachToken(next.Token)
	if err := s.repo.Save(ctx, newRecord(next)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist session")
		return errors.Wrap(err, "Store.LoginSucceeded Save")
	}
	return nil
}

func loginUser(resp *LoginResponse, claims token.Claims) *users.User {
	if resp != nil && !resp.User.IsZero() {
		return resp.User.Clone()
	}
	if u := claims.User(); u != nil {
		return u
	}
	if sub := claims.Subject(); sub != "" {
		return &users.User{Username: sub}
	}
	return nil
}

// LoginFailed records a rejected or failed login. The rest of the session is
// left as it was but it no longer counts as authenticated.
func (s *Store) LoginFailed(message string) {
	if strings.TrimSpace(message) == "" {
		message = defaultLoginFailure
	}
	s.apply("login_failed", func(cur Session) Session {
		cur.Status = StatusFailed
		cur.Error = message
		cur.IsAuthenticated = false
		return cur
	})
}

// Hydrate restores the session from storage at startup.
// It returns errors.ErrNoStoredSession when nothing is stored and
// errors.ErrSessionExpired when the stored expiry has passed; in both cases,
// and on any read failure, the session is left logged out.
func (s *Store) Hydrate(ctx context.Context) error {
	rec, err := s.repo.Load(ctx)
	if err != nil {
		s.apply("hydrate_empty", func(Session) Session { return emptySession() })
		if hmserrors.Is(err, hmserrors.ErrNoStoredSession) {
			return err
		}
		if hmserrors.Is(err, ErrCorruptRecord) {
			if delErr := s.repo.Delete(ctx); delErr != nil {
				s.logger.Warn().Err(delErr).Msg("failed to clear corrupt session")
			}
		}
		s.logger.Warn().Err(err).Msg("failed to load stored session")
		return errors.Wrap(err, "Store.Hydrate Load")
	}

	if exp := rec.Expiry(); !exp.IsZero() && !exp.After(s.nowFunc()) {
		s.apply("hydrate_expired", func(Session) Session { return emptySession() })
		s.tokensClear()
		if err := s.repo.Delete(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to clear expired session")
		}
		return hmserrors.ErrSessionExpired
	}

	next := s.apply("hydrate", func(Session) Session {
		restored := Session{
			User:        rec.User.Clone(),
			Roles:       utils.Dedupe(rec.Roles),
			Permissions: utils.Dedupe(rec.Permissions),
			Token:       utils.Value(rec.Token),
			ExpiresAt:   rec.Expiry(),
			Status:      StatusIdle,
		}
		restored.IsAuthenticated = restored.Token != ""
		if restored.IsAuthenticated {
			restored.Status = StatusSucceeded
		}
		return restored
	})
	s.attachToken(next.Token)
	return nil
}

// Logout clears the session, its stored record and the outbound token.
// The in-memory session is always cleared; the error reports a storage failure.
func (s *Store) Logout(ctx context.Context) error {
	s.apply("logout", func(Session) Session { return emptySession() })
	s.tokensClear()
	if err := s.repo.Delete(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to remove stored session")
		return errors.Wrap(err, "Store.Logout Delete")
	}
	return nil
}

func (s *Store) apply(transition string, fn func(Session) Session) Session {
	s.mu.Lock()
	s.session = fn(s.session.clone())
	if s.session.Token == "" {
		s.session.IsAuthenticated = false
	}
	next := s.session.clone()
	listeners := make([]func(Session), 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	s.logger.Debug().
		Str("transition", transition).
		Str("status", string(next.Status)).
		Bool("authenticated", next.IsAuthenticated).
		Msg("session transition")

	for _, l := range listeners {
		l(next.clone())
	}
	return next
}

func (s *Store) attachToken(raw string) {
	if s.tokens == nil {
		return
	}
	if raw == "" {
		s.tokens.ClearBearerToken()
		return
	}
	s.tokens.SetBearerToken(raw)
}

func (s *Store) tokensClear() {
	if s.tokens != nil {
		s.tokens.ClearBearerToken()
	}
}
