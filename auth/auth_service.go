// Package auth ties the API client, the session store and the expiry watcher
// together into the session service the admin front end talks to.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-hms-admin/access"
	"github.com/jrsteele09/go-hms-admin/apiclient"
	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/sessions"
	"github.com/jrsteele09/go-hms-admin/watcher"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const missingTokenMessage = "Login response did not include a token"

// Service owns one session: its store, the client carrying its token and the
// watcher that ends it on expiry.
type Service struct {
	client     *apiclient.Client
	store      *sessions.Store
	watcher    *watcher.Watcher
	unbind     func()
	validator  *Validator
	navigation []access.Entry

	watcherOptions []watcher.Option
	logger         zerolog.Logger
	nowTime        func() time.Time

	mu     sync.Mutex
	closed bool
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNavigation replaces the default navigation tree used by Menu and CanAccess
func WithNavigation(entries []access.Entry) ServiceOption {
	return func(s *Service) {
		s.navigation = entries
	}
}

// WithWatcherOptions passes options (grace, redirect, landing path) to the expiry watcher
func WithWatcherOptions(options ...watcher.Option) ServiceOption {
	return func(s *Service) {
		s.watcherOptions = append(s.watcherOptions, options...)
	}
}

// NewService builds the service and binds the watcher to the store. Start
// must be called to restore a stored session.
func NewService(client *apiclient.Client, repo sessions.Repo, notifier watcher.Notifier, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("[NewService] client is required")
	}
	if repo == nil {
		return nil, errors.New("[NewService] session repo is required")
	}
	if notifier == nil {
		return nil, errors.New("[NewService] notifier is required")
	}

	s := &Service{
		client:    client,
		validator: NewValidator(),
		logger:    log.Logger,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.navigation == nil {
		s.navigation = access.DefaultNavigation()
	}

	s.store = sessions.NewStore(repo,
		sessions.WithTokenHolder(client),
		sessions.WithLogger(s.logger),
		sessions.WithNowFunc(s.nowTime),
	)

	watcherOptions := append([]watcher.Option{
		watcher.WithNowFunc(s.nowTime),
		watcher.WithLogger(s.logger),
	}, s.watcherOptions...)
	s.watcher = watcher.New(notifier, s.store.Logout, watcherOptions...)
	s.unbind = s.watcher.Bind(s.store)

	return s, nil
}

// Start restores the stored session. An absent, expired or unreadable record
// leaves the service logged out without an error; storage that cannot be
// reached at all is reported.
func (s *Service) Start(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	err := s.store.Hydrate(ctx)
	switch {
	case err == nil:
		s.logger.Info().Str("user", s.store.Snapshot().User.DisplayName()).Msg("session restored")
		return nil
	case hmserrors.Is(err, hmserrors.ErrNoStoredSession):
		return nil
	case hmserrors.Is(err, hmserrors.ErrSessionExpired):
		s.logger.Info().Msg("stored session had expired")
		return nil
	case hmserrors.Is(err, sessions.ErrCorruptRecord):
		s.logger.Warn().Err(err).Msg("stored session discarded")
		return nil
	}
	return errors.Wrap(err, "Service.Start Hydrate")
}

// Login validates the credentials and runs one login attempt. A rejected
// attempt leaves its message on the session and returns an error matching
// errors.ErrLoginFailed.
func (s *Service) Login(ctx context.Context, username, password string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.validator.ValidateCredentials(username, password); err != nil {
		return err
	}

	s.store.BeginLogin()
	resp, err := s.client.Login(ctx, username, password)
	if err != nil {
		s.store.LoginFailed(apiclient.LoginMessage(err))
		s.logger.Info().Str("username", username).Err(err).Msg("login rejected")
		return err
	}
	if resp.BearerToken() == "" {
		s.store.LoginFailed(missingTokenMessage)
		return &apiclient.LoginError{Message: missingTokenMessage, Err: hmserrors.ErrMalformedToken}
	}

	if err := s.store.LoginSucceeded(ctx, resp); err != nil {
		// the session is live in memory; only persistence failed
		return errors.Wrap(err, "Service.Login")
	}
	s.logger.Info().Str("username", username).Msg("logged in")
	return nil
}

// Logout asks the backend to revoke the token, then clears the session. The
// session is cleared even when the backend cannot be reached.
func (s *Service) Logout(ctx context.Context) error {
	if s.store.Snapshot().Token != "" {
		if err := s.client.Logout(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("backend logout failed")
		}
	}
	return s.store.Logout(ctx)
}

// ForgotPassword validates the address and returns the backend's confirmation message
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	if err := s.validator.ValidateEmail(email); err != nil {
		return "", err
	}
	msg, err := s.client.ForgotPassword(ctx, email)
	if err != nil {
		return "", errors.Wrap(err, "Service.ForgotPassword")
	}
	return msg, nil
}

func (s *Service) Session() sessions.Session {
	return s.store.Snapshot()
}

// Subscribe is notified with every new session state
func (s *Service) Subscribe(fn func(sessions.Session)) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}

// Menu is the navigation tree filtered for the current session
func (s *Service) Menu() []access.Entry {
	roles, permissions := s.grants()
	return access.Filter(s.navigation, roles, permissions)
}

func (s *Service) CanAccess(path string) bool {
	roles, permissions := s.grants()
	return access.CanAccess(s.navigation, path, roles, permissions)
}

// grants are the session's roles and permissions, none unless authenticated.
// A failed login keeps the earlier grants in the session but they stop counting.
func (s *Service) grants() (roles, permissions []string) {
	session := s.store.Snapshot()
	if !session.IsAuthenticated {
		return nil, nil
	}
	return session.Roles, session.Permissions
}

// Client is the API client carrying the session's token
func (s *Service) Client() *apiclient.Client {
	return s.client
}

// Close stops the expiry watcher. The stored session is kept.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.unbind()
	s.watcher.Stop()
}

func (s *Service) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ServiceClosedErr
	}
	return nil
}
