// Package server is a development backend that speaks the hospital
// administration HTTP contract: bcrypt logins issuing HS256 bearer tokens and
// CRUD over the feature collections.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-hms-admin/internal/config"
	"github.com/jrsteele09/go-hms-admin/server/records"
	"github.com/jrsteele09/go-hms-admin/token"
	"github.com/jrsteele09/go-hms-admin/ui"
	"github.com/jrsteele09/go-hms-admin/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Repos struct {
	Accounts users.AccountRepo
	Records  records.Repo
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	repos   Repos
	signer  token.Signer
	revoked token.RevokedTokenCache
	logins  *loginLimiter
	logger  zerolog.Logger
	nowFunc func() time.Time

	seedPassword string
}

type Option func(*Server)

func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRevokedTokenCache replaces the in-memory revocation list
func WithRevokedTokenCache(cache token.RevokedTokenCache) Option {
	return func(s *Server) {
		s.revoked = cache
	}
}

func New(config config.Config, repos Repos, options ...Option) (*Server, error) {
	if repos.Accounts == nil {
		return nil, fmt.Errorf("[Server New] accounts repo is required")
	}
	if repos.Records == nil {
		return nil, fmt.Errorf("[Server New] records repo is required")
	}

	s := &Server{
		env:     config.GetEnv(),
		mux:     http.NewServeMux(),
		config:  config,
		repos:   repos,
		signer:  token.NewHMACSigner(config.GetTokenSecret(), config.GetPreviousTokenSecrets()...),
		logger:  log.Logger,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.revoked == nil {
		s.revoked = token.NewInMemoryRevokedTokenCache(s.nowFunc)
	}
	s.logins = newLoginLimiter(config.GetLoginInterval(), config.GetLoginBurst(), s.nowFunc)

	password, err := s.InitialiseSystem(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}
	s.seedPassword = password

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// SeedPassword is the password shared by the seeded accounts
func (s *Server) SeedPassword() string {
	return s.seedPassword
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1], "")
		} else {
			s.logRoute("", parts[0], "")
		}
	}
}

func (s *Server) logRoute(method, path, suffix string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := ui.MethodColors[method]; ok {
		displayMethod = color + paddedMethod + ui.ResetColor
	} else {
		displayMethod = ui.Gray + paddedMethod + ui.ResetColor
	}
	s.logger.Info().Msgf("[%-19s] %s%s", displayMethod, path, suffix)
}
