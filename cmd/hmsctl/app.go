package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jrsteele09/go-hms-admin/apiclient"
	"github.com/jrsteele09/go-hms-admin/auth"
	"github.com/jrsteele09/go-hms-admin/internal/config"
	"github.com/jrsteele09/go-hms-admin/sessions"
	"github.com/jrsteele09/go-hms-admin/sessions/filerepo"
	"github.com/jrsteele09/go-hms-admin/sessions/redisrepo"
	fakesessionrepo "github.com/jrsteele09/go-hms-admin/sessions/repofakes"
	"github.com/jrsteele09/go-hms-admin/ui"
	"github.com/jrsteele09/go-hms-admin/watcher"
	"github.com/redis/go-redis/v9"
	"golang.org/x/term"
)

// app is what every command shares: configuration, the terminal and the
// global flags.
type app struct {
	config config.Config
	stdin  *os.File
	in     *bufio.Reader
	out    io.Writer
	colour bool

	apiURL     string
	jsonOutput bool

	// repo replaces the configured session store when set
	repo sessions.Repo
}

func newApp(c config.Config) *app {
	return &app{
		config: c,
		stdin:  os.Stdin,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		colour: isTerminal(os.Stdout),
	}
}

func (a *app) baseURL() string {
	if a.apiURL != "" {
		return strings.TrimRight(a.apiURL, "/")
	}
	return a.config.GetAPIBaseURL()
}

// session is an opened auth service plus the channel its expiry redirect lands on
type session struct {
	*auth.Service
	repo       sessions.Repo
	redirected chan string
	close      func()
}

// changeWatcher is a session store that reports writes by other processes
type changeWatcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// openSession builds the auth service and restores any stored session. With
// acknowledge set a line on stdin acknowledges the expiry notice.
func (a *app) openSession(ctx context.Context, acknowledge bool) (*session, error) {
	repo, closeRepo := a.sessionRepo()

	notifierOptions := []ui.NotifierOption{ui.WithColour(a.colour)}
	if acknowledge {
		notifierOptions = append(notifierOptions, ui.WithInput(a.in))
	}

	redirected := make(chan string, 1)
	client := apiclient.New(a.baseURL(), apiclient.WithTimeout(a.config.GetHTTPTimeout()))
	service, err := auth.NewService(client, repo, ui.NewTerminalNotifier(a.out, notifierOptions...),
		auth.WithWatcherOptions(
			watcher.WithGrace(a.config.GetExpiryGrace()),
			watcher.WithLandingPath(a.config.GetLandingPath()),
			watcher.WithRedirect(func(path string) {
				select {
				case redirected <- path:
				default:
				}
			}),
		),
	)
	if err != nil {
		closeRepo()
		return nil, err
	}

	s := &session{
		Service:    service,
		repo:       repo,
		redirected: redirected,
		close: func() {
			service.Close()
			closeRepo()
		},
	}
	if err := service.Start(ctx); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

// sessionRepo picks where the session record is kept
func (a *app) sessionRepo() (sessions.Repo, func()) {
	if a.repo != nil {
		return a.repo, func() {}
	}
	switch a.config.GetSessionStore() {
	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: a.config.GetRedisAddr()})
		return redisrepo.New(rdb, a.config.GetRedisKey()), func() { _ = rdb.Close() }
	case config.SessionStoreMemory:
		return fakesessionrepo.NewFakeSessionRepo(), func() {}
	default:
		var options []filerepo.Option
		if key := a.config.GetSessionKey(); key != nil {
			options = append(options, filerepo.WithKey(key))
		}
		return filerepo.New(a.config.GetSessionFile(), options...), func() {}
	}
}

func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassword reads without echo on a terminal and falls back to a plain
// line when stdin is piped
func (a *app) readPassword(prompt string) (string, error) {
	if a.stdin == nil || !isTerminal(a.stdin) {
		return a.readLine(prompt)
	}
	fmt.Fprint(a.out, prompt)
	password, err := term.ReadPassword(int(a.stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(a.out)
	return string(password), nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
