// Package apiclient talks to the hospital administration backend. The Client
// carries the session's bearer token explicitly: sessions.Store attaches it on
// login and hydration and removes it on logout.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hms-admin/api"
	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	contentTypeJSON = "application/json"
	maxErrorBody    = 64 << 10
)

var _ sessions.TokenHolder = (*Client)(nil)

type Client struct {
	baseURL    string
	base       http.RoundTripper
	httpClient *http.Client
	logger     zerolog.Logger

	mu        sync.RWMutex
	token     string
	transport http.RoundTripper
}

type Option func(*Client)

// WithTransport sets the transport beneath the bearer-token layer
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		base:       http.DefaultTransport,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	c.transport = c.base
	c.httpClient.Transport = roundTripperFunc(c.roundTrip)
	return c
}

// SetBearerToken makes every following request carry "Authorization: Bearer <token>"
func (c *Client) SetBearerToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   c.base,
	}
}

func (c *Client) ClearBearerToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.transport = c.base
}

func (c *Client) BearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	c.mu.RLock()
	rt := c.transport
	c.mu.RUnlock()
	return rt.RoundTrip(req)
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// APIError is a non-2xx answer from the backend
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap maps well known statuses onto the package sentinels
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return hmserrors.ErrUnauthorized
	case http.StatusForbidden:
		return hmserrors.ErrForbidden
	case http.StatusNotFound:
		return hmserrors.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return hmserrors.ErrInvalidRequest
	case http.StatusTooManyRequests:
		return hmserrors.ErrRateLimited
	}
	if e.Status >= 500 {
		return hmserrors.ErrInternal
	}
	return nil
}

// Do sends in as JSON (when non-nil) and decodes a 2xx body into out (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "Client.Do Marshal")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "Client.Do NewRequest")
	}
	requestID := uuid.New().String()
	req.Header.Set(api.HeaderRequestID, requestID)
	req.Header.Set("Accept", contentTypeJSON)
	if in != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("request failed")
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("took", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp), RequestID: requestID}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "Client.Do Decode")
	}
	return nil
}

func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body api.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Text() != "" {
		return body.Text()
	}
	if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
