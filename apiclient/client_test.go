package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/go-hms-admin/api"
	"github.com/jrsteele09/go-hms-admin/apiclient"
	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          map[string]any
}

type testBackend struct {
	mu      sync.Mutex
	seen    []seenRequest
	handler http.HandlerFunc
	server  *httptest.Server
}

func newTestBackend(t *testing.T, handler http.HandlerFunc) *testBackend {
	t.Helper()
	b := &testBackend{handler: handler}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := seenRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get(api.HeaderRequestID),
		}
		_ = json.NewDecoder(r.Body).Decode(&req.Body)
		b.mu.Lock()
		b.seen = append(b.seen, req)
		b.mu.Unlock()
		b.handler(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *testBackend) last() seenRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seen[len(b.seen)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBearerTokenAttachedAndRemoved(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	})
	c := apiclient.New(b.server.URL)
	ctx := context.Background()

	require.NoError(t, c.Do(ctx, http.MethodGet, "/api/beds", nil, nil))
	require.Empty(t, b.last().Authorization)
	require.NotEmpty(t, b.last().RequestID)

	c.SetBearerToken("abc.def.ghi")
	require.Equal(t, "abc.def.ghi", c.BearerToken())
	var out map[string]string
	require.NoError(t, c.Do(ctx, http.MethodGet, "/api/beds", nil, &out))
	require.Equal(t, "Bearer abc.def.ghi", b.last().Authorization)
	require.Equal(t, "yes", out["ok"])

	c.ClearBearerToken()
	require.NoError(t, c.Do(ctx, http.MethodGet, "/api/beds", nil, nil))
	require.Empty(t, b.last().Authorization)
	require.Empty(t, c.BearerToken())
}

func TestDoMapsErrorStatuses(t *testing.T) {
	status := http.StatusNotFound
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, api.ErrorResponse{Error: "not_found", Message: "bed not found"})
	})
	c := apiclient.New(b.server.URL)

	err := c.Do(context.Background(), http.MethodGet, "/api/beds/1", nil, nil)
	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "bed not found", apiErr.Message)
	require.Equal(t, b.last().RequestID, apiErr.RequestID)
	require.ErrorIs(t, err, hmserrors.ErrNotFound)

	status = http.StatusUnauthorized
	require.ErrorIs(t, c.Do(context.Background(), http.MethodGet, "/api/beds", nil, nil), hmserrors.ErrUnauthorized)

	status = http.StatusForbidden
	require.ErrorIs(t, c.Do(context.Background(), http.MethodGet, "/api/beds", nil, nil), hmserrors.ErrForbidden)

	status = http.StatusBadGateway
	require.ErrorIs(t, c.Do(context.Background(), http.MethodGet, "/api/beds", nil, nil), hmserrors.ErrInternal)
}

func TestDoPlainTextError(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	})
	err := apiclient.New(b.server.URL).Do(context.Background(), http.MethodGet, "/x", nil, nil)

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestLoginSuccess(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "abc.def.ghi",
			"user":  map[string]any{"username": "jdoe", "email": "jdoe@example.com"},
			"roles": []any{map[string]any{"name": "ROLE_ADMIN"}},
		})
	})
	c := apiclient.New(b.server.URL)

	resp, err := c.Login(context.Background(), "jdoe", "secret")
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", resp.BearerToken())
	require.Equal(t, "jdoe@example.com", resp.User.Email)

	req := b.last()
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, api.RouteLogin, req.Path)
	require.Equal(t, "jdoe", req.Body["username"])
	require.Equal(t, "secret", req.Body["password"])
	require.Empty(t, c.BearerToken(), "login alone does not attach the token")
}

func TestLoginRejected(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Message: "Invalid username or password"})
	})

	_, err := apiclient.New(b.server.URL).Login(context.Background(), "jdoe", "wrong")
	require.ErrorIs(t, err, hmserrors.ErrLoginFailed)
	require.ErrorIs(t, err, hmserrors.ErrUnauthorized)
	require.Equal(t, "Invalid username or password", apiclient.LoginMessage(err))
}

func TestLoginTransportFailure(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	url := b.server.URL
	b.server.Close()

	_, err := apiclient.New(url).Login(context.Background(), "jdoe", "secret")
	require.ErrorIs(t, err, hmserrors.ErrLoginFailed)
	require.NotEmpty(t, apiclient.LoginMessage(err))
}

func TestForgotPassword(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusAccepted, api.MessageResponse{Message: "Reset link sent"})
	})

	msg, err := apiclient.New(b.server.URL).ForgotPassword(context.Background(), "jdoe@example.com")
	require.NoError(t, err)
	require.Equal(t, "Reset link sent", msg)
	require.Equal(t, "jdoe@example.com", b.last().Body["email"])
}
