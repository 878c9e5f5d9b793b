package apiclient

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/jrsteele09/go-hms-admin/api"
	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/sessions"
)

// LoginError carries the message shown to the user for a failed login. It
// matches errors.ErrLoginFailed and the underlying cause.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	return e.Message
}

func (e *LoginError) Unwrap() []error {
	return []error{hmserrors.ErrLoginFailed, e.Err}
}

// LoginMessage extracts the user-facing text of a login failure
func LoginMessage(err error) string {
	var le *LoginError
	if stderrors.As(err, &le) {
		return le.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Login posts credentials. Rejections and transport failures come back as a *LoginError.
func (c *Client) Login(ctx context.Context, username, password string) (*sessions.LoginResponse, error) {
	var resp sessions.LoginResponse
	err := c.Do(ctx, http.MethodPost, api.RouteLogin, api.LoginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		var apiErr *APIError
		if stderrors.As(err, &apiErr) {
			return nil, &LoginError{Message: apiErr.Message, Err: err}
		}
		return nil, &LoginError{Message: err.Error(), Err: err}
	}
	return &resp, nil
}

// Logout tells the backend to revoke the current token
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, api.RouteLogout, nil, nil)
}

// ForgotPassword asks the backend to send a reset link and returns its message
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp api.MessageResponse
	if err := c.Do(ctx, http.MethodPost, api.RouteForgotPassword, api.ForgotPasswordRequest{Email: email}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
