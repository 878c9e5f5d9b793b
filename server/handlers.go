package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hms-admin/api"
	"github.com/jrsteele09/go-hms-admin/token"
	"github.com/jrsteele09/go-hms-admin/users"
)

const (
	contentTypeJSON = "application/json"
	maxBodyBytes    = 1 << 20

	forgotPasswordMessage = "If the account exists a password reset link has been sent"
)

// loginResponseBody mirrors what the admin console expects from a login
type loginResponseBody struct {
	Token       string      `json:"token"`
	User        *users.User `json:"user"`
	Roles       []string    `json:"roles"`
	Permissions []string    `json:"permissions"`
}

// LoginHandler verifies the credentials and issues a bearer token
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeJSONError(w, "invalid_request", "Invalid request body", http.StatusBadRequest)
			return
		}

		username := strings.TrimSpace(req.Username)
		if username == "" || req.Password == "" {
			writeJSONError(w, "invalid_request", "Username and password are required", http.StatusBadRequest)
			return
		}

		if s.logins.Blocked(username) {
			writeJSONError(w, "too_many_attempts", "Too many failed login attempts. Try again later.", http.StatusTooManyRequests)
			return
		}

		// Accept a username or an email address
		account, err := s.repos.Accounts.GetByUsername(username)
		if err != nil {
			account, err = s.repos.Accounts.GetByEmail(username)
		}
		if err != nil || !users.CheckPasswordHash(req.Password, account.PasswordHash) {
			// Don't reveal if user exists or not
			s.logins.Failed(username)
			writeJSONError(w, "invalid_credentials", "Invalid username or password", http.StatusUnauthorized)
			return
		}

		if account.Blocked {
			writeJSONError(w, "account_blocked", "Account is blocked. Contact an administrator.", http.StatusForbidden)
			return
		}

		s.logins.Succeeded(username)

		raw, err := s.issueToken(account)
		if err != nil {
			s.logger.Error().Err(err).Str("username", account.Username).Msg("failed to issue token")
			writeJSONError(w, "internal_error", "Login failed", http.StatusInternalServerError)
			return
		}

		if err := s.repos.Accounts.SetLastLogin(account.Username); err != nil {
			s.logger.Warn().Err(err).Str("username", account.Username).Msg("failed to record last login")
		}

		writeJSON(w, http.StatusOK, loginResponseBody{
			Token:       raw,
			User:        account.User.Clone(),
			Roles:       account.Roles,
			Permissions: account.Permissions,
		})
	}
}

func (s *Server) issueToken(account *users.Account) (string, error) {
	now := s.nowFunc()
	return token.Encode(token.Claims{
		"sub":         account.Username,
		"jti":         uuid.New().String(),
		"iat":         now.Unix(),
		"exp":         now.Add(s.config.GetTokenTTL()).Unix(),
		"roles":       account.Roles,
		"permissions": account.Permissions,
		"user":        account.User,
	}, s.signer)
}

// LogoutHandler revokes the presented token until it would have expired
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSONError(w, "unauthorized", "Authentication required", http.StatusUnauthorized)
			return
		}

		jti, _ := claims["jti"].(string)
		exp := claims.ExpiresAt()
		if exp.IsZero() {
			exp = s.nowFunc().Add(s.config.GetTokenTTL())
		}
		if err := s.revoked.Add(jti, exp); err != nil {
			s.logger.Error().Err(err).Msg("failed to revoke token")
			writeJSONError(w, "internal_error", "Logout failed", http.StatusInternalServerError)
			return
		}
		s.revoked.Cleanup()

		w.WriteHeader(http.StatusNoContent)
	}
}

// ForgotPasswordHandler accepts a reset request. The answer is the same
// whether or not the address belongs to an account.
func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.ForgotPasswordRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeJSONError(w, "invalid_request", "Invalid request body", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(req.Email)
		if email == "" || !strings.Contains(email, "@") {
			writeJSONError(w, "invalid_request", "A valid email address is required", http.StatusBadRequest)
			return
		}

		if account, err := s.repos.Accounts.GetByEmail(email); err == nil {
			// No mail transport in development: the reset would be sent here
			s.logger.Info().Str("username", account.Username).Msg("password reset requested")
		}

		writeJSON(w, http.StatusAccepted, api.MessageResponse{Message: forgotPasswordMessage})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes an api.ErrorResponse
func writeJSONError(w http.ResponseWriter, errorCode, message string, statusCode int) {
	writeJSON(w, statusCode, api.ErrorResponse{Error: errorCode, Message: message})
}
