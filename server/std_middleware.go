package server

import (
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hms-admin/api"
	"github.com/jrsteele09/go-hms-admin/ui"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler) // Call the middleware function
	}
	return chainedHandler
}

func (s *Server) APIMiddleware(mw ...func(http.HandlerFunc) http.HandlerFunc) []func(http.HandlerFunc) http.HandlerFunc {
	chainedMiddleWare := []func(http.HandlerFunc) http.HandlerFunc{
		s.RequestIDMiddleware,
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.CorsMiddleware,
	}
	chainedMiddleWare = append(chainedMiddleWare, mw...)
	return chainedMiddleWare
}

// RequestIDMiddleware echoes X-Request-ID, generating one when the caller sent none
func (s *Server) RequestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(api.HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
			r.Header.Set(api.HeaderRequestID, id)
		}
		w.Header().Set(api.HeaderRequestID, id)
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.env != "DEV" {
			next(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		colour := ui.Green
		if rec.status >= 400 {
			colour = ui.Red
		}
		s.logRoute(r.Method, r.URL.Path, " "+colour+http.StatusText(rec.status)+ui.ResetColor)
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Str("request_id", r.Header.Get(api.HeaderRequestID)).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic")
				writeJSONError(w, "internal_error", "Internal server error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

// CorsMiddleware answers preflights and tags responses for the admin console
// origins. A configured "*" admits any origin, but never with credentials.
func (s *Server) CorsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allowOrigin, credentials := s.corsOrigin(r.Header.Get("Origin"))
		h := w.Header()
		if allowOrigin != "" {
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Add("Vary", "Origin")
			if credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}

		if r.Method != http.MethodOptions {
			if credentials {
				h.Set("Access-Control-Expose-Headers", api.HeaderRequestID)
			}
			next(w, r)
			return
		}

		if allowOrigin != "" {
			h.Set("Access-Control-Allow-Methods", s.config.GetAllowedMethods())
			h.Set("Access-Control-Allow-Headers", s.config.GetAllowedHeaders())
			h.Set("Access-Control-Max-Age", "86400")
		}
		w.WriteHeader(http.StatusOK)
	}
}

// corsOrigin is the Access-Control-Allow-Origin value for origin, empty when
// the request is same origin or the origin is not allowed.
func (s *Server) corsOrigin(origin string) (string, bool) {
	if origin == "" {
		return "", false
	}
	allowed := s.config.GetAllowedOrigins()
	switch {
	case allowed.IsAllowedOrigin(origin):
		return origin, true
	case allowed.IsAllowedOrigin("*"):
		return "*", false
	}
	return "", false
}
