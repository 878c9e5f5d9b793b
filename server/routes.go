package server

import (
	"net/http"
)

const roleAdmin = "ADMIN"

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// AUTH
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordHandler(), s.APIMiddleware()...))

	// Feature collections: reads need a session, writes need an administrator
	s.RegisterRouteHandler("GET "+RouteCollection, ChainMiddleware(s.ListRecordsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteItem, ChainMiddleware(s.GetRecordHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteCollection, ChainMiddleware(s.CreateRecordHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireRole(roleAdmin))...))
	s.RegisterRouteHandler("PUT "+RouteItem, ChainMiddleware(s.UpdateRecordHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireRole(roleAdmin))...))
	s.RegisterRouteHandler("DELETE "+RouteItem, ChainMiddleware(s.DeleteRecordHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireRole(roleAdmin))...))

	// CORS preflight
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))
}

// HealthHandler reports liveness
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// NotFoundHandler handles 404 errors
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "not_found", "Not found", http.StatusNotFound)
	}
}
