package server

import "github.com/jrsteele09/go-hms-admin/api"

// Route path constants
// The paths are shared with the client through the api package
const (
	// Auth Routes
	RouteAuthLogin      = api.RouteLogin
	RouteAuthLogout     = api.RouteLogout
	RouteForgotPassword = api.RouteForgotPassword

	// Feature collection Routes (patterns)
	RouteCollection = api.RouteCollection
	RouteItem       = api.RouteItem

	// Health
	RouteHealth = "/healthz"
)
