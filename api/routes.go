package api

import "net/url"

// Route path constants shared by the client and the mock backend
const (
	RouteLogin          = "/api/auth/login"
	RouteLogout         = "/api/auth/logout"
	RouteForgotPassword = "/api/auth/forgot-password"

	// RouteCollection and RouteItem address a feature resource, e.g. /api/beds and /api/beds/{id}
	RouteCollection = "/api/{collection}"
	RouteItem       = "/api/{collection}/{id}"

	HeaderRequestID = "X-Request-ID"
)

// Collections served by the backend
const (
	CollectionBeds      = "beds"
	CollectionRooms     = "rooms"
	CollectionDonations = "donations"
	CollectionSchedules = "schedules"
	CollectionReports   = "pathology-reports"
	CollectionInvoices  = "invoices"
)

var Collections = []string{
	CollectionBeds,
	CollectionRooms,
	CollectionDonations,
	CollectionSchedules,
	CollectionReports,
	CollectionInvoices,
}

func CollectionPath(collection string) string {
	return "/api/" + collection
}

func ItemPath(collection, id string) string {
	return "/api/" + collection + "/" + url.PathEscape(id)
}
