package server

// Route path constants
const (
	RouteIndex   = "/{$}"
	RouteLogin   = "/login"
	RouteLogout  = "/logout"
	RouteHealth  = "/healthz"
	RouteSession = "/api/session"

	// RouteAPI is relayed to the internal service
	RouteAPI = "/api/"
)
