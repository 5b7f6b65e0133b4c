package gateway

// Session service routes.
const (
	RouteMe          = "/auth/me"
	RouteLogin       = "/auth/session/login"
	RouteGoogleLogin = "/auth/session/google"
	RouteRegister    = "/auth/register"
	RouteRefresh     = "/auth/session/refresh"
	RouteLogout      = "/auth/session/logout"
	RouteAcceptTerms = "/auth/terms/accept"
	RouteCSRFToken   = "/auth/csrf"
)
