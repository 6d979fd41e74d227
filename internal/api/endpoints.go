package api

// Account service routes, relative to the configured base path.
const (
	AccountsBasePath = "/api/users"

	AccountRegister = "/register"
	AccountValidate = "/validate"
	AccountLogin    = "/login"
	AccountLogout   = "/logout"
	AccountDelete   = "/delete"
	AccountSession  = "/session"

	HealthPath = "/healthz"
	DocsPath   = "/api-docs"
)

// PublicEndpoints defines routes that don't require a session token
var PublicEndpoints = map[string]bool{
	AccountRegister: true,
	AccountValidate: true,
	AccountLogin:    true,
	AccountLogout:   true,
	AccountDelete:   true,
	AccountSession:  false,
}

// IsPublic reports whether route may be called without a session token.
// Unknown routes are treated as protected.
func IsPublic(route string) bool {
	isPublic, exists := PublicEndpoints[route]
	return exists && isPublic
}
