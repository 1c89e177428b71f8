package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route patterns that bypass authentication. These are
// infrastructure endpoints (health checks) plus the signed file download
// route, which carries its own HMAC signature instead of a bearer token.
var publicPaths = map[string]bool{
	"/health":           true,
	"/health/db":        true,
	"/api/v1/files/:id": true,
}

// AuthSkipper returns true for requests whose route should skip
// authentication. Matches against the Echo route pattern, not the raw URL,
// so parameterized routes like the signed download URL are covered.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given route pattern is a public endpoint.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
