package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORSOption fixed cross-origin policy
type CORSOption struct {
	Origin string
}

// CORS apply a fixed cross-origin policy and short-circuit preflight
// requests with 204 before they reach auth or handlers. Must be
// registered ahead of VerifyToken.
func CORS(options ...*CORSOption) echo.MiddlewareFunc {
	origin := "*"
	if len(options) > 0 {
		if option := options[0]; option.Origin != "" {
			origin = option.Origin
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Response().Header()
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
