package middleware

import (
	"net/http"
	"strings"

	"github.com/kartuli-app/kartuli-backend/internal/infrastructure/auth"
	"github.com/labstack/echo/v4"
)

// ContextPrincipalKey key under which the verified principal is stored
// in the echo context
const ContextPrincipalKey = "principal"

// VerifyToken authenticate the request with a bearer token. Requests
// without a token or with one the verifier rejects get 401, every other
// verifier failure propagates to the error middleware.
func VerifyToken(verifier auth.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := extractBearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, &unauthorizedBody)
			}
			principal, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				if err == auth.ErrUnauthorized {
					return c.JSON(http.StatusUnauthorized, &unauthorizedBody)
				}
				return err
			}
			SetPrincipal(c, principal)
			return next(c)
		}
	}
}

var unauthorizedBody = struct {
	Code  int    `json:"code"`
	Title string `json:"title"`
}{http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized)}

// SetPrincipal bind the verified principal to the request
func SetPrincipal(c echo.Context, p *auth.Principal) {
	c.Set(ContextPrincipalKey, p)
}

// GetPrincipal return the verified principal, nil when the route is not
// behind VerifyToken
func GetPrincipal(c echo.Context) *auth.Principal {
	if p, ok := c.Get(ContextPrincipalKey).(*auth.Principal); ok {
		return p
	}
	return nil
}

func extractBearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
