package httpapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/akozlovs/gamersnet/internal/common"
	"github.com/akozlovs/gamersnet/internal/server/auth"
)

const claimsContextKey = "authClaims"

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}

// requireAuth rejects the request unless it carries a valid access token.
func (s *HTTPServer) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			return s.writeError(c, common.ErrorUnauthorized)
		}

		claims, err := auth.ParseToken(token, s.accessKey)
		if err != nil {
			return s.writeError(c, err)
		}

		c.Set(claimsContextKey, claims)
		return next(c)
	}
}

// optionalAuth attaches claims when a valid access token is present and lets
// the request through either way. Used where the response shape depends on
// who is asking.
func (s *HTTPServer) optionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token := bearerToken(c); token != "" {
			if claims, err := auth.ParseToken(token, s.accessKey); err == nil {
				c.Set(claimsContextKey, claims)
			}
		}
		return next(c)
	}
}

func requestClaims(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*auth.Claims)
	return claims, ok
}
