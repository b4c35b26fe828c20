package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

type TokenParser interface {
	ParseToken(raw string) (*Principal, error)
}

type Middleware struct {
	Tokens TokenParser
}

func NewMiddleware(tokens TokenParser) *Middleware {
	return &Middleware{Tokens: tokens}
}

// RequireAuth accepts a bearer token or the access cookie.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		p, err := m.Tokens.ParseToken(raw)
		if err != nil {
			c.SetCookie(DeleteCookie(AccessCookie, "/"))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(principalKey, p)
		return next(c)
	}
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(func(c echo.Context) error {
		if !PrincipalFrom(c).IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}
		return next(c)
	})
}

func PrincipalFrom(c echo.Context) *Principal {
	p, _ := c.Get(principalKey).(*Principal)
	return p
}

func tokenFromRequest(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}
