package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecom_proj/internal/auth"
	"github.com/Skotchmaster/ecom_proj/internal/logging"
	"github.com/Skotchmaster/ecom_proj/internal/transport"
)

type AuthHTTP struct {
	Svc *auth.Service
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			l.Warn("register_error", "status", 409, "reason", "user already exists")
			return echo.NewHTTPError(http.StatusConflict, "user already exists")
		case errors.Is(err, auth.ErrInvalidInput):
			l.Warn("register_error", "status", 400, "reason", err.Error())
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("register_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot register user")
		}
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Svc.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			l.Warn("login_error", "status", 401, "reason", "invalid credentials", "username", req.Username)
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot log in")
	}

	token, exp, err := h.Svc.IssueToken(p)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot sign token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot log in")
	}

	c.SetCookie(auth.CreateCookie(auth.AccessCookie, token, "/", exp))
	l.Info("login_success", "user_id", p.UserID)
	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(exp).Seconds()),
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(auth.DeleteCookie(auth.AccessCookie, "/"))
	return ok(c, "Logged out")
}

func (h *AuthHTTP) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, auth.PrincipalFrom(c))
}
