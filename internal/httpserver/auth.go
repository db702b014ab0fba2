package httpserver

import (
	"errors"
	"net/http"

	"github.com/avoskov/retail_pos/internal/auth"
	"github.com/avoskov/retail_pos/internal/logging"
	"github.com/avoskov/retail_pos/internal/registry"
	"github.com/avoskov/retail_pos/internal/transport"
	"github.com/labstack/echo/v4"
)

type AuthHTTP struct {
	Svc *auth.Service
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, token, err := h.Svc.Login(ctx, req.Username, req.Credential)
	if err != nil {
		if errors.Is(err, registry.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, transport.LoginResponse{
		Token:    token,
		Username: user.Username,
		Role:     user.Role,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if err := h.Svc.Logout(ctx); err != nil {
		l.Error("logout_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}
