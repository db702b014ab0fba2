package httpserver

import (
	"net/http"

	"github.com/avoskov/retail_pos/internal/logging"
	"github.com/avoskov/retail_pos/internal/settings"
	"github.com/avoskov/retail_pos/internal/transport"
	"github.com/labstack/echo/v4"
)

type SettingsHTTP struct {
	Svc *settings.Service
}

func (h *SettingsHTTP) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Get())
}

func (h *SettingsHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "settings.update")

	var req transport.UpdateSettingsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("settings_update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cfg, err := h.Svc.Update(ctx, settings.Patch{
		StoreName:         req.StoreName,
		Theme:             req.Theme,
		NotificationSound: req.NotificationSound,
		PaymentMethods:    req.PaymentMethods,
	})
	if err != nil {
		l.Error("settings_update_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save settings")
	}

	return c.JSON(http.StatusOK, cfg)
}

func (h *SettingsHTTP) Reset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "settings.reset")

	cfg, err := h.Svc.Reset(ctx)
	if err != nil {
		l.Error("settings_reset_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot reset settings")
	}
	return c.JSON(http.StatusOK, cfg)
}
