package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/avoskov/retail_pos/internal/backup"
	"github.com/avoskov/retail_pos/internal/logging"
	"github.com/labstack/echo/v4"
)

const maxBackupBytes = 32 << 20

type BackupHTTP struct {
	Svc *backup.Service
}

func (h *BackupHTTP) Export(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="pos-backup.json"`)
	return c.JSON(http.StatusOK, h.Svc.Export(c.Request().Context()))
}

func (h *BackupHTTP) Restore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "backup.restore")

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBackupBytes))
	if err != nil {
		l.Warn("backup_restore_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}

	if err := h.Svc.Restore(ctx, raw); err != nil {
		if errors.Is(err, backup.ErrInvalidBackup) {
			l.Warn("backup_restore_error", "status", 422, "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		l.Error("backup_restore_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "restore failed")
	}

	l.Info("backup restored")
	return c.JSON(http.StatusOK, map[string]string{"message": "backup restored"})
}
