package httpserver

import (
	"errors"
	"net/http"

	"github.com/avoskov/retail_pos/internal/logging"
	"github.com/avoskov/retail_pos/internal/models"
	"github.com/avoskov/retail_pos/internal/registry"
	"github.com/avoskov/retail_pos/internal/transport"
	"github.com/labstack/echo/v4"
)

type UserHTTP struct {
	Reg *registry.UserRegistry
}

// sanitize strips credentials before users go out over the wire.
func sanitize(users []models.User) []models.User {
	out := make([]models.User, len(users))
	copy(out, users)
	for i := range out {
		out[i].Credential = ""
	}
	return out
}

func (h *UserHTTP) List(c echo.Context) error {
	return c.JSON(http.StatusOK, sanitize(h.Reg.List()))
}

func (h *UserHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.create")

	var req transport.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("user_create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	u, err := h.Reg.Add(ctx, registry.UserInput{
		Username:   req.Username,
		Credential: req.Credential,
		Role:       req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrDuplicateUsername):
			l.Warn("user_create_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		case errors.Is(err, registry.ErrValidation):
			l.Warn("user_create_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("user_create_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot save user")
		}
	}

	l.Info("user created", "user_id", u.ID, "role", u.Role)
	out := *u
	out.Credential = ""
	return c.JSON(http.StatusCreated, out)
}

func (h *UserHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.patch")

	var req transport.PatchUserRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("user_patch_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	u, err := h.Reg.Update(ctx, callerID(c), c.Param("id"), registry.UserPatch{
		Username:   req.Username,
		Credential: req.Credential,
		Role:       req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, registry.ErrDefaultAdmin):
			l.Warn("user_patch_error", "status", 403, "error", err)
			return echo.NewHTTPError(http.StatusForbidden, "the default admin can only edit itself")
		case errors.Is(err, registry.ErrLastAdmin):
			l.Warn("user_patch_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "cannot demote the last admin")
		case errors.Is(err, registry.ErrDuplicateUsername):
			l.Warn("user_patch_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		case errors.Is(err, registry.ErrValidation):
			l.Warn("user_patch_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			l.Error("user_patch_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot save user")
		}
	}

	out := *u
	out.Credential = ""
	return c.JSON(http.StatusOK, out)
}

func (h *UserHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete")

	if err := h.Reg.Delete(ctx, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, registry.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, registry.ErrDefaultAdmin):
			l.Warn("user_delete_error", "status", 403, "error", err)
			return echo.NewHTTPError(http.StatusForbidden, "the default admin cannot be deleted")
		case errors.Is(err, registry.ErrLastAdmin):
			l.Warn("user_delete_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "cannot delete the last admin")
		default:
			l.Error("user_delete_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete user")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "user deleted"})
}
