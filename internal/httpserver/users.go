package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/records/internal/logging"
	"github.com/Skotchmaster/records/internal/models"
	"github.com/Skotchmaster/records/internal/service"
)

type UsersHTTP struct {
	Svc  *service.UserService
	Auth *service.AuthService
}

func (h *UsersHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_list")

	users, err := h.Svc.ListUsers(ctx)
	if err != nil {
		return fail(l, "list_users_failed", err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UsersHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	l := logging.FromContext(ctx).With("handler", "users_delete", "user_id", id)

	if err := h.Svc.DeleteUser(ctx, id); err != nil {
		return fail(l, "delete_user_failed", err)
	}
	l.Info("user_deleted")
	return c.NoContent(http.StatusNoContent)
}

func (h *UsersHTTP) UpdateRole(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	l := logging.FromContext(ctx).With("handler", "users_update_role", "user_id", id)

	var req struct {
		Role models.Role `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_role_failed", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.ChangeRole(ctx, id, req.Role)
	if err != nil {
		return fail(l, "update_role_failed", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UsersHTTP) UpdatePassword(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	l := logging.FromContext(ctx).With("handler", "users_update_password", "user_id", id)

	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_password_failed", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Auth.UpdatePassword(ctx, id, req.Password); err != nil {
		return fail(l, "update_password_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
