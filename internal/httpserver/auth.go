package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/records/internal/errs"
	"github.com/Skotchmaster/records/internal/logging"
	"github.com/Skotchmaster/records/internal/models"
	"github.com/Skotchmaster/records/internal/service"
)

type AuthHTTP struct {
	Svc      *service.AuthService
	Students *service.StudentService
	Staffs   *service.StaffService
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password look the same from outside.
		if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrUnauthorized) {
			l.Warn("login_failed", "status", http.StatusUnauthorized, "reason", "invalid email or password")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		return fail(l, "login_failed", err)
	}

	l.Info("login_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"token":      res.Token,
		"token_type": "Bearer",
		"expires_at": res.ExpiresAt,
		"user":       res.User,
	})
}

// Signup creates an account of the role named in the body. Student and staff
// accounts carry their profile fields and are created with the profile.
func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	role, err := peekRole(c)
	if err != nil {
		l.Warn("signup_failed", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var created any
	switch {
	case role != nil && *role == models.RoleStudent:
		var req service.NewStudent
		if err := c.Bind(&req); err != nil {
			l.Warn("signup_failed", "status", http.StatusBadRequest, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		created, err = h.Students.Create(ctx, req)
	case role != nil && *role == models.RoleStaff:
		var req service.NewStaff
		if err := c.Bind(&req); err != nil {
			l.Warn("signup_failed", "status", http.StatusBadRequest, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		created, err = h.Staffs.Create(ctx, req)
	default:
		var req struct {
			credentials
			Role models.Role `json:"role"`
		}
		if err := c.Bind(&req); err != nil {
			l.Warn("signup_failed", "status", http.StatusBadRequest, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		created, err = h.Svc.SignUp(ctx, req.Email, req.Password, req.Role)
	}
	if err != nil {
		return fail(l, "signup_failed", err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if err := h.Svc.Logout(ctx, claimsOf(c)); err != nil {
		return fail(l, "logout_failed", err)
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
