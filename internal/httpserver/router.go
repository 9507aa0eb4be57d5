package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/records/internal/guard"
	"github.com/Skotchmaster/records/internal/metrics"
	"github.com/Skotchmaster/records/internal/policy"
)

type Deps struct {
	Auth     *AuthHTTP
	Users    *UsersHTTP
	Students *StudentsHTTP
	Staffs   *StaffsHTTP

	Authenticator Authenticator
	Pipeline      *guard.Pipeline
	Logger        *slog.Logger

	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(d.Logger))
	e.Use(metrics.Middleware())
	e.Use(Authenticate(d.Authenticator))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())

	g := func(op string, opts ...GuardOption) echo.MiddlewareFunc {
		return Guard(d.Pipeline, op, opts...)
	}

	auth := e.Group("/auth")
	auth.POST("/login", d.Auth.Login, g(policy.AuthLogin))
	auth.POST("/signup", d.Auth.Signup, g(policy.AuthSignup, RoleFromBody()))
	auth.POST("/logout", d.Auth.Logout, g(policy.AuthLogout))

	users := e.Group("/users")
	users.GET("", d.Users.List, g(policy.UsersList))
	users.DELETE("/:id", d.Users.Delete, g(policy.UsersDelete))
	users.PATCH("/:id/role", d.Users.UpdateRole, g(policy.UsersUpdateRole, RoleFromBody()))
	users.PATCH("/:id/password", d.Users.UpdatePassword, g(policy.UsersUpdatePassword))

	students := e.Group("/students")
	students.POST("", d.Students.Create, g(policy.StudentsCreate))
	students.GET("", d.Students.List, g(policy.StudentsList))
	students.GET("/:id", d.Students.Get, g(policy.StudentsGet))
	students.PATCH("/:id", d.Students.Update, g(policy.StudentsUpdate))
	students.PATCH("/:id/archive", d.Students.Archive, g(policy.StudentsArchive))
	students.PATCH("/:id/unarchive", d.Students.Unarchive, g(policy.StudentsUnarchive))

	staffs := e.Group("/staffs")
	staffs.POST("", d.Staffs.Create, g(policy.StaffsCreate))
	staffs.GET("", d.Staffs.List, g(policy.StaffsList))
	staffs.GET("/:id", d.Staffs.Get, g(policy.StaffsGet))
	staffs.PATCH("/:id", d.Staffs.Update, g(policy.StaffsUpdate))
	staffs.PATCH("/:id/archive", d.Staffs.Archive, g(policy.StaffsArchive))
	staffs.PATCH("/:id/unarchive", d.Staffs.Unarchive, g(policy.StaffsUnarchive))
}
