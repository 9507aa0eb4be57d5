package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/records/internal/logging"
	"github.com/Skotchmaster/records/internal/service"
)

type StudentsHTTP struct {
	Svc *service.StudentService
}

func (h *StudentsHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "students_create")

	var req service.NewStudent
	if err := c.Bind(&req); err != nil {
		l.Warn("create_student_failed", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	st, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "create_student_failed", err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *StudentsHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "students_list")

	offset, limit := pageBounds(c.QueryParam("page"), c.QueryParam("limit"))
	page, err := h.Svc.List(ctx, offset, limit, c.QueryParam("search"))
	if err != nil {
		return fail(l, "list_students_failed", err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *StudentsHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "students_get", "user_id", c.Param("id"))

	st, err := h.Svc.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "get_student_failed", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *StudentsHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "students_update", "user_id", c.Param("id"))

	var req service.StudentPatch
	if err := c.Bind(&req); err != nil {
		l.Warn("update_student_failed", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	st, err := h.Svc.Update(ctx, c.Param("id"), req)
	if err != nil {
		return fail(l, "update_student_failed", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *StudentsHTTP) Archive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "students_archive", "user_id", c.Param("id"))

	st, err := h.Svc.Archive(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "archive_student_failed", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *StudentsHTTP) Unarchive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "students_unarchive", "user_id", c.Param("id"))

	st, err := h.Svc.Unarchive(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "unarchive_student_failed", err)
	}
	return c.JSON(http.StatusOK, st)
}

type StaffsHTTP struct {
	Svc *service.StaffService
}

func (h *StaffsHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "staffs_create")

	var req service.NewStaff
	if err := c.Bind(&req); err != nil {
		l.Warn("create_staff_failed", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sf, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "create_staff_failed", err)
	}
	return c.JSON(http.StatusCreated, sf)
}

func (h *StaffsHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "staffs_list")

	items, err := h.Svc.List(ctx, c.QueryParam("search"))
	if err != nil {
		return fail(l, "list_staffs_failed", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *StaffsHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "staffs_get", "user_id", c.Param("id"))

	sf, err := h.Svc.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "get_staff_failed", err)
	}
	return c.JSON(http.StatusOK, sf)
}

func (h *StaffsHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "staffs_update", "user_id", c.Param("id"))

	var req service.StaffPatch
	if err := c.Bind(&req); err != nil {
		l.Warn("update_staff_failed", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sf, err := h.Svc.Update(ctx, c.Param("id"), req)
	if err != nil {
		return fail(l, "update_staff_failed", err)
	}
	return c.JSON(http.StatusOK, sf)
}

func (h *StaffsHTTP) Archive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "staffs_archive", "user_id", c.Param("id"))

	sf, err := h.Svc.Archive(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "archive_staff_failed", err)
	}
	return c.JSON(http.StatusOK, sf)
}

func (h *StaffsHTTP) Unarchive(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "staffs_unarchive", "user_id", c.Param("id"))

	sf, err := h.Svc.Unarchive(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "unarchive_staff_failed", err)
	}
	return c.JSON(http.StatusOK, sf)
}
