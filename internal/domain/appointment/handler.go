package appointment

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/auth"
	"github.com/hivcare/hivcare/internal/platform/params"
	"github.com/hivcare/hivcare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/appointments")
	g.GET("", h.List)
	g.GET("/missed", h.Missed)
	g.GET("/patient/:patientId", h.ForPatient)
	g.GET("/:id", h.Get)

	write := auth.Authorize(auth.RoleClinician, auth.RoleCounselor, auth.RoleAdmin)
	g.POST("", h.Create, write)
	g.PUT("/:id", h.Update, write)
	g.PUT("/:id/mark-attended", h.MarkAttended, write)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c, pagination.DefaultLimit)
	f := ListFilter{Status: params.String(c, "status")}
	var err error
	if f.PatientID, err = params.OptionalID(c, "patientId"); err != nil {
		return err
	}
	if f.StaffID, err = params.OptionalID(c, "staffId"); err != nil {
		return err
	}
	if f.Dates, err = params.Dates(c); err != nil {
		return err
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg)
	if err != nil {
		return apperr.Or(err, "Failed to fetch appointments")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Or(err, "Failed to fetch appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := params.Bind(c, &in); err != nil {
		return err
	}
	var staffID int64
	if p := auth.PrincipalFromContext(c.Request().Context()); p != nil {
		staffID = p.StaffID
	}
	a, err := h.svc.Schedule(c.Request().Context(), staffID, &in)
	if err != nil {
		return apperr.Or(err, "Failed to create appointment")
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	var p Patch
	if err := params.Bind(c, &p); err != nil {
		return err
	}
	a, err := h.svc.Update(c.Request().Context(), id, &p)
	if err != nil {
		return apperr.Or(err, "Failed to update appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) MarkAttended(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.MarkAttended(c.Request().Context(), id)
	if err != nil {
		return apperr.Or(err, "Failed to mark appointment as attended")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ForPatient(c echo.Context) error {
	patientID, err := params.ID(c, "patientId")
	if err != nil {
		return err
	}
	f := PatientFilter{Status: params.String(c, "status")}
	upcoming, err := params.OptionalBool(c, "upcoming")
	if err != nil {
		return err
	}
	f.Upcoming = upcoming != nil && *upcoming
	items, err := h.svc.ForPatient(c.Request().Context(), patientID, f)
	if err != nil {
		return apperr.Or(err, "Failed to fetch patient appointments")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Missed(c echo.Context) error {
	items, err := h.svc.Missed(c.Request().Context())
	if err != nil {
		return apperr.Or(err, "Failed to fetch missed appointments")
	}
	return c.JSON(http.StatusOK, items)
}
