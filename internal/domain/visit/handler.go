package visit

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
	g := api.Group("/visits")
	g.GET("", h.List)
	g.GET("/:id", h.Get)

	write := auth.Authorize(auth.RoleClinician, auth.RoleAdmin)
	g.POST("", h.Create, write)
	g.PUT("/:id", h.Update, write)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c, pagination.DefaultLimit)
	var (
		f   ListFilter
		err error
	)
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
		return apperr.Or(err, "Failed to fetch visits")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Or(err, "Failed to fetch visit")
	}
	return c.JSON(http.StatusOK, v)
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
	v, err := h.svc.Create(c.Request().Context(), staffID, &in)
	if err != nil {
		return apperr.Or(err, "Failed to create visit")
	}
	return c.JSON(http.StatusCreated, v)
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
	v, err := h.svc.Update(c.Request().Context(), id, &p)
	if err != nil {
		return apperr.Or(err, "Failed to update visit")
	}
	return c.JSON(http.StatusOK, v)
}
