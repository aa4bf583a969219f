package labtest

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
	g := api.Group("/lab-tests")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.GET("/patient/:patientId/viral-load", h.ViralLoadHistory)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c, pagination.DefaultLimit)
	f := ListFilter{TestType: params.String(c, "testType"), Status: params.String(c, "status")}
	var err error
	if f.PatientID, err = params.OptionalID(c, "patientId"); err != nil {
		return err
	}
	if f.Dates, err = params.Dates(c); err != nil {
		return err
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg)
	if err != nil {
		return apperr.Or(err, "Failed to fetch lab tests")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	l, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Or(err, "Failed to fetch lab test")
	}
	return c.JSON(http.StatusOK, l)
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
	l, err := h.svc.Create(c.Request().Context(), staffID, &in)
	if err != nil {
		return apperr.Or(err, "Failed to create lab test")
	}
	return c.JSON(http.StatusCreated, l)
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
	l, err := h.svc.Update(c.Request().Context(), id, &p)
	if err != nil {
		return apperr.Or(err, "Failed to update lab test")
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ViralLoadHistory(c echo.Context) error {
	patientID, err := params.ID(c, "patientId")
	if err != nil {
		return err
	}
	items, err := h.svc.ViralLoadHistory(c.Request().Context(), patientID)
	if err != nil {
		return apperr.Or(err, "Failed to fetch viral load history")
	}
	return c.JSON(http.StatusOK, items)
}
