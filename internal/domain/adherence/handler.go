package adherence

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
	g := api.Group("/adherence")
	g.GET("", h.List)
	g.GET("/patient/:patientId", h.ForPatient)
	g.GET("/:id", h.Get)

	write := auth.Authorize(auth.RoleClinician, auth.RoleCounselor, auth.RoleAdmin)
	g.POST("", h.Create, write)
	g.PUT("/:id", h.Update, write)
	g.POST("/compute/:patientId", h.Compute, auth.Authorize(auth.RoleClinician, auth.RoleAdmin))
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c, pagination.DefaultLimit)
	f := ListFilter{MethodUsed: params.String(c, "methodUsed")}
	var err error
	if f.PatientID, err = params.OptionalID(c, "patientId"); err != nil {
		return err
	}
	if f.Dates, err = params.Dates(c); err != nil {
		return err
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg)
	if err != nil {
		return apperr.Or(err, "Failed to fetch adherence logs")
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
		return apperr.Or(err, "Failed to fetch adherence log")
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := params.Bind(c, &in); err != nil {
		return err
	}
	l, err := h.svc.Record(c.Request().Context(), &in)
	if err != nil {
		return apperr.Or(err, "Failed to create adherence log")
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	var patch Patch
	if err := params.Bind(c, &patch); err != nil {
		return err
	}
	l, err := h.svc.Update(c.Request().Context(), id, &patch)
	if err != nil {
		return apperr.Or(err, "Failed to update adherence log")
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ForPatient(c echo.Context) error {
	patientID, err := params.ID(c, "patientId")
	if err != nil {
		return err
	}
	items, err := h.svc.ForPatient(c.Request().Context(), patientID)
	if err != nil {
		return apperr.Or(err, "Failed to fetch patient adherence history")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Compute(c echo.Context) error {
	patientID, err := params.ID(c, "patientId")
	if err != nil {
		return err
	}
	from, _, err := params.OptionalDate(c, "startDate")
	if err != nil {
		return err
	}
	to, _, err := params.OptionalDate(c, "endDate")
	if err != nil {
		return err
	}
	res, err := h.svc.Compute(c.Request().Context(), patientID, from, to)
	if err != nil {
		return apperr.Or(err, "Failed to compute adherence")
	}
	return c.JSON(http.StatusOK, res)
}
