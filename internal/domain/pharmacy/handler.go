package pharmacy

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
	g := api.Group("/pharmacy")
	g.GET("/dispenses", h.List)
	g.GET("/dispenses/:id", h.Get)
	g.GET("/dispenses/patient/:patientId", h.PatientHistory)
	g.GET("/overdue-refills", h.OverdueRefills)

	write := auth.Authorize(auth.RolePharmacy, auth.RoleAdmin)
	g.POST("/dispenses", h.Create, write)
	g.PUT("/dispenses/:id", h.Update, write)
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
	if f.RegimenID, err = params.OptionalID(c, "regimenId"); err != nil {
		return err
	}
	if f.Dates, err = params.Dates(c); err != nil {
		return err
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg)
	if err != nil {
		return apperr.Or(err, "Failed to fetch dispenses")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Or(err, "Failed to fetch dispense")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Create(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return apperr.Unauthenticated("Authentication required")
	}
	var in CreateInput
	if err := params.Bind(c, &in); err != nil {
		return err
	}
	d, err := h.svc.Dispense(c.Request().Context(), p.StaffID, &in)
	if err != nil {
		return apperr.Or(err, "Failed to create dispense")
	}
	return c.JSON(http.StatusCreated, d)
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
	d, err := h.svc.Update(c.Request().Context(), id, &p)
	if err != nil {
		return apperr.Or(err, "Failed to update dispense")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) PatientHistory(c echo.Context) error {
	patientID, err := params.ID(c, "patientId")
	if err != nil {
		return err
	}
	items, err := h.svc.PatientHistory(c.Request().Context(), patientID)
	if err != nil {
		return apperr.Or(err, "Failed to fetch patient dispenses")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) OverdueRefills(c echo.Context) error {
	items, err := h.svc.OverdueRefills(c.Request().Context())
	if err != nil {
		return apperr.Or(err, "Failed to fetch overdue refills")
	}
	return c.JSON(http.StatusOK, items)
}
