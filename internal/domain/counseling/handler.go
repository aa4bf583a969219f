package counseling

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
	g := api.Group("/counseling")
	g.GET("", h.List)
	g.GET("/patient/:patientId", h.ForPatient)
	g.GET("/:id", h.Get)

	write := auth.Authorize(auth.RoleCounselor, auth.RoleAdmin)
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
	if f.CounselorID, err = params.OptionalID(c, "counselorId"); err != nil {
		return err
	}
	if f.Dates, err = params.Dates(c); err != nil {
		return err
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg)
	if err != nil {
		return apperr.Or(err, "Failed to fetch counseling sessions")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	s, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Or(err, "Failed to fetch counseling session")
	}
	return c.JSON(http.StatusOK, s)
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
	s, err := h.svc.Record(c.Request().Context(), p.StaffID, &in)
	if err != nil {
		return apperr.Or(err, "Failed to create counseling session")
	}
	return c.JSON(http.StatusCreated, s)
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
	s, err := h.svc.Update(c.Request().Context(), id, &patch)
	if err != nil {
		return apperr.Or(err, "Failed to update counseling session")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) ForPatient(c echo.Context) error {
	patientID, err := params.ID(c, "patientId")
	if err != nil {
		return err
	}
	items, err := h.svc.ForPatient(c.Request().Context(), patientID)
	if err != nil {
		return apperr.Or(err, "Failed to fetch patient counseling sessions")
	}
	return c.JSON(http.StatusOK, items)
}
