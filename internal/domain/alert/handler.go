package alert

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
	g := api.Group("/alerts")
	g.GET("", h.List)
	g.GET("/active", h.Active)
	g.GET("/patient/:patientId", h.ForPatient)
	g.GET("/:id", h.Get)

	write := auth.Authorize(auth.RoleClinician, auth.RoleCounselor, auth.RoleAdmin)
	g.PUT("/:id/resolve", h.Resolve, write)
	g.PUT("/:id/unresolve", h.Unresolve, write)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c, pagination.DefaultLimit)
	f := ListFilter{
		AlertType:  params.String(c, "alertType"),
		AlertLevel: params.String(c, "alertLevel"),
	}
	var err error
	if f.PatientID, err = params.OptionalID(c, "patientId"); err != nil {
		return err
	}
	if f.IsResolved, err = params.OptionalBool(c, "isResolved"); err != nil {
		return err
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg)
	if err != nil {
		return apperr.Or(err, "Failed to fetch alerts")
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
		return apperr.Or(err, "Failed to fetch alert")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ForPatient(c echo.Context) error {
	patientID, err := params.ID(c, "patientId")
	if err != nil {
		return err
	}
	resolved, err := params.OptionalBool(c, "isResolved")
	if err != nil {
		return err
	}
	items, err := h.svc.ForPatient(c.Request().Context(), patientID, resolved)
	if err != nil {
		return apperr.Or(err, "Failed to fetch patient alerts")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Active(c echo.Context) error {
	items, err := h.svc.Active(c.Request().Context())
	if err != nil {
		return apperr.Or(err, "Failed to fetch active alerts")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Resolve(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	var staffID int64
	if p := auth.PrincipalFromContext(c.Request().Context()); p != nil {
		staffID = p.StaffID
	}
	a, err := h.svc.Resolve(c.Request().Context(), id, staffID)
	if err != nil {
		return apperr.Or(err, "Failed to resolve alert")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Unresolve(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.Unresolve(c.Request().Context(), id)
	if err != nil {
		return apperr.Or(err, "Failed to unresolve alert")
	}
	return c.JSON(http.StatusOK, a)
}
