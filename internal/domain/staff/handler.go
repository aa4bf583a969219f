package staff

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
	g := api.Group("/staff")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/roles", h.Roles)

	admin := auth.Authorize(auth.RoleAdmin)
	g.POST("", h.Create, admin)
	g.PUT("/:id", h.Update, admin)
	g.POST("/:id/roles", h.AssignRoles, admin)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c, pagination.DefaultLimit)
	f := ListFilter{
		Cadre:  params.String(c, "cadre"),
		Search: params.String(c, "search"),
	}
	var err error
	if f.Active, err = params.OptionalBool(c, "active"); err != nil {
		return err
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg)
	if err != nil {
		return apperr.Or(err, "Failed to fetch staff")
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
		return apperr.Or(err, "Failed to fetch staff")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := params.Bind(c, &in); err != nil {
		return err
	}
	s, err := h.svc.Create(c.Request().Context(), &in)
	if err != nil {
		return apperr.Or(err, "Failed to create staff")
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
		return apperr.Or(err, "Failed to update staff")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) Roles(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	roles, err := h.svc.Roles(c.Request().Context(), id)
	if err != nil {
		return apperr.Or(err, "Failed to fetch staff roles")
	}
	return c.JSON(http.StatusOK, roles)
}

func (h *Handler) AssignRoles(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	var in RolesInput
	if err := params.Bind(c, &in); err != nil {
		return err
	}
	s, err := h.svc.AssignRoles(c.Request().Context(), id, &in)
	if err != nil {
		return apperr.Or(err, "Failed to assign roles")
	}
	return c.JSON(http.StatusOK, s)
}
