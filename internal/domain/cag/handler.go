package cag

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
	g := api.Group("/cag")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/members", h.Members)
	g.GET("/:id/rotations", h.Rotations)
	g.GET("/:id/statistics", h.Statistics)

	membership := auth.Authorize(auth.RoleClinician, auth.RoleAdmin)
	g.POST("/:id/add-member", h.AddMember, membership)
	g.POST("/:id/remove-member", h.RemoveMember, membership)
	g.PUT("/:id/coordinator", h.SetCoordinator, membership)
	g.POST("/:id/rotation", h.RecordRotation, auth.Authorize(auth.RolePharmacy, auth.RoleAdmin))
}

type message struct {
	Message string `json:"message"`
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c, pagination.DefaultLimit)
	f := ListFilter{
		Status:   params.String(c, "status"),
		District: params.String(c, "district"),
		Village:  params.String(c, "village"),
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg)
	if err != nil {
		return apperr.Or(err, "Failed to fetch CAGs")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	g, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Or(err, "Failed to fetch CAG")
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) Members(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	members, err := h.svc.Members(c.Request().Context(), id)
	if err != nil {
		return apperr.Or(err, "Failed to fetch CAG members")
	}
	return c.JSON(http.StatusOK, members)
}

func (h *Handler) Rotations(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c, pagination.DefaultLimit)
	items, total, err := h.svc.Rotations(c.Request().Context(), id, pg)
	if err != nil {
		return apperr.Or(err, "Failed to fetch CAG rotations")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Statistics(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	stats, err := h.svc.Statistics(c.Request().Context(), id)
	if err != nil {
		return apperr.Or(err, "Failed to fetch CAG statistics")
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) AddMember(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	var in AddMemberInput
	if err := params.Bind(c, &in); err != nil {
		return err
	}
	res, err := h.svc.AddMember(c.Request().Context(), id, &in)
	if err != nil {
		return apperr.Or(err, "Failed to add patient to CAG")
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) RemoveMember(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	var in RemoveMemberInput
	if err := params.Bind(c, &in); err != nil {
		return err
	}
	if err := h.svc.RemoveMember(c.Request().Context(), id, &in); err != nil {
		return apperr.Or(err, "Failed to remove patient from CAG")
	}
	return c.JSON(http.StatusOK, message{Message: "Patient removed from CAG successfully"})
}

func (h *Handler) RecordRotation(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	var in RotationInput
	if err := params.Bind(c, &in); err != nil {
		return err
	}
	if err := h.svc.RecordRotation(c.Request().Context(), id, &in); err != nil {
		return apperr.Or(err, "Failed to record CAG rotation")
	}
	return c.JSON(http.StatusOK, message{Message: "CAG rotation recorded successfully"})
}

func (h *Handler) SetCoordinator(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	var in CoordinatorInput
	if err := params.Bind(c, &in); err != nil {
		return err
	}
	res, err := h.svc.SetCoordinator(c.Request().Context(), id, &in)
	if err != nil {
		return apperr.Or(err, "Failed to set CAG coordinator")
	}
	return c.JSON(http.StatusOK, res)
}
