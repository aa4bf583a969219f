package patient

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hivcare/hivcare/internal/platform/apperr"
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
	g := api.Group("/patients")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.GET("/:id/timeline", h.Timeline)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c, pagination.DefaultLimit)
	f := ListFilter{Status: params.String(c, "status"), Search: params.String(c, "search")}
	items, total, err := h.svc.List(c.Request().Context(), f, pg)
	if err != nil {
		return apperr.Or(err, "Failed to fetch patients")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.Detail(c.Request().Context(), id)
	if err != nil {
		return apperr.Or(err, "Failed to fetch patient")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := params.Bind(c, &in); err != nil {
		return err
	}
	p, err := h.svc.Create(c.Request().Context(), &in)
	if err != nil {
		return apperr.Or(err, "Failed to create patient")
	}
	return c.JSON(http.StatusCreated, p)
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
	p, err := h.svc.Update(c.Request().Context(), id, &patch)
	if err != nil {
		return apperr.Or(err, "Failed to update patient")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Timeline(c echo.Context) error {
	id, err := params.ID(c, "id")
	if err != nil {
		return err
	}
	dates, err := params.Dates(c)
	if err != nil {
		return err
	}
	f := TimelineFilter{Dates: dates}
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return apperr.InvalidInput("limit must be an integer")
		}
		f.Limit = n
	}
	events, err := h.svc.Timeline(c.Request().Context(), id, f)
	if err != nil {
		return apperr.Or(err, "Failed to fetch timeline")
	}
	return c.JSON(http.StatusOK, events)
}
