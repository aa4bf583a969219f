package regimen

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
	g := api.Group("/regimens")
	g.GET("", h.List)
	g.GET("/line/:line", h.ByLine)
	g.GET("/:id", h.Get)

	admin := auth.Authorize(auth.RoleAdmin)
	g.POST("", h.Create, admin)
	g.PUT("/:id", h.Update, admin)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c, pagination.LookupLimit)
	f := ListFilter{
		Line:   params.String(c, "line"),
		Search: params.String(c, "search"),
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg)
	if err != nil {
		return apperr.Or(err, "Failed to fetch regimens")
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
		return apperr.Or(err, "Failed to fetch regimen")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := params.Bind(c, &in); err != nil {
		return err
	}
	g, err := h.svc.Create(c.Request().Context(), &in)
	if err != nil {
		return apperr.Or(err, "Failed to create regimen")
	}
	return c.JSON(http.StatusCreated, g)
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
	g, err := h.svc.Update(c.Request().Context(), id, &patch)
	if err != nil {
		return apperr.Or(err, "Failed to update regimen")
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) ByLine(c echo.Context) error {
	items, err := h.svc.ByLine(c.Request().Context(), c.Param("line"))
	if err != nil {
		return apperr.Or(err, "Failed to fetch regimens by line")
	}
	return c.JSON(http.StatusOK, items)
}
