// Package session serves login and the authenticated account endpoints.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hivcare/hivcare/internal/domain/staff"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/auth"
	"github.com/hivcare/hivcare/internal/platform/params"
)

// Accounts is the part of the staff service sessions rely on.
type Accounts interface {
	Authenticate(ctx context.Context, staffCode, password string) (*staff.Staff, error)
	ChangePassword(ctx context.Context, staffID int64, current, next string) error
	Get(ctx context.Context, id int64) (*staff.Staff, error)
	AllRoles(ctx context.Context) ([]staff.Role, error)
}

type Handler struct {
	accounts Accounts
	tokens   *auth.TokenManager
}

func NewHandler(accounts Accounts, tokens *auth.TokenManager) *Handler {
	return &Handler{accounts: accounts, tokens: tokens}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/auth")
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me)
	g.POST("/change-password", h.ChangePassword)
	g.GET("/roles", h.Roles)
}

type loginRequest struct {
	StaffCode string `json:"staffCode"`
	Password  string `json:"password"`
}

type Summary struct {
	StaffID   int64    `json:"staffId"`
	StaffCode string   `json:"staffCode"`
	Name      string   `json:"name"`
	Cadre     string   `json:"cadre"`
	Roles     []string `json:"roles"`
}

type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Staff     Summary   `json:"staff"`
}

type Profile struct {
	StaffID           int64    `json:"staffId"`
	StaffCode         string   `json:"staffCode"`
	Name              string   `json:"name"`
	Email             *string  `json:"email"`
	Phone             *string  `json:"phone"`
	Cadre             string   `json:"cadre"`
	MOHRegistrationNo *string  `json:"mohRegistrationNo"`
	Active            bool     `json:"active"`
	Roles             []string `json:"roles"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type message struct {
	Message string `json:"message"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	s, err := h.accounts.Authenticate(ctx, req.StaffCode, req.Password)
	if err != nil {
		return apperr.Or(err, "Login failed. Please try again.")
	}

	p := s.Principal()
	token, expiresAt, err := h.tokens.Issue(p)
	if err != nil {
		return apperr.Internal("Login failed. Please try again.", err)
	}
	zerolog.Ctx(ctx).Info().Int64("staff_id", s.StaffID).Msg("staff logged in")

	return c.JSON(http.StatusOK, LoginResponse{
		Message:   "Login successful",
		Token:     token,
		ExpiresAt: expiresAt,
		Staff: Summary{
			StaffID:   p.StaffID,
			StaffCode: p.StaffCode,
			Name:      p.Name,
			Cadre:     p.Cadre,
			Roles:     p.Roles,
		},
	})
}

// Logout is acknowledged only; tokens stay valid until they expire.
func (h *Handler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, message{Message: "Logout successful"})
}

func principal(c echo.Context) (*auth.Principal, error) {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return nil, apperr.Unauthenticated("Access token required")
	}
	return p, nil
}

func (h *Handler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	s, err := h.accounts.Get(c.Request().Context(), p.StaffID)
	if err != nil {
		return apperr.Or(err, "Failed to get user information")
	}
	return c.JSON(http.StatusOK, Profile{
		StaffID:           s.StaffID,
		StaffCode:         s.StaffCode,
		Name:              s.Person.FirstName + " " + s.Person.LastName,
		Email:             s.Person.Email,
		Phone:             s.Person.PhoneNumber,
		Cadre:             s.Cadre,
		MOHRegistrationNo: s.MOHRegistrationNo,
		Active:            s.Active,
		Roles:             s.RoleNames(),
	})
}

func (h *Handler) ChangePassword(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := params.Bind(c, &req); err != nil {
		return err
	}
	if err := h.accounts.ChangePassword(c.Request().Context(), p.StaffID, req.CurrentPassword, req.NewPassword); err != nil {
		return apperr.Or(err, "Failed to change password")
	}
	return c.JSON(http.StatusOK, message{Message: "Password changed successfully"})
}

func (h *Handler) Roles(c echo.Context) error {
	roles, err := h.accounts.AllRoles(c.Request().Context())
	if err != nil {
		return apperr.Or(err, "Failed to get roles")
	}
	return c.JSON(http.StatusOK, roles)
}
