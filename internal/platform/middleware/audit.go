package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hivcare/hivcare/internal/platform/auth"
)

// Audit records who touched which patient-related record. Reads of single
// records and all writes are logged; list reads are not.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			req := c.Request()
			if !strings.HasPrefix(c.Path(), "/api/") || !auditable(req.Method, c) {
				return err
			}

			status := c.Response().Status
			if err != nil {
				status = StatusOf(err)
			}

			evt := logger.Info().
				Str("event", "audit").
				Str("method", req.Method).
				Str("route", c.Path()).
				Int("status", status)
			if rid, ok := c.Get("request_id").(string); ok {
				evt = evt.Str("request_id", rid)
			}
			if p := auth.PrincipalFromContext(req.Context()); p != nil {
				evt = evt.Int64("staff_id", p.StaffID).Str("staff_code", p.StaffCode)
			}
			for _, name := range []string{"id", "patientId"} {
				if v := c.Param(name); v != "" {
					evt = evt.Str(name, v)
				}
			}
			evt.Msg("access")
			return err
		}
	}
}

func auditable(method string, c echo.Context) bool {
	if method != http.MethodGet {
		return true
	}
	return c.Param("id") != "" || c.Param("patientId") != ""
}
