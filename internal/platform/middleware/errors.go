package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hivcare/hivcare/internal/platform/apperr"
)

// StatusOf returns the HTTP status err will be rendered with.
func StatusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return apperr.Status(err)
}

func body(err error) (int, map[string]any) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		b := make(map[string]any, len(ae.Details)+1)
		for k, v := range ae.Details {
			b[k] = v
		}
		b["error"] = ae.Message
		return apperr.Status(err), b
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		switch {
		case he.Code == http.StatusNotFound:
			msg = "Route not found"
		case he.Code < 500:
			if s, ok := he.Message.(string); ok {
				msg = s
			} else if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		return he.Code, map[string]any{"error": msg}
	}

	return http.StatusInternalServerError, map[string]any{"error": "Internal server error"}
}

// ErrorHandler renders every error as {"error": message, ...details}. Causes
// of 5xx responses are logged and never sent to the client.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, b := body(err)
		if status >= 500 {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("route", c.Path()).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, b)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
