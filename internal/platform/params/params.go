// Package params parses path and query parameters into typed values.
// Malformed values are reported as apperr.ErrInvalidInput.
package params

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/pkg/nullable"
)

// ID parses a positive integer path parameter.
func ID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("Invalid " + name)
	}
	return id, nil
}

// String returns the trimmed query value.
func String(c echo.Context, key string) string {
	return strings.TrimSpace(c.QueryParam(key))
}

// OptionalID returns nil when key is absent or empty.
func OptionalID(c echo.Context, key string) (*int64, error) {
	raw := String(c, key)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperr.InvalidInput("Invalid " + key)
	}
	return &id, nil
}

// OptionalBool accepts the forms strconv.ParseBool does.
func OptionalBool(c echo.Context, key string) (*bool, error) {
	raw := String(c, key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.InvalidInput("Invalid " + key + ": expected true or false")
	}
	return &b, nil
}

// OptionalDate returns nil when key is absent.
func OptionalDate(c echo.Context, key string) (*time.Time, bool, error) {
	raw := String(c, key)
	if raw == "" {
		return nil, false, nil
	}
	t, dateOnly, err := nullable.ParseDate(raw)
	if err != nil {
		return nil, false, apperr.InvalidInput("Invalid " + key + ": expected YYYY-MM-DD")
	}
	return &t, dateOnly, nil
}

// DateRange is inclusive on both ends; either end may be open.
type DateRange struct {
	From *time.Time
	To   *time.Time
	// ToDateOnly widens To to cover the whole day.
	ToDateOnly bool
}

func (r DateRange) IsZero() bool { return r.From == nil && r.To == nil }

// Upper returns the upper bound and whether it is exclusive.
func (r DateRange) Upper() (time.Time, bool) {
	if r.To == nil {
		return time.Time{}, false
	}
	if r.ToDateOnly {
		return r.To.AddDate(0, 0, 1), true
	}
	return *r.To, false
}

func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if up, exclusive := r.Upper(); r.To != nil {
		if exclusive && !t.Before(up) {
			return false
		}
		if !exclusive && t.After(up) {
			return false
		}
	}
	return true
}

// Dates reads the startDate/endDate pair.
func Dates(c echo.Context) (DateRange, error) {
	return DatesFor(c, "startDate", "endDate")
}

func DatesFor(c echo.Context, startKey, endKey string) (DateRange, error) {
	var r DateRange
	from, _, err := OptionalDate(c, startKey)
	if err != nil {
		return r, err
	}
	to, toDateOnly, err := OptionalDate(c, endKey)
	if err != nil {
		return r, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return r, apperr.InvalidInput(endKey + " must not be before " + startKey)
	}
	return DateRange{From: from, To: to, ToDateOnly: toDateOnly}, nil
}

// Bind decodes the request body, reporting malformed JSON as invalid input.
func Bind(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return apperr.InvalidInput("Invalid request body")
	}
	return nil
}
