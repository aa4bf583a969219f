package params

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hivcare/hivcare/internal/platform/apperr"
)

func ctx(target string) echo.Context {
	e := echo.New()
	return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
}

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestID(t *testing.T) {
	c := ctx("/")
	c.SetParamNames("id")

	for raw, ok := range map[string]bool{"12": true, "0": false, "-3": false, "abc": false, "": false} {
		c.SetParamValues(raw)
		id, err := ID(c, "id")
		if ok && (err != nil || id != 12) {
			t.Errorf("%q: expected 12, got %d %v", raw, id, err)
		}
		if !ok && !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("%q: expected invalid input, got %v", raw, err)
		}
	}
}

func TestOptionalID(t *testing.T) {
	id, err := OptionalID(ctx("/?patientId=7"), "patientId")
	if err != nil || id == nil || *id != 7 {
		t.Fatalf("expected 7, got %v %v", id, err)
	}
	if id, err := OptionalID(ctx("/"), "patientId"); id != nil || err != nil {
		t.Fatalf("expected nil, got %v %v", id, err)
	}
	if _, err := OptionalID(ctx("/?patientId=seven"), "patientId"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestOptionalBool(t *testing.T) {
	b, err := OptionalBool(ctx("/?isResolved=false"), "isResolved")
	if err != nil || b == nil || *b {
		t.Fatalf("expected false, got %v %v", b, err)
	}
	if _, err := OptionalBool(ctx("/?isResolved=maybe"), "isResolved"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDates(t *testing.T) {
	r, err := Dates(ctx("/?startDate=2024-01-15&endDate=2024-02-15"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tc := range []struct {
		day  string
		want bool
	}{
		{"2024-01-01", false},
		{"2024-01-15", true},
		{"2024-02-01", true},
		{"2024-02-15", true},
		{"2024-02-16", false},
		{"2024-03-01", false},
	} {
		if got := r.Contains(date(tc.day)); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.day, got, tc.want)
		}
	}
	// Late on the end date still counts.
	if !r.Contains(date("2024-02-15").Add(23 * time.Hour)) {
		t.Error("expected end date to be inclusive for the whole day")
	}
}

func TestDates_OpenEnded(t *testing.T) {
	r, err := Dates(ctx("/?startDate=2024-02-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.To != nil || !r.Contains(date("2030-01-01")) || r.Contains(date("2024-01-31")) {
		t.Errorf("unexpected open range behaviour: %+v", r)
	}
	if r, _ := Dates(ctx("/")); !r.IsZero() {
		t.Error("expected zero range")
	}
}

func TestDates_Invalid(t *testing.T) {
	for _, target := range []string{"/?startDate=15-01-2024", "/?endDate=tomorrow", "/?startDate=2024-02-01&endDate=2024-01-01"} {
		if _, err := Dates(ctx(target)); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("%s: expected invalid input, got %v", target, err)
		}
	}
}

func TestBind(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"notes":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var dst struct {
		Notes string `json:"notes"`
	}
	if err := Bind(c, &dst); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
