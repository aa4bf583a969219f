package middleware

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/auth"
)

func auditEntries(t *testing.T, out string) []map[string]any {
	t.Helper()
	var entries []map[string]any
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("decode log line %q: %v", sc.Text(), err)
		}
		if m["event"] == "audit" {
			entries = append(entries, m)
		}
	}
	return entries
}

func newAuditServer(buf *strings.Builder) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := &auth.Principal{StaffID: 7, StaffCode: "CLN-007", Active: true, Roles: []string{auth.RoleClinician}}
			c.SetRequest(c.Request().WithContext(auth.WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	})
	e.Use(Audit(zerolog.New(buf)))

	ok := func(c echo.Context) error { return c.JSON(http.StatusOK, map[string]string{}) }
	e.GET("/api/visits", ok)
	e.GET("/api/visits/:id", ok)
	e.PUT("/api/visits/:id", ok)
	e.POST("/api/visits", func(c echo.Context) error { return apperr.InvalidInput("bad visit") })
	e.GET("/api/adherence/patient/:patientId", ok)
	e.GET("/health", ok)
	return e
}

func TestAudit_LogsWritesAndRecordReads(t *testing.T) {
	tests := []struct {
		method, path string
		logged       bool
		status       float64
	}{
		{http.MethodGet, "/api/visits", false, 0},
		{http.MethodGet, "/api/visits/12", true, 200},
		{http.MethodPut, "/api/visits/12", true, 200},
		{http.MethodPost, "/api/visits", true, 400},
		{http.MethodGet, "/api/adherence/patient/4", true, 200},
		{http.MethodGet, "/health", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var buf strings.Builder
			e := newAuditServer(&buf)
			e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			entries := auditEntries(t, buf.String())
			if !tt.logged {
				if len(entries) != 0 {
					t.Errorf("expected no audit entry, got %v", entries)
				}
				return
			}
			if len(entries) != 1 {
				t.Fatalf("expected one audit entry, got %d", len(entries))
			}
			got := entries[0]
			if got["status"] != tt.status {
				t.Errorf("expected status %v, got %v", tt.status, got["status"])
			}
			if got["staff_code"] != "CLN-007" || got["staff_id"] != float64(7) {
				t.Errorf("principal missing from entry: %v", got)
			}
		})
	}
}

func TestAudit_RecordsPathIDs(t *testing.T) {
	var buf strings.Builder
	e := newAuditServer(&buf)
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/adherence/patient/4", nil))

	entries := auditEntries(t, buf.String())
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
	if entries[0]["patientId"] != "4" || entries[0]["route"] != "/api/adherence/patient/:patientId" {
		t.Errorf("unexpected entry %v", entries[0])
	}
}
