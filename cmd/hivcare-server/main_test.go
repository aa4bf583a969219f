package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/hivcare/hivcare/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		Env:            "test",
		LogLevel:       "info",
		JWTSecret:      "router-test-secret-0123456789abcdef",
		TokenTTL:       time.Hour,
		BcryptCost:     4,
		CORSOrigins:    []string{"http://localhost:3000"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		RequestTimeout: 5 * time.Second,
	}
}

func newTestRouter() *echo.Echo {
	return newRouter(testConfig(), zerolog.Nop(), nil, prometheus.NewRegistry())
}

func serve(e *echo.Echo, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRouter_Health(t *testing.T) {
	e := newTestRouter()
	for _, path := range []string{"/health", "/api/health"} {
		rec := serve(e, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		body := decode(t, rec)
		if body["status"] != "ok" {
			t.Errorf("%s: expected status ok, got %v", path, body["status"])
		}
		if _, ok := body["timestamp"]; !ok {
			t.Errorf("%s: missing timestamp", path)
		}
	}
}

func TestRouter_APIHealthToleratesBadToken(t *testing.T) {
	e := newTestRouter()
	for _, hdr := range []string{"", "Bearer not-a-token", "Basic abc"} {
		var rec *httptest.ResponseRecorder
		if hdr == "" {
			rec = serve(e, http.MethodGet, "/api/health", "")
		} else {
			rec = serve(e, http.MethodGet, "/api/health", "", echo.HeaderAuthorization, hdr)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("%q: expected 200, got %d", hdr, rec.Code)
		}
		if got := decode(t, rec)["authenticated"]; got != false {
			t.Errorf("%q: expected anonymous, got %v", hdr, got)
		}
	}
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	e := newTestRouter()
	for _, path := range []string{"/api/patients", "/api/staff/1", "/api/cag/1/statistics", "/api/auth/me"} {
		rec := serve(e, http.MethodGet, path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
			continue
		}
		if msg, _ := decode(t, rec)["error"].(string); msg == "" {
			t.Errorf("%s: expected error message", path)
		}
	}
}

func TestRouter_InvalidTokenRejected(t *testing.T) {
	e := newTestRouter()
	rec := serve(e, http.MethodGet, "/api/patients", "", echo.HeaderAuthorization, "Bearer not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_LoginIsPublic(t *testing.T) {
	e := newTestRouter()
	rec := serve(e, http.MethodPost, "/api/auth/login", `{"staffCode":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing credentials, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	e := newTestRouter()
	rec := serve(e, http.MethodGet, "/nowhere", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if msg := decode(t, rec)["error"]; msg != "Route not found" {
		t.Errorf("unexpected message %v", msg)
	}
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	e := newTestRouter()
	rec := serve(e, http.MethodGet, "/health", "", echo.HeaderXRequestID, "req-123")
	if got := rec.Header().Get(echo.HeaderXRequestID); got != "req-123" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}

	rec = serve(e, http.MethodGet, "/health", "")
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("expected a generated request id")
	}
}

func TestRouter_Metrics(t *testing.T) {
	e := newTestRouter()
	serve(e, http.MethodGet, "/api/patients", "")

	rec := serve(e, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "hivcare_http_requests_total") {
		t.Error("expected request counter in metrics output")
	}
	if !strings.Contains(body, `route="/api/patients"`) {
		t.Error("expected route template label")
	}
}

func TestNewLogger_Level(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "debug"
	if got := newLogger(cfg).GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("expected debug, got %s", got)
	}

	cfg.LogLevel = "chatty"
	if got := newLogger(cfg).GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("expected info fallback, got %s", got)
	}
}

func TestStaffSetPassword_RequiresStaffID(t *testing.T) {
	cmd := staffCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"set-password", "--password", "secret123"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--staff-id") {
		t.Fatalf("expected staff-id error, got %v", err)
	}
}
