package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hivcare/hivcare/internal/domain/staff"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/auth"
)

type fakeAccounts struct {
	staff     map[string]*staff.Staff
	passwords map[string]string
	changed   map[int64]string
}

func newFakeAccounts() *fakeAccounts {
	email := "grace@example.org"
	active := &staff.Staff{StaffID: 7, StaffCode: "NUR-001", Cadre: "Nurse", Active: true,
		Roles: []staff.Role{{RoleID: 2, RoleName: auth.RoleClinician}}}
	active.Person.FirstName, active.Person.LastName, active.Person.Email = "Grace", "Auma", &email
	inactive := &staff.Staff{StaffID: 8, StaffCode: "NUR-002", Cadre: "Nurse"}
	return &fakeAccounts{
		staff:     map[string]*staff.Staff{"NUR-001": active, "NUR-002": inactive},
		passwords: map[string]string{"NUR-001": "s3cret!", "NUR-002": "s3cret!"},
		changed:   map[int64]string{},
	}
}

func (f *fakeAccounts) Authenticate(_ context.Context, code, password string) (*staff.Staff, error) {
	if code == "" || password == "" {
		return nil, apperr.InvalidInput("Staff code and password are required")
	}
	s, ok := f.staff[code]
	if !ok {
		return nil, apperr.Unauthenticated("Invalid staff code or password")
	}
	if !s.Active {
		return nil, apperr.Forbidden("Account is inactive. Contact administrator.", nil)
	}
	if f.passwords[code] != password {
		return nil, apperr.Unauthenticated("Invalid staff code or password")
	}
	return s, nil
}

func (f *fakeAccounts) ChangePassword(_ context.Context, staffID int64, current, next string) error {
	if current != "s3cret!" {
		return apperr.Unauthenticated("Current password is incorrect")
	}
	if len(next) < auth.MinPasswordLength {
		return apperr.InvalidInput("New password must be at least 6 characters long")
	}
	f.changed[staffID] = next
	return nil
}

func (f *fakeAccounts) Get(_ context.Context, id int64) (*staff.Staff, error) {
	for _, s := range f.staff {
		if s.StaffID == id {
			return s, nil
		}
	}
	return nil, apperr.NotFound("Staff not found")
}

func (f *fakeAccounts) AllRoles(context.Context) ([]staff.Role, error) {
	return []staff.Role{{RoleID: 1, RoleName: auth.RoleAdmin}, {RoleID: 2, RoleName: auth.RoleClinician}}, nil
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer() (*echo.Echo, *fakeAccounts, *auth.TokenManager) {
	accounts := newFakeAccounts()
	tokens := auth.NewTokenManager(testSecret, 0)
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		c.JSON(apperr.Status(err), map[string]string{"error": err.Error()})
	}
	NewHandler(accounts, tokens).RegisterRoutes(e.Group("/api"))
	return e, accounts, tokens
}

func do(e *echo.Echo, method, path, body string, p *auth.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLogin_IssuesToken(t *testing.T) {
	e, _, tokens := newTestServer()
	rec := do(e, http.MethodPost, "/api/auth/login", `{"staffCode":"NUR-001","password":"s3cret!"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Staff.Name != "Grace Auma" || len(resp.Staff.Roles) != 1 || resp.Staff.Roles[0] != auth.RoleClinician {
		t.Errorf("unexpected summary: %+v", resp.Staff)
	}
	claims, err := tokens.Parse(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.StaffID != 7 || claims.StaffCode != "NUR-001" || claims.Cadre != "Nurse" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLogin_Failures(t *testing.T) {
	e, _, _ := newTestServer()
	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown code", `{"staffCode":"NUR-404","password":"s3cret!"}`, http.StatusUnauthorized},
		{"wrong password", `{"staffCode":"NUR-001","password":"password123"}`, http.StatusUnauthorized},
		{"inactive", `{"staffCode":"NUR-002","password":"s3cret!"}`, http.StatusForbidden},
		{"missing password", `{"staffCode":"NUR-001"}`, http.StatusBadRequest},
		{"malformed", `{"staffCode":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/auth/login", tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if strings.Contains(rec.Body.String(), "token") {
				t.Error("failed login returned a token")
			}
		})
	}
}

func TestMe(t *testing.T) {
	e, _, _ := newTestServer()
	rec := do(e, http.MethodGet, "/api/auth/me", "", &auth.Principal{StaffID: 7, Active: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var p Profile
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Email == nil || *p.Email != "grace@example.org" || p.Roles[0] != auth.RoleClinician {
		t.Errorf("unexpected profile: %s", rec.Body.String())
	}

	if rec := do(e, http.MethodGet, "/api/auth/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", rec.Code)
	}
}

func TestChangePassword(t *testing.T) {
	e, accounts, _ := newTestServer()
	p := &auth.Principal{StaffID: 7, Active: true}

	if rec := do(e, http.MethodPost, "/api/auth/change-password", `{"currentPassword":"nope","newPassword":"another1"}`, p); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong current: expected 401, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/auth/change-password", `{"currentPassword":"s3cret!","newPassword":"abc"}`, p); rec.Code != http.StatusBadRequest {
		t.Errorf("short: expected 400, got %d", rec.Code)
	}
	rec := do(e, http.MethodPost, "/api/auth/change-password", `{"currentPassword":"s3cret!","newPassword":"another1"}`, p)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if accounts.changed[7] != "another1" {
		t.Error("password not changed")
	}
}

func TestRolesAndLogout(t *testing.T) {
	e, _, _ := newTestServer()
	p := &auth.Principal{StaffID: 7, Active: true}

	rec := do(e, http.MethodGet, "/api/auth/roles", "", p)
	var roles []staff.Role
	json.Unmarshal(rec.Body.Bytes(), &roles)
	if len(roles) != 2 {
		t.Errorf("expected 2 roles, got %s", rec.Body.String())
	}

	if rec := do(e, http.MethodPost, "/api/auth/logout", "", p); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
