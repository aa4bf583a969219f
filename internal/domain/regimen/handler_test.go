package regimen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hivcare/hivcare/internal/domain/pharmacy"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/auth"
	"github.com/hivcare/hivcare/pkg/pagination"
)

type mockRepo struct {
	mu       sync.Mutex
	regimens map[int64]*Regimen
	nextID   int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{regimens: make(map[int64]*Regimen), nextID: 1}
}

func (m *mockRepo) Create(_ context.Context, in *CreateInput) (*Regimen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.regimens {
		if g.RegimenCode == in.RegimenCode {
			return nil, apperr.Conflict("Regimen code already exists")
		}
	}
	g := &Regimen{RegimenID: m.nextID, RegimenCode: in.RegimenCode, RegimenName: in.RegimenName,
		Line: in.Line, Description: in.Description}
	m.regimens[g.RegimenID] = g
	m.nextID++
	cp := *g
	return &cp, nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Regimen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.regimens[id]
	if !ok {
		return nil, apperr.NotFound("Regimen not found")
	}
	cp := *g
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, p *Patch) (*Regimen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.regimens[id]
	if !ok {
		return nil, apperr.NotFound("Regimen not found")
	}
	if p.RegimenName.Valid() {
		g.RegimenName = p.RegimenName.Value
	}
	if p.Description.Set {
		g.Description = p.Description.Ptr()
	}
	cp := *g
	return &cp, nil
}

func (m *mockRepo) filter(keep func(*Regimen) bool) []*Regimen {
	out := []*Regimen{}
	for _, g := range m.regimens {
		if keep(g) {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegimenName < out[j].RegimenName })
	return out
}

func (m *mockRepo) List(_ context.Context, f ListFilter, pg pagination.Params) ([]*Regimen, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.filter(func(g *Regimen) bool {
		return (f.Line == "" || g.Line == f.Line) &&
			(f.Search == "" || strings.Contains(strings.ToLower(g.RegimenCode+" "+g.RegimenName), strings.ToLower(f.Search)))
	})
	total := len(all)
	if pg.Offset >= total {
		return []*Regimen{}, total, nil
	}
	return all[pg.Offset:min(pg.Offset+pg.Limit, total)], total, nil
}

func (m *mockRepo) ListByLine(_ context.Context, line string) ([]*Regimen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(g *Regimen) bool { return g.Line == line }), nil
}

type fakeDispenses struct {
	limit int
}

func (f *fakeDispenses) RecentForRegimen(_ context.Context, regimenID int64, limit int) ([]*pharmacy.Dispense, error) {
	f.limit = limit
	if regimenID != 1 {
		return nil, nil
	}
	return []*pharmacy.Dispense{{DispenseID: 30, RegimenID: 1}, {DispenseID: 29, RegimenID: 1}}, nil
}

func newTestServer() (*echo.Echo, *mockRepo, *fakeDispenses) {
	repo := newMockRepo()
	dispenses := &fakeDispenses{}
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		c.JSON(apperr.Status(err), map[string]string{"error": err.Error()})
	}
	NewHandler(NewService(repo, dispenses)).RegisterRoutes(e.Group("/api"))
	return e, repo, dispenses
}

func do(e *echo.Echo, method, path, body string, roles ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{StaffID: 1, Active: true, Roles: roles}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreate(t *testing.T) {
	e, _, _ := newTestServer()
	body := `{"regimenCode":"TDF/3TC/DTG","regimenName":"Tenofovir/Lamivudine/Dolutegravir","line":"First"}`

	if rec := do(e, http.MethodPost, "/api/regimens", body, auth.RolePharmacy); rec.Code != http.StatusForbidden {
		t.Errorf("pharmacy: expected 403, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/regimens", body, auth.RoleAdmin); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec := do(e, http.MethodPost, "/api/regimens", body, auth.RoleAdmin)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate: expected 400, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/regimens", `{"regimenCode":"X","line":"First"}`, auth.RoleAdmin); rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: expected 400, got %d", rec.Code)
	}
}

func TestList_DefaultLookupLimit(t *testing.T) {
	e, repo, _ := newTestServer()
	for i := 0; i < 60; i++ {
		line := "First"
		if i%3 == 0 {
			line = "Second"
		}
		repo.Create(context.Background(), &CreateInput{RegimenCode: fmt.Sprintf("R%02d", i), RegimenName: fmt.Sprintf("Regimen %02d", i), Line: line})
	}

	rec := do(e, http.MethodGet, "/api/regimens", "")
	var page pagination.Response[Regimen]
	json.Unmarshal(rec.Body.Bytes(), &page)
	if page.Pagination.Limit != pagination.LookupLimit || len(page.Data) != 50 || page.Pagination.Pages != 2 {
		t.Errorf("unexpected pagination: %+v (%d items)", page.Pagination, len(page.Data))
	}
	if page.Data[0].RegimenName != "Regimen 00" {
		t.Errorf("expected name order, got %q first", page.Data[0].RegimenName)
	}

	rec = do(e, http.MethodGet, "/api/regimens?line=Second&search=regimen%200", "")
	json.Unmarshal(rec.Body.Bytes(), &page)
	if page.Pagination.Total != 4 {
		t.Errorf("expected 4 second-line matches, got %d", page.Pagination.Total)
	}

	rec = do(e, http.MethodGet, "/api/regimens/line/Second", "")
	var byLine []Regimen
	json.Unmarshal(rec.Body.Bytes(), &byLine)
	if len(byLine) != 20 {
		t.Errorf("expected 20 second-line regimens, got %d", len(byLine))
	}
}

func TestDetail_IncludesRecentDispenses(t *testing.T) {
	e, repo, dispenses := newTestServer()
	repo.Create(context.Background(), &CreateInput{RegimenCode: "A", RegimenName: "Alpha", Line: "First"})
	repo.Create(context.Background(), &CreateInput{RegimenCode: "B", RegimenName: "Beta", Line: "First"})

	rec := do(e, http.MethodGet, "/api/regimens/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["regimenCode"] != "A" {
		t.Errorf("regimen fields should be flattened: %s", rec.Body.String())
	}
	if list, _ := body["dispenses"].([]any); len(list) != 2 {
		t.Errorf("expected 2 dispenses, got %s", rec.Body.String())
	}
	if dispenses.limit != recentDispenseLimit {
		t.Errorf("expected limit %d, got %d", recentDispenseLimit, dispenses.limit)
	}

	rec = do(e, http.MethodGet, "/api/regimens/2", "")
	if !strings.Contains(rec.Body.String(), `"dispenses":[]`) {
		t.Errorf("expected empty dispenses array, got %s", rec.Body.String())
	}

	if rec := do(e, http.MethodGet, "/api/regimens/9", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpdate(t *testing.T) {
	e, repo, _ := newTestServer()
	repo.Create(context.Background(), &CreateInput{RegimenCode: "A", RegimenName: "Alpha", Line: "First"})

	rec := do(e, http.MethodPut, "/api/regimens/1", `{"description":"Preferred adult regimen"}`, auth.RoleAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if g := repo.regimens[1]; g.RegimenName != "Alpha" || g.Description == nil {
		t.Errorf("unexpected regimen: %+v", g)
	}
	if rec := do(e, http.MethodPut, "/api/regimens/1", `{"line":null}`, auth.RoleAdmin); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPut, "/api/regimens/5", `{"regimenName":"Zeta"}`, auth.RoleAdmin); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
