package labtest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/auth"
	"github.com/hivcare/hivcare/pkg/pagination"
)

type mockRepo struct {
	mu     sync.Mutex
	tests  map[int64]*LabTest
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{tests: make(map[int64]*LabTest), nextID: 1}
}

func (m *mockRepo) Create(_ context.Context, in *CreateInput) (*LabTest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := &LabTest{
		LabTestID:     m.nextID,
		PatientID:     in.PatientID,
		OrderedBy:     in.OrderedBy,
		TestType:      in.TestType,
		TestDate:      in.TestDate.Time,
		ResultNumeric: in.ResultNumeric,
		ResultUnit:    in.ResultUnit,
		Status:        in.Status,
		Notes:         in.Notes,
	}
	m.tests[l.LabTestID] = l
	m.nextID++
	return l, nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*LabTest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.tests[id]
	if !ok {
		return nil, apperr.NotFound("Lab test not found")
	}
	cp := *l
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, p *Patch) (*LabTest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.tests[id]
	if !ok {
		return nil, apperr.NotFound("Lab test not found")
	}
	if p.ResultNumeric.Set {
		l.ResultNumeric = p.ResultNumeric.Ptr()
	}
	if p.Status.Valid() {
		l.Status = p.Status.Value
	}
	if p.Notes.Set {
		l.Notes = p.Notes.Ptr()
	}
	cp := *l
	return &cp, nil
}

func (m *mockRepo) matching(keep func(*LabTest) bool) []*LabTest {
	var out []*LabTest
	for _, l := range m.tests {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestDate.After(out[j].TestDate) })
	return out
}

func (m *mockRepo) List(_ context.Context, f ListFilter, pg pagination.Params) ([]*LabTest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(func(l *LabTest) bool {
		return (f.PatientID == nil || l.PatientID == *f.PatientID) &&
			(f.TestType == "" || l.TestType == f.TestType) &&
			(f.Status == "" || l.Status == f.Status) &&
			f.Dates.Contains(l.TestDate)
	})
	total := len(all)
	if pg.Offset >= total {
		return []*LabTest{}, total, nil
	}
	return all[pg.Offset:min(pg.Offset+pg.Limit, total)], total, nil
}

func (m *mockRepo) ViralLoadHistory(_ context.Context, patientID int64) ([]*LabTest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.matching(func(l *LabTest) bool {
		return l.PatientID == patientID && l.TestType == TestTypeViralLoad && l.Status == StatusCompleted
	})
	if out == nil {
		out = []*LabTest{}
	}
	return out, nil
}

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	repo := newMockRepo()
	return NewHandler(NewService(repo)), repo, echo.New()
}

func seed(t *testing.T, h *Handler, patientID int64, testType, date, status string) *LabTest {
	t.Helper()
	in := &CreateInput{PatientID: patientID, TestType: testType, Status: status}
	in.TestDate.Time, _ = time.Parse("2006-01-02", date)
	l, err := h.svc.Create(context.Background(), 0, in)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return l
}

func TestHandler_Create_DefaultsPendingAndOrderer(t *testing.T) {
	h, repo, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"patientId":4,"testType":"CD4","testDate":"2024-02-01"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{StaffID: 11, Active: true}))
	rec := httptest.NewRecorder()
	if err := h.Create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	l := repo.tests[1]
	if l.Status != StatusPending {
		t.Errorf("expected Pending, got %q", l.Status)
	}
	if l.OrderedBy == nil || *l.OrderedBy != 11 {
		t.Errorf("expected ordering staff 11, got %v", l.OrderedBy)
	}
}

func TestHandler_Create_Invalid(t *testing.T) {
	h, _, e := newTestHandler()
	for _, body := range []string{
		`{"testType":"CD4","testDate":"2024-02-01"}`,
		`{"patientId":1,"testDate":"2024-02-01"}`,
		`{"patientId":1,"testType":"CD4"}`,
		`{"patientId":1,"testType":"CD4","testDate":"2024-02-01","status":"Lost"}`,
		`{"patientId":1,"testType":"CD4","testDate":"not-a-date"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		if err := h.Create(e.NewContext(req, httptest.NewRecorder())); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("%s: expected invalid input, got %v", body, err)
		}
	}
}

func TestHandler_List_Filters(t *testing.T) {
	h, _, e := newTestHandler()
	seed(t, h, 1, "CD4", "2024-01-10", StatusCompleted)
	seed(t, h, 1, TestTypeViralLoad, "2024-02-01", StatusPending)
	seed(t, h, 2, TestTypeViralLoad, "2024-02-03", StatusCompleted)

	cases := map[string]int{
		"":                               3,
		"patientId=1":                    2,
		"testType=ViralLoad":             2,
		"status=Completed":               2,
		"startDate=2024-01-15":           2,
		"testType=ViralLoad&patientId=2": 1,
	}
	for q, want := range cases {
		rec := httptest.NewRecorder()
		if err := h.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/?"+q, nil), rec)); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
		var body pagination.Response[LabTest]
		json.Unmarshal(rec.Body.Bytes(), &body)
		if body.Pagination.Total != want || len(body.Data) != want {
			t.Errorf("%q: expected %d, got %d", q, want, body.Pagination.Total)
		}
	}
}

func TestHandler_Update_RecordsResult(t *testing.T) {
	h, repo, e := newTestHandler()
	seed(t, h, 1, TestTypeViralLoad, "2024-02-01", StatusPending)

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"resultNumeric":40,"status":"Completed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.Update(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l := repo.tests[1]
	if l.Status != StatusCompleted || l.ResultNumeric == nil || *l.ResultNumeric != 40 {
		t.Errorf("result not recorded: %+v", l)
	}
	if l.TestType != TestTypeViralLoad {
		t.Errorf("testType changed to %q", l.TestType)
	}
}

func TestHandler_Update_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"notes":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("5")
	if err := h.Update(c); apperr.Status(err) != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_ViralLoadHistory(t *testing.T) {
	h, _, e := newTestHandler()
	seed(t, h, 1, TestTypeViralLoad, "2023-08-01", StatusCompleted)
	seed(t, h, 1, TestTypeViralLoad, "2024-02-01", StatusCompleted)
	seed(t, h, 1, TestTypeViralLoad, "2024-03-01", StatusPending)
	seed(t, h, 1, "CD4", "2024-02-01", StatusCompleted)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("patientId")
	c.SetParamValues("1")
	if err := h.ViralLoadHistory(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []LabTest
	json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if !got[0].TestDate.After(got[1].TestDate) {
		t.Error("expected newest first")
	}
}
