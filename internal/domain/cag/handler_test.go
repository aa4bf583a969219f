package cag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hivcare/hivcare/internal/domain/person"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/auth"
	"github.com/hivcare/hivcare/pkg/pagination"
)

// mockRepo applies the membership rules the stored procedures enforce.
type mockRepo struct {
	mu        sync.Mutex
	cags      map[int64]*CAG
	members   map[int64][]*Member
	rotations map[int64][]*Rotation
	nextID    int64
}

func newMockRepo() *mockRepo {
	village := "Kisenyi"
	return &mockRepo{
		cags: map[int64]*CAG{
			1: {CAGID: 1, CAGName: "Kisenyi Group", Status: "Active", MaxMembers: 2, Village: &village},
			2: {CAGID: 2, CAGName: "Bwaise Group", Status: "Inactive", MaxMembers: 6},
		},
		members:   map[int64][]*Member{},
		rotations: map[int64][]*Rotation{},
		nextID:    1,
	}
}

func (m *mockRepo) find(id int64) (*CAG, error) {
	g, ok := m.cags[id]
	if !ok {
		return nil, apperr.NotFound("CAG not found")
	}
	return g, nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*CAG, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.find(id)
	if err != nil {
		return nil, err
	}
	cp := *g
	cp.CurrentMemberCount = len(m.members[id])
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter, pg pagination.Params) ([]*CAG, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*CAG
	for _, g := range m.cags {
		if f.Status != "" && g.Status != f.Status {
			continue
		}
		if f.Village != "" && (g.Village == nil || *g.Village != f.Village) {
			continue
		}
		cp := *g
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CAGName < all[j].CAGName })
	total := len(all)
	if pg.Offset >= total {
		return []*CAG{}, total, nil
	}
	return all[pg.Offset:min(pg.Offset+pg.Limit, total)], total, nil
}

func (m *mockRepo) Members(_ context.Context, cagID int64) ([]*Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.find(cagID); err != nil {
		return nil, err
	}
	return append([]*Member{}, m.members[cagID]...), nil
}

func (m *mockRepo) Rotations(_ context.Context, cagID int64, pg pagination.Params) ([]*Rotation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.find(cagID); err != nil {
		return nil, 0, err
	}
	all := m.rotations[cagID]
	total := len(all)
	if pg.Offset >= total {
		return []*Rotation{}, total, nil
	}
	return all[pg.Offset:min(pg.Offset+pg.Limit, total)], total, nil
}

func (m *mockRepo) Statistics(_ context.Context, cagID int64) (*Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.find(cagID); err != nil {
		return nil, err
	}
	return &Statistics{CAGID: cagID, ActiveMembers: len(m.members[cagID]), TotalRotations: len(m.rotations[cagID])}, nil
}

func (m *mockRepo) AddMember(_ context.Context, cagID int64, in *AddMemberInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.find(cagID)
	if err != nil {
		return err
	}
	if len(m.members[cagID]) >= g.MaxMembers {
		return apperr.InvalidInput("CAG has reached its maximum number of members")
	}
	for _, list := range m.members {
		for _, mem := range list {
			if mem.PatientID == in.PatientID {
				return apperr.InvalidInput("Patient is already an active member of a CAG")
			}
		}
	}
	m.members[cagID] = append(m.members[cagID], &Member{PatientCAGID: m.nextID, PatientID: in.PatientID, RoleInCAG: in.RoleInCAG})
	m.nextID++
	return nil
}

func (m *mockRepo) RemoveMember(_ context.Context, cagID int64, in *RemoveMemberInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.find(cagID); err != nil {
		return err
	}
	list := m.members[cagID]
	for i, mem := range list {
		if mem.PatientID == in.PatientID {
			m.members[cagID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return apperr.InvalidInput("Patient is not an active member of this CAG")
}

func (m *mockRepo) RecordRotation(_ context.Context, cagID int64, in *RotationInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.find(cagID); err != nil {
		return err
	}
	rt := &Rotation{RotationID: m.nextID, RotationDate: in.RotationDate.Time,
		PickupPatient: person.PatientRef{PatientID: in.PickupPatientID}, PatientsServed: in.PatientsServed}
	m.nextID++
	m.rotations[cagID] = append([]*Rotation{rt}, m.rotations[cagID]...)
	return nil
}

func (m *mockRepo) SetCoordinator(_ context.Context, cagID, patientID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.find(cagID)
	if err != nil {
		return err
	}
	for _, mem := range m.members[cagID] {
		if mem.PatientID == patientID {
			g.CoordinatorPatientID = &patientID
			return nil
		}
	}
	return apperr.InvalidInput("Coordinator must be an active member of the CAG")
}

func newTestServer() (*echo.Echo, *mockRepo) {
	repo := newMockRepo()
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		c.JSON(apperr.Status(err), map[string]string{"error": err.Error()})
	}
	NewHandler(NewService(repo)).RegisterRoutes(e.Group("/api"))
	return e, repo
}

func do(e *echo.Echo, method, path, body string, roles ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{StaffID: 1, Active: true, Roles: roles}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAddMember(t *testing.T) {
	e, _ := newTestServer()

	if rec := do(e, http.MethodPost, "/api/cag/1/add-member", `{"patientId":5}`, auth.RolePharmacy); rec.Code != http.StatusForbidden {
		t.Errorf("pharmacy: expected 403, got %d", rec.Code)
	}

	rec := do(e, http.MethodPost, "/api/cag/1/add-member", `{"patientId":5}`, auth.RoleClinician)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res MembersResult
	json.Unmarshal(rec.Body.Bytes(), &res)
	if len(res.Members) != 1 || res.Members[0].RoleInCAG != defaultMemberRole {
		t.Errorf("unexpected members: %s", rec.Body.String())
	}

	tests := []struct {
		name, path, body string
		want             int
	}{
		{"already a member", "/api/cag/2/add-member", `{"patientId":5}`, http.StatusBadRequest},
		{"missing patient", "/api/cag/1/add-member", `{}`, http.StatusBadRequest},
		{"unknown group", "/api/cag/9/add-member", `{"patientId":6}`, http.StatusNotFound},
		{"bad id", "/api/cag/x/add-member", `{"patientId":6}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(e, http.MethodPost, tt.path, tt.body, auth.RoleAdmin); rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}

	do(e, http.MethodPost, "/api/cag/1/add-member", `{"patientId":6}`, auth.RoleAdmin)
	if rec := do(e, http.MethodPost, "/api/cag/1/add-member", `{"patientId":7}`, auth.RoleAdmin); rec.Code != http.StatusBadRequest {
		t.Errorf("full group: expected 400, got %d", rec.Code)
	}
}

func TestRemoveMemberAndCoordinator(t *testing.T) {
	e, repo := newTestServer()
	do(e, http.MethodPost, "/api/cag/1/add-member", `{"patientId":5}`, auth.RoleClinician)

	if rec := do(e, http.MethodPut, "/api/cag/1/coordinator", `{"patientId":6}`, auth.RoleClinician); rec.Code != http.StatusBadRequest {
		t.Errorf("non-member coordinator: expected 400, got %d", rec.Code)
	}
	rec := do(e, http.MethodPut, "/api/cag/1/coordinator", `{"patientId":5}`, auth.RoleClinician)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res CoordinatorResult
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.CAG == nil || res.CAG.CoordinatorPatientID == nil || *res.CAG.CoordinatorPatientID != 5 {
		t.Errorf("unexpected coordinator result: %s", rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/api/cag/1/remove-member", `{"patientId":5,"exitReason":"Transferred"}`, auth.RoleAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(repo.members[1]) != 0 {
		t.Error("member not removed")
	}
}

func TestRotations(t *testing.T) {
	e, _ := newTestServer()
	if rec := do(e, http.MethodPost, "/api/cag/1/rotation", `{"pickupPatientId":5,"rotationDate":"2024-03-01"}`, auth.RoleClinician); rec.Code != http.StatusForbidden {
		t.Errorf("clinician: expected 403, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/cag/1/rotation", `{"pickupPatientId":5}`, auth.RolePharmacy); rec.Code != http.StatusBadRequest {
		t.Errorf("missing date: expected 400, got %d", rec.Code)
	}
	for _, d := range []string{"2024-01-01", "2024-02-01", "2024-03-01"} {
		rec := do(e, http.MethodPost, "/api/cag/1/rotation", `{"pickupPatientId":5,"rotationDate":"`+d+`","patientsServed":4}`, auth.RolePharmacy)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := do(e, http.MethodGet, "/api/cag/1/rotations?limit=2", "")
	var page pagination.Response[Rotation]
	json.Unmarshal(rec.Body.Bytes(), &page)
	if page.Pagination.Total != 3 || page.Pagination.Pages != 2 || len(page.Data) != 2 {
		t.Fatalf("unexpected page: %s", rec.Body.String())
	}
	if !page.Data[0].RotationDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected newest rotation first, got %v", page.Data[0].RotationDate)
	}

	rec = do(e, http.MethodGet, "/api/cag/1/statistics", "")
	var stats Statistics
	json.Unmarshal(rec.Body.Bytes(), &stats)
	if stats.TotalRotations != 3 {
		t.Errorf("expected 3 rotations, got %d", stats.TotalRotations)
	}

	if rec := do(e, http.MethodGet, "/api/cag/4/rotations", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestListAndGet(t *testing.T) {
	e, _ := newTestServer()
	rec := do(e, http.MethodGet, "/api/cag?status=Active&village=Kisenyi", "")
	var page pagination.Response[CAG]
	json.Unmarshal(rec.Body.Bytes(), &page)
	if page.Pagination.Total != 1 || page.Data[0].CAGID != 1 {
		t.Errorf("unexpected list: %s", rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/api/cag", "")
	json.Unmarshal(rec.Body.Bytes(), &page)
	if page.Pagination.Total != 2 || page.Data[0].CAGName != "Bwaise Group" {
		t.Errorf("expected name order, got %s", rec.Body.String())
	}

	if rec := do(e, http.MethodGet, "/api/cag/3", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/cag/3/statistics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
