package staff

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/pkg/pagination"
)

var testRoles = map[int]Role{
	1: {RoleID: 1, RoleName: "admin"},
	2: {RoleID: 2, RoleName: "clinician"},
	3: {RoleID: 3, RoleName: "counselor"},
	4: {RoleID: 4, RoleName: "pharmacy"},
}

type mockRepo struct {
	mu     sync.Mutex
	staff  map[int64]*Staff
	hashes map[int64]string
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{staff: make(map[int64]*Staff), hashes: make(map[int64]string), nextID: 1}
}

func rolesFor(ids []int) ([]Role, error) {
	out := []Role{}
	seen := map[int]bool{}
	for _, id := range ids {
		r, ok := testRoles[id]
		if !ok {
			return nil, apperr.InvalidInput("Referenced record does not exist")
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoleName < out[j].RoleName })
	return out, nil
}

func (m *mockRepo) Create(_ context.Context, in *CreateInput) (*Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.staff {
		if s.StaffCode == in.StaffCode {
			return nil, apperr.Conflict("Staff code already exists")
		}
	}
	roles, err := rolesFor(in.RoleIDs)
	if err != nil {
		return nil, err
	}
	s := &Staff{
		StaffID:   m.nextID,
		StaffCode: in.StaffCode,
		Cadre:     in.Cadre,
		Active:    true,
		CreatedAt: time.Now(),
		Roles:     roles,
	}
	s.Person.FirstName = in.FirstName
	s.Person.LastName = in.LastName
	m.staff[s.StaffID] = s
	m.hashes[s.StaffID] = in.PasswordHash
	m.nextID++
	cp := *s
	return &cp, nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.staff[id]
	if !ok {
		return nil, apperr.NotFound("Staff not found")
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, p *Patch) (*Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.staff[id]
	if !ok {
		return nil, apperr.NotFound("Staff not found")
	}
	if p.Cadre.Valid() {
		s.Cadre = p.Cadre.Value
	}
	if p.Active.Valid() {
		s.Active = p.Active.Value
	}
	if p.MOHRegistrationNo.Set {
		s.MOHRegistrationNo = p.MOHRegistrationNo.Ptr()
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter, pg pagination.Params) ([]*Staff, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Staff
	for _, s := range m.staff {
		if f.Active != nil && s.Active != *f.Active {
			continue
		}
		if f.Cadre != "" && s.Cadre != f.Cadre {
			continue
		}
		if f.Search != "" {
			term := strings.ToLower(f.Search)
			hay := strings.ToLower(s.StaffCode + " " + s.Person.FirstName + " " + s.Person.LastName)
			if !strings.Contains(hay, term) {
				continue
			}
		}
		cp := *s
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StaffID < all[j].StaffID })
	total := len(all)
	if pg.Offset >= total {
		return []*Staff{}, total, nil
	}
	return all[pg.Offset:min(pg.Offset+pg.Limit, total)], total, nil
}

func (m *mockRepo) Roles(ctx context.Context, staffID int64) ([]Role, error) {
	s, err := m.GetByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	return s.Roles, nil
}

func (m *mockRepo) ReplaceRoles(_ context.Context, staffID int64, roleIDs []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.staff[staffID]
	if !ok {
		return apperr.NotFound("Staff not found")
	}
	roles, err := rolesFor(roleIDs)
	if err != nil {
		return err
	}
	s.Roles = roles
	return nil
}

func (m *mockRepo) AllRoles(context.Context) ([]Role, error) {
	return rolesFor([]int{1, 2, 3, 4})
}

func (m *mockRepo) CredentialsByCode(_ context.Context, code string) (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.staff {
		if s.StaffCode == code {
			cp := *s
			return &Credentials{Staff: &cp, PasswordHash: m.hashes[id]}, nil
		}
	}
	return nil, apperr.NotFound("Staff not found")
}

func (m *mockRepo) PasswordHash(_ context.Context, staffID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staff[staffID]; !ok {
		return "", apperr.NotFound("Staff not found")
	}
	return m.hashes[staffID], nil
}

func (m *mockRepo) SetPasswordHash(_ context.Context, staffID int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staff[staffID]; !ok {
		return apperr.NotFound("Staff not found")
	}
	m.hashes[staffID] = hash
	return nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, bcrypt.MinCost), repo
}
