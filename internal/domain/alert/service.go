package alert

import (
	"context"
	"time"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (*Alert, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Alert, int, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, f, pg)
}

func (s *Service) ForPatient(ctx context.Context, patientID int64, resolved *bool) ([]*Alert, error) {
	return s.repo.ListByPatient(ctx, patientID, resolved)
}

func (s *Service) Active(ctx context.Context) ([]*Alert, error) {
	return s.repo.Active(ctx)
}

// Resolve closes an alert on behalf of staffID.
func (s *Service) Resolve(ctx context.Context, id, staffID int64) (*Alert, error) {
	at := s.now().UTC()
	res := Resolution{Resolved: true, At: &at}
	if staffID > 0 {
		res.By = &staffID
	}
	return s.repo.SetResolution(ctx, id, res)
}

// Unresolve reopens an alert and clears who resolved it and when.
func (s *Service) Unresolve(ctx context.Context, id int64) (*Alert, error) {
	return s.repo.SetResolution(ctx, id, Resolution{})
}
