package visit

import (
	"context"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create records a visit. The attending clinician defaults to staffID when
// the request names none.
func (s *Service) Create(ctx context.Context, staffID int64, in *CreateInput) (*Visit, error) {
	if in.StaffID == 0 {
		in.StaffID = staffID
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id int64) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, p *Patch) (*Visit, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Visit, int, error) {
	return s.repo.List(ctx, f, pg)
}
