package labtest

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

// Create orders a test. orderedBy is used when the body names no ordering
// clinician.
func (s *Service) Create(ctx context.Context, orderedBy int64, in *CreateInput) (*LabTest, error) {
	if in.OrderedBy == nil && orderedBy > 0 {
		in.OrderedBy = &orderedBy
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id int64) (*LabTest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, p *Patch) (*LabTest, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*LabTest, int, error) {
	return s.repo.List(ctx, f, pg)
}

func (s *Service) ViralLoadHistory(ctx context.Context, patientID int64) ([]*LabTest, error) {
	return s.repo.ViralLoadHistory(ctx, patientID)
}
