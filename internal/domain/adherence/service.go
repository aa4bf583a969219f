package adherence

import (
	"context"
	"time"

	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/pkg/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Record(ctx context.Context, in *CreateInput) (*Log, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id int64) (*Log, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, p *Patch) (*Log, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Log, int, error) {
	return s.repo.List(ctx, f, pg)
}

func (s *Service) ForPatient(ctx context.Context, patientID int64) ([]*Log, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// Compute asks the database to recompute adherence for the period. A nil
// bound leaves that side of the period to the procedure's default.
func (s *Service) Compute(ctx context.Context, patientID int64, from, to *time.Time) (*ComputeResult, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperr.InvalidInput("endDate must not be before startDate")
	}
	l, err := s.repo.Compute(ctx, patientID, from, to)
	if err != nil {
		return nil, err
	}
	return &ComputeResult{Message: "Adherence computed successfully", Adherence: l}, nil
}
