package counseling

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

// Record saves a session held by counselorID.
func (s *Service) Record(ctx context.Context, counselorID int64, in *CreateInput) (*Session, error) {
	in.CounselorID = counselorID
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id int64) (*Session, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, p *Patch) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Session, int, error) {
	return s.repo.List(ctx, f, pg)
}

func (s *Service) ForPatient(ctx context.Context, patientID int64) ([]*Session, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
