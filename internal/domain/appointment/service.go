package appointment

import (
	"context"
	"time"

	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/pkg/nullable"
	"github.com/hivcare/hivcare/pkg/pagination"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) today() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// Schedule books an appointment. The booking staff member is assigned when
// the request names no one.
func (s *Service) Schedule(ctx context.Context, staffID int64, in *CreateInput) (*Appointment, error) {
	if in.StaffID == nil && staffID > 0 {
		in.StaffID = &staffID
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, p *Patch) (*Appointment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) MarkAttended(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.Update(ctx, id, &Patch{Status: nullable.Of(StatusAttended)})
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Appointment, int, error) {
	return s.repo.List(ctx, f, pg)
}

func (s *Service) ForPatient(ctx context.Context, patientID int64, f PatientFilter) ([]*Appointment, error) {
	if f.Status != "" && !statuses[f.Status] {
		return nil, apperr.InvalidInput("Invalid status")
	}
	return s.repo.ListByPatient(ctx, patientID, f, s.today())
}

func (s *Service) Missed(ctx context.Context) ([]*Appointment, error) {
	return s.repo.Missed(ctx, s.today())
}
