package pharmacy

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

// Dispense records medication handed out by staffID. The next refill date is
// derived from the dispense date and days of supply.
func (s *Service) Dispense(ctx context.Context, staffID int64, in *CreateInput) (*Dispense, error) {
	in.DispensedBy = staffID
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.NextRefillDate = NextRefill(in.DispenseDate.Time, in.DaysSupply)
	return s.repo.Create(ctx, in)
}

func (s *Service) Get(ctx context.Context, id int64) (*Dispense, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, p *Patch) (*Dispense, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Dispense, int, error) {
	return s.repo.List(ctx, f, pg)
}

// RecentForRegimen returns the latest limit dispenses of one regimen.
func (s *Service) RecentForRegimen(ctx context.Context, regimenID int64, limit int) ([]*Dispense, error) {
	items, _, err := s.repo.List(ctx, ListFilter{RegimenID: &regimenID}, pagination.Params{Page: 1, Limit: limit})
	return items, err
}

func (s *Service) PatientHistory(ctx context.Context, patientID int64) ([]*Dispense, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// OverdueRefills lists active patients whose latest supply ran out before today.
func (s *Service) OverdueRefills(ctx context.Context) ([]OverdueRefill, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	items, err := s.repo.Overdue(ctx, today)
	if err != nil {
		return nil, err
	}
	out := make([]OverdueRefill, 0, len(items))
	for _, d := range items {
		due := time.Date(d.NextRefillDate.Year(), d.NextRefillDate.Month(), d.NextRefillDate.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, OverdueRefill{Dispense: d, DaysOverdue: int(today.Sub(due).Hours() / 24)})
	}
	return out, nil
}
