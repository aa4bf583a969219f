package patient

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hivcare/hivcare/pkg/pagination"
)

const (
	detailLimit          = 10
	detailAdherenceLimit = 5
	defaultTimelineLimit = 50
	maxTimelineLimit     = 500
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, in *CreateInput) (*Patient, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Update(ctx context.Context, id int64, p *Patch) (*Patient, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Patient, int, error) {
	return s.repo.List(ctx, f, pg)
}

// Detail loads the patient and its related records in parallel.
func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &Detail{Patient: p}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.RecentVisits, err = s.repo.RecentVisits(gctx, id, detailLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentLabTests, err = s.repo.RecentLabTests(gctx, id, detailLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentDispenses, err = s.repo.RecentDispenses(gctx, id, detailLimit)
		return err
	})
	g.Go(func() (err error) {
		d.UpcomingAppointments, err = s.repo.UpcomingAppointments(gctx, id, detailLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentAdherence, err = s.repo.RecentAdherence(gctx, id, detailAdherenceLimit)
		return err
	})
	g.Go(func() (err error) {
		d.ActiveAlerts, err = s.repo.ActiveAlerts(gctx, id, detailLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// Timeline returns the patient's merged care history, newest first.
func (s *Service) Timeline(ctx context.Context, id int64, f TimelineFilter) ([]TimelineEvent, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	switch {
	case f.Limit <= 0:
		f.Limit = defaultTimelineLimit
	case f.Limit > maxTimelineLimit:
		f.Limit = maxTimelineLimit
	}
	return s.repo.Timeline(ctx, id, f)
}
