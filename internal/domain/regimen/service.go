package regimen

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hivcare/hivcare/internal/domain/pharmacy"
	"github.com/hivcare/hivcare/pkg/pagination"
)

const recentDispenseLimit = 10

// Dispenses looks up a regimen's dispensing history.
type Dispenses interface {
	RecentForRegimen(ctx context.Context, regimenID int64, limit int) ([]*pharmacy.Dispense, error)
}

type Service struct {
	repo      Repository
	dispenses Dispenses
}

func NewService(repo Repository, dispenses Dispenses) *Service {
	return &Service{repo: repo, dispenses: dispenses}
}

func (s *Service) Create(ctx context.Context, in *CreateInput) (*Regimen, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

func (s *Service) Detail(ctx context.Context, id int64) (*Detail, error) {
	d := &Detail{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Regimen, err = s.repo.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		d.Dispenses, err = s.dispenses.RecentForRegimen(gctx, id, recentDispenseLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if d.Dispenses == nil {
		d.Dispenses = []*pharmacy.Dispense{}
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, id int64, p *Patch) (*Regimen, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Regimen, int, error) {
	return s.repo.List(ctx, f, pg)
}

func (s *Service) ByLine(ctx context.Context, line string) ([]*Regimen, error) {
	return s.repo.ListByLine(ctx, line)
}
