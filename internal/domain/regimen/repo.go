package regimen

import (
	"context"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, in *CreateInput) (*Regimen, error)
	GetByID(ctx context.Context, id int64) (*Regimen, error)
	Update(ctx context.Context, id int64, p *Patch) (*Regimen, error)
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Regimen, int, error)
	ListByLine(ctx context.Context, line string) ([]*Regimen, error)
}
