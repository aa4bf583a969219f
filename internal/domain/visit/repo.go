package visit

import (
	"context"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, in *CreateInput) (*Visit, error)
	GetByID(ctx context.Context, id int64) (*Visit, error)
	Update(ctx context.Context, id int64, p *Patch) (*Visit, error)
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Visit, int, error)
}
