package counseling

import (
	"context"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, in *CreateInput) (*Session, error)
	GetByID(ctx context.Context, id int64) (*Session, error)
	Update(ctx context.Context, id int64, p *Patch) (*Session, error)
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Session, int, error)
	ListByPatient(ctx context.Context, patientID int64) ([]*Session, error)
}
