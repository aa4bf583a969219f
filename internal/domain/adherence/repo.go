package adherence

import (
	"context"
	"time"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, in *CreateInput) (*Log, error)
	GetByID(ctx context.Context, id int64) (*Log, error)
	Update(ctx context.Context, id int64, p *Patch) (*Log, error)
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Log, int, error)
	ListByPatient(ctx context.Context, patientID int64) ([]*Log, error)
	// Compute runs the stored adherence computation for the period and
	// returns the patient's latest computed log, or nil if there is none.
	Compute(ctx context.Context, patientID int64, from, to *time.Time) (*Log, error)
}
