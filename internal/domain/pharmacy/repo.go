package pharmacy

import (
	"context"
	"time"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, in *CreateInput) (*Dispense, error)
	GetByID(ctx context.Context, id int64) (*Dispense, error)
	Update(ctx context.Context, id int64, p *Patch) (*Dispense, error)
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Dispense, int, error)
	ListByPatient(ctx context.Context, patientID int64) ([]*Dispense, error)
	// Overdue returns, for each active patient, the latest dispense when its
	// refill date is before asOf. Oldest due date first.
	Overdue(ctx context.Context, asOf time.Time) ([]*Dispense, error)
}
