package appointment

import (
	"context"
	"time"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, in *CreateInput) (*Appointment, error)
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	Update(ctx context.Context, id int64, p *Patch) (*Appointment, error)
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID int64, f PatientFilter, today time.Time) ([]*Appointment, error)
	// Missed returns appointments marked missed and scheduled ones whose date
	// is before today.
	Missed(ctx context.Context, today time.Time) ([]*Appointment, error)
}
