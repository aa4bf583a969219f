package alert

import (
	"context"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Alert, error)
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Alert, int, error)
	ListByPatient(ctx context.Context, patientID int64, resolved *bool) ([]*Alert, error)
	Active(ctx context.Context) ([]*Alert, error)
	SetResolution(ctx context.Context, id int64, r Resolution) (*Alert, error)
}
