package labtest

import (
	"context"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, in *CreateInput) (*LabTest, error)
	GetByID(ctx context.Context, id int64) (*LabTest, error)
	Update(ctx context.Context, id int64, p *Patch) (*LabTest, error)
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*LabTest, int, error)
	// ViralLoadHistory returns the completed viral load results, newest first.
	ViralLoadHistory(ctx context.Context, patientID int64) ([]*LabTest, error)
}
