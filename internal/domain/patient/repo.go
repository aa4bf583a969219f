package patient

import (
	"context"

	"github.com/hivcare/hivcare/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, in *CreateInput) (*Patient, error)
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Update(ctx context.Context, id int64, p *Patch) (*Patient, error)
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Patient, int, error)

	// Related records shown on the patient detail view.
	RecentVisits(ctx context.Context, id int64, limit int) ([]VisitSummary, error)
	RecentLabTests(ctx context.Context, id int64, limit int) ([]LabTestSummary, error)
	RecentDispenses(ctx context.Context, id int64, limit int) ([]DispenseSummary, error)
	UpcomingAppointments(ctx context.Context, id int64, limit int) ([]AppointmentSummary, error)
	RecentAdherence(ctx context.Context, id int64, limit int) ([]AdherenceSummary, error)
	ActiveAlerts(ctx context.Context, id int64, limit int) ([]AlertSummary, error)

	Timeline(ctx context.Context, id int64, f TimelineFilter) ([]TimelineEvent, error)
}
