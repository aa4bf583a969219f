package alert

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hivcare/hivcare/internal/domain/person"
	"github.com/hivcare/hivcare/internal/platform/apperr"
	"github.com/hivcare/hivcare/internal/platform/db"
	"github.com/hivcare/hivcare/internal/platform/listquery"
	"github.com/hivcare/hivcare/pkg/pagination"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var (
	alertFrom = "alert a " + person.PatientJoin("a.patient_id") + " " + person.StaffJoin("r", "a.resolved_by")
	alertCols = person.Cols([]string{
		"a.alert_id", "a.patient_id", "a.alert_type", "a.alert_level", "a.message",
		"a.triggered_at", "a.is_resolved", "a.resolved_at", "a.resolved_by",
	}, person.PatientColumns, person.StaffColumns("r"))

	alertOrder = []string{
		"CASE a.alert_level WHEN 'Critical' THEN 0 WHEN 'High' THEN 1 WHEN 'Medium' THEN 2 WHEN 'Low' THEN 3 ELSE 4 END",
		"a.triggered_at DESC",
	}
)

func scanAlert(row pgx.Row) (*Alert, error) {
	var (
		a        Alert
		resolver person.NullStaff
	)
	err := person.Scan(row, []any{
		&a.AlertID, &a.PatientID, &a.AlertType, &a.AlertLevel, &a.Message,
		&a.TriggeredAt, &a.IsResolved, &a.ResolvedAt, &a.ResolvedBy,
	}, a.Patient.Targets(), resolver.Targets())
	if err != nil {
		return nil, err
	}
	a.Resolver = resolver.Ref()
	return &a, nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Alert, error) {
	sql, args, err := listquery.Builder.Select(alertCols...).From(alertFrom).
		Where(sq.Eq{"a.alert_id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	a, err := scanAlert(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "Alert")
	}
	return a, nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Alert, int, error) {
	var where listquery.Filters
	where.EqID("a.patient_id", f.PatientID)
	where.EqString("a.alert_type", f.AlertType)
	where.EqString("a.alert_level", f.AlertLevel)
	where.EqBool("a.is_resolved", f.IsResolved)

	return listquery.Run(ctx, r.pool, listquery.Query{
		Columns: alertCols,
		From:    alertFrom,
		Where:   where,
		OrderBy: alertOrder,
	}, pg, scanAlert)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID int64, resolved *bool) ([]*Alert, error) {
	b := listquery.Builder.Select(alertCols...).From(alertFrom).
		Where(sq.Eq{"a.patient_id": patientID}).
		OrderBy(alertOrder...)
	if resolved != nil {
		b = b.Where(sq.Eq{"a.is_resolved": *resolved})
	}
	return listquery.Select(ctx, r.pool, b, scanAlert)
}

func (r *repoPG) Active(ctx context.Context) ([]*Alert, error) {
	b := listquery.Builder.Select(alertCols...).From(alertFrom).
		Where(sq.Eq{"a.is_resolved": false}).
		OrderBy(alertOrder...)
	return listquery.Select(ctx, r.pool, b, scanAlert)
}

func (r *repoPG) SetResolution(ctx context.Context, id int64, res Resolution) (*Alert, error) {
	u := listquery.NewUpdate("alert").
		Set("is_resolved", res.Resolved).
		Set("resolved_at", res.At).
		Set("resolved_by", res.By)

	ok, err := u.Exec(ctx, r.conn(ctx), sq.Eq{"alert_id": id})
	if err != nil {
		return nil, fmt.Errorf("update alert resolution: %w", db.Classify(err, "Alert"))
	}
	if !ok {
		return nil, apperr.NotFound("Alert not found")
	}
	return r.GetByID(ctx, id)
}
