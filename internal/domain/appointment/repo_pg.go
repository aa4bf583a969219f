package appointment

import (
	"context"
	"fmt"
	"time"

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
	apptFrom = "appointment a " + person.PatientJoin("a.patient_id") + " " + person.StaffJoin("s", "a.staff_id")
	apptCols = person.Cols([]string{
		"a.appointment_id", "a.patient_id", "a.staff_id", "a.scheduled_date", "a.appointment_type",
		"a.status", "a.reason", "a.notes", "a.created_at",
	}, person.PatientColumns, person.StaffColumns("s"))
)

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a     Appointment
		staff person.NullStaff
	)
	err := person.Scan(row, []any{
		&a.AppointmentID, &a.PatientID, &a.StaffID, &a.ScheduledDate, &a.AppointmentType,
		&a.Status, &a.Reason, &a.Notes, &a.CreatedAt,
	}, a.Patient.Targets(), staff.Targets())
	if err != nil {
		return nil, err
	}
	a.Staff = staff.Ref()
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, in *CreateInput) (*Appointment, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (patient_id, staff_id, scheduled_date, appointment_type, status, reason, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING appointment_id`,
		in.PatientID, in.StaffID, in.ScheduledDate.Time, in.AppointmentType, StatusScheduled, in.Reason, in.Notes,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", db.Classify(err, "Appointment"))
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	sql, args, err := listquery.Builder.Select(apptCols...).From(apptFrom).
		Where(sq.Eq{"a.appointment_id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "Appointment")
	}
	return a, nil
}

func (r *repoPG) Update(ctx context.Context, id int64, p *Patch) (*Appointment, error) {
	u := listquery.NewUpdate("appointment")
	listquery.Field(u, "scheduled_date", p.ScheduledDate)
	listquery.Field(u, "appointment_type", p.AppointmentType)
	listquery.Field(u, "staff_id", p.StaffID)
	listquery.Field(u, "status", p.Status)
	listquery.Field(u, "reason", p.Reason)
	listquery.Field(u, "notes", p.Notes)

	ok, err := u.Exec(ctx, r.conn(ctx), sq.Eq{"appointment_id": id})
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", db.Classify(err, "Appointment"))
	}
	if !ok {
		return nil, apperr.NotFound("Appointment not found")
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Appointment, int, error) {
	var where listquery.Filters
	where.EqID("a.patient_id", f.PatientID)
	where.EqID("a.staff_id", f.StaffID)
	where.EqString("a.status", f.Status)
	where.Range("a.scheduled_date", f.Dates)

	return listquery.Run(ctx, r.pool, listquery.Query{
		Columns: apptCols,
		From:    apptFrom,
		Where:   where,
		OrderBy: []string{"a.scheduled_date DESC", "a.appointment_id DESC"},
	}, pg, scanAppointment)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID int64, f PatientFilter, today time.Time) ([]*Appointment, error) {
	b := listquery.Builder.Select(apptCols...).From(apptFrom).Where(sq.Eq{"a.patient_id": patientID})
	if f.Upcoming {
		b = b.Where(sq.Eq{"a.status": StatusScheduled}).
			Where(sq.GtOrEq{"a.scheduled_date": today}).
			OrderBy("a.scheduled_date ASC", "a.appointment_id ASC")
	} else {
		if f.Status != "" {
			b = b.Where(sq.Eq{"a.status": f.Status})
		}
		b = b.OrderBy("a.scheduled_date DESC", "a.appointment_id DESC")
	}
	return listquery.Select(ctx, r.pool, b, scanAppointment)
}

func (r *repoPG) Missed(ctx context.Context, today time.Time) ([]*Appointment, error) {
	b := listquery.Builder.Select(apptCols...).From(apptFrom).
		Where(sq.Or{
			sq.And{sq.Eq{"a.status": StatusMissed}, sq.LtOrEq{"a.scheduled_date": today}},
			sq.And{sq.Eq{"a.status": StatusScheduled}, sq.Lt{"a.scheduled_date": today}},
		}).
		OrderBy("a.scheduled_date DESC", "a.appointment_id DESC")
	return listquery.Select(ctx, r.pool, b, scanAppointment)
}
