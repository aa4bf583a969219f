package patient

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hivcare/hivcare/internal/domain/person"
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

const patientFrom = "patient pt JOIN person per ON per.person_id = pt.person_id"

var patientCols = person.Cols([]string{
	"pt.patient_id", "pt.patient_number", "pt.enrollment_date", "pt.art_start_date", "pt.current_status",
	"pt.baseline_cd4", "pt.baseline_viral_load", "pt.who_stage", "pt.tb_status", "pt.pregnancy_status",
	"pt.next_of_kin_name", "pt.next_of_kin_phone", "pt.next_of_kin_relationship", "pt.created_at", "pt.updated_at",
}, person.Columns("per"))

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := person.Scan(row, []any{
		&p.PatientID, &p.PatientNumber, &p.EnrollmentDate, &p.ARTStartDate, &p.CurrentStatus,
		&p.BaselineCD4, &p.BaselineViralLoad, &p.WHOStage, &p.TBStatus, &p.PregnancyStatus,
		&p.NextOfKinName, &p.NextOfKinPhone, &p.NextOfKinRelationship, &p.CreatedAt, &p.UpdatedAt,
	}, p.Person.Targets())
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, in *CreateInput) (*Patient, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		personID, err := person.Insert(ctx, r.conn(ctx), &in.Input)
		if err != nil {
			return err
		}

		var artStart any
		if in.ARTStartDate != nil {
			artStart = in.ARTStartDate.Time
		}
		err = r.conn(ctx).QueryRow(ctx, `
			INSERT INTO patient (person_id, patient_number, enrollment_date, art_start_date, current_status,
				baseline_cd4, baseline_viral_load, who_stage, tb_status, pregnancy_status,
				next_of_kin_name, next_of_kin_phone, next_of_kin_relationship)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			RETURNING patient_id`,
			personID, in.PatientNumber, in.EnrollmentDate.Time, artStart, in.CurrentStatus,
			in.BaselineCD4, in.BaselineViralLoad, in.WHOStage, in.TBStatus, in.PregnancyStatus,
			in.NextOfKinName, in.NextOfKinPhone, in.NextOfKinRelationship,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert patient: %w", db.Classify(err, "Patient number"))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	sql, args, err := listquery.Builder.Select(patientCols...).From(patientFrom).
		Where(sq.Eq{"pt.patient_id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "Patient")
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, id int64, patch *Patch) (*Patient, error) {
	u := listquery.NewUpdate("patient")
	listquery.Field(u, "patient_number", patch.PatientNumber)
	listquery.Field(u, "enrollment_date", patch.EnrollmentDate)
	listquery.Field(u, "art_start_date", patch.ARTStartDate)
	listquery.Field(u, "current_status", patch.CurrentStatus)
	listquery.Field(u, "baseline_cd4", patch.BaselineCD4)
	listquery.Field(u, "baseline_viral_load", patch.BaselineViralLoad)
	listquery.Field(u, "who_stage", patch.WHOStage)
	listquery.Field(u, "tb_status", patch.TBStatus)
	listquery.Field(u, "pregnancy_status", patch.PregnancyStatus)
	listquery.Field(u, "next_of_kin_name", patch.NextOfKinName)
	listquery.Field(u, "next_of_kin_phone", patch.NextOfKinPhone)
	listquery.Field(u, "next_of_kin_relationship", patch.NextOfKinRelationship)
	changed := !u.Empty() || !patch.Patch.Empty()

	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		var personID int64
		err := r.conn(ctx).QueryRow(ctx,
			`SELECT person_id FROM patient WHERE patient_id = $1 FOR UPDATE`, id).Scan(&personID)
		if err != nil {
			return db.Classify(err, "Patient")
		}
		if err := person.Apply(ctx, r.conn(ctx), personID, &patch.Patch); err != nil {
			return err
		}
		if !changed {
			return nil
		}
		u.Set("updated_at", sq.Expr("NOW()"))
		if _, err := u.Exec(ctx, r.conn(ctx), sq.Eq{"patient_id": id}); err != nil {
			return fmt.Errorf("update patient: %w", db.Classify(err, "Patient number"))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Patient, int, error) {
	var where listquery.Filters
	where.EqString("pt.current_status", f.Status)
	where.Search(f.Search, "pt.patient_number", "per.first_name", "per.last_name", "per.nin", "per.phone_number")

	return listquery.Run(ctx, r.pool, listquery.Query{
		Columns: patientCols,
		From:    patientFrom,
		Where:   where,
		OrderBy: []string{"pt.created_at DESC", "pt.patient_id DESC"},
	}, pg, scanPatient)
}

func (r *repoPG) related(id int64, limit int, cols []string, from string, where sq.Sqlizer, order string) sq.SelectBuilder {
	return listquery.Builder.Select(cols...).From(from).
		Where(sq.Eq{"patient_id": id}).Where(where).
		OrderBy(order).Limit(uint64(limit))
}

func (r *repoPG) RecentVisits(ctx context.Context, id int64, limit int) ([]VisitSummary, error) {
	b := r.related(id, limit, []string{"visit_id", "visit_date", "visit_type", "diagnosis"},
		"visit", sq.Expr("TRUE"), "visit_date DESC, visit_id DESC")
	return listquery.Select(ctx, r.pool, b, func(row pgx.Row) (VisitSummary, error) {
		var v VisitSummary
		return v, row.Scan(&v.VisitID, &v.VisitDate, &v.VisitType, &v.Diagnosis)
	})
}

func (r *repoPG) RecentLabTests(ctx context.Context, id int64, limit int) ([]LabTestSummary, error) {
	b := r.related(id, limit, []string{"lab_test_id", "test_type", "test_date", "status", "result_numeric", "result_unit"},
		"lab_test", sq.Expr("TRUE"), "test_date DESC, lab_test_id DESC")
	return listquery.Select(ctx, r.pool, b, func(row pgx.Row) (LabTestSummary, error) {
		var l LabTestSummary
		return l, row.Scan(&l.LabTestID, &l.TestType, &l.TestDate, &l.Status, &l.ResultNumeric, &l.ResultUnit)
	})
}

func (r *repoPG) RecentDispenses(ctx context.Context, id int64, limit int) ([]DispenseSummary, error) {
	b := r.related(id, limit, []string{"d.dispense_id", "d.dispense_date", "rg.regimen_code", "d.days_supply", "d.next_refill_date"},
		"dispense d JOIN regimen rg ON rg.regimen_id = d.regimen_id", sq.Expr("TRUE"), "d.dispense_date DESC, d.dispense_id DESC")
	return listquery.Select(ctx, r.pool, b, func(row pgx.Row) (DispenseSummary, error) {
		var d DispenseSummary
		return d, row.Scan(&d.DispenseID, &d.DispenseDate, &d.RegimenCode, &d.DaysSupply, &d.NextRefillDate)
	})
}

func (r *repoPG) UpcomingAppointments(ctx context.Context, id int64, limit int) ([]AppointmentSummary, error) {
	b := r.related(id, limit, []string{"appointment_id", "scheduled_date", "appointment_type", "status"},
		"appointment", sq.Expr("scheduled_date >= CURRENT_DATE"), "scheduled_date ASC, appointment_id ASC")
	return listquery.Select(ctx, r.pool, b, func(row pgx.Row) (AppointmentSummary, error) {
		var a AppointmentSummary
		return a, row.Scan(&a.AppointmentID, &a.ScheduledDate, &a.AppointmentType, &a.Status)
	})
}

func (r *repoPG) RecentAdherence(ctx context.Context, id int64, limit int) ([]AdherenceSummary, error) {
	b := r.related(id, limit, []string{"adherence_id", "log_date", "adherence_percent", "method_used"},
		"adherence_log", sq.Expr("TRUE"), "log_date DESC, adherence_id DESC")
	return listquery.Select(ctx, r.pool, b, func(row pgx.Row) (AdherenceSummary, error) {
		var a AdherenceSummary
		return a, row.Scan(&a.AdherenceID, &a.LogDate, &a.AdherencePercent, &a.MethodUsed)
	})
}

func (r *repoPG) ActiveAlerts(ctx context.Context, id int64, limit int) ([]AlertSummary, error) {
	b := r.related(id, limit, []string{"alert_id", "alert_type", "alert_level", "message", "triggered_at"},
		"alert", sq.Eq{"is_resolved": false}, "triggered_at DESC")
	return listquery.Select(ctx, r.pool, b, func(row pgx.Row) (AlertSummary, error) {
		var a AlertSummary
		return a, row.Scan(&a.AlertID, &a.AlertType, &a.AlertLevel, &a.Message, &a.TriggeredAt)
	})
}

const timelineSQL = `
SELECT event_type, event_id, event_date, title, detail FROM (
	SELECT 'visit' AS event_type, visit_id AS event_id, visit_date::timestamptz AS event_date,
		visit_type AS title, diagnosis AS detail
	FROM visit WHERE patient_id = $1
	UNION ALL
	SELECT 'lab_test', lab_test_id, test_date::timestamptz, test_type, status
	FROM lab_test WHERE patient_id = $1
	UNION ALL
	SELECT 'dispense', d.dispense_id, d.dispense_date::timestamptz, rg.regimen_code, d.days_supply || ' days'
	FROM dispense d JOIN regimen rg ON rg.regimen_id = d.regimen_id WHERE d.patient_id = $1
	UNION ALL
	SELECT 'appointment', appointment_id, scheduled_date::timestamptz, appointment_type, status
	FROM appointment WHERE patient_id = $1
	UNION ALL
	SELECT 'counseling', session_id, session_date::timestamptz, session_type, topics_discussed
	FROM counseling_session WHERE patient_id = $1
	UNION ALL
	SELECT 'adherence', adherence_id, log_date::timestamptz, method_used, adherence_percent::text || '%'
	FROM adherence_log WHERE patient_id = $1
	UNION ALL
	SELECT 'alert', alert_id, triggered_at, alert_type, message
	FROM alert WHERE patient_id = $1
) events
WHERE ($2::timestamptz IS NULL OR event_date >= $2)
  AND ($3::timestamptz IS NULL OR event_date < $3)
ORDER BY event_date DESC, event_type
LIMIT $4`

func (r *repoPG) Timeline(ctx context.Context, id int64, f TimelineFilter) ([]TimelineEvent, error) {
	var from, to any
	if f.Dates.From != nil {
		from = *f.Dates.From
	}
	if up, exclusive := f.Dates.Upper(); f.Dates.To != nil {
		if !exclusive {
			up = up.Add(time.Microsecond)
		}
		to = up
	}
	return listquery.Collect(ctx, r.conn(ctx), timelineSQL, []any{id, from, to, f.Limit}, func(row pgx.Row) (TimelineEvent, error) {
		var e TimelineEvent
		return e, row.Scan(&e.EventType, &e.EventID, &e.EventDate, &e.Title, &e.Detail)
	})
}
