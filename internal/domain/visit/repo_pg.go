package visit

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
	visitFrom = "visit v " + person.PatientJoin("v.patient_id") + " " + person.StaffJoin("s", "v.staff_id")
	visitCols = person.Cols([]string{
		"v.visit_id", "v.patient_id", "v.staff_id", "v.visit_date", "v.visit_type", "v.weight_kg", "v.height_cm",
		"v.bp_systolic", "v.bp_diastolic", "v.temperature_c", "v.who_stage", "v.tb_screening",
		"v.clinical_notes", "v.diagnosis", "v.next_appointment_date", "v.created_at",
	}, person.PatientColumns, person.StaffColumns("s"))
)

func scanVisit(row pgx.Row) (*Visit, error) {
	var (
		v     Visit
		staff person.NullStaff
	)
	err := person.Scan(row, []any{
		&v.VisitID, &v.PatientID, &v.StaffID, &v.VisitDate, &v.VisitType, &v.WeightKg, &v.HeightCm,
		&v.BPSystolic, &v.BPDiastolic, &v.TemperatureC, &v.WHOStage, &v.TBScreening,
		&v.ClinicalNotes, &v.Diagnosis, &v.NextAppointmentDate, &v.CreatedAt,
	}, v.Patient.Targets(), staff.Targets())
	if err != nil {
		return nil, err
	}
	v.Staff = staff.Ref()
	return &v, nil
}

func (r *repoPG) Create(ctx context.Context, in *CreateInput) (*Visit, error) {
	var next any
	if in.NextAppointmentDate != nil {
		next = in.NextAppointmentDate.Time
	}
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO visit (patient_id, staff_id, visit_date, visit_type, weight_kg, height_cm,
			bp_systolic, bp_diastolic, temperature_c, who_stage, tb_screening, clinical_notes,
			diagnosis, next_appointment_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING visit_id`,
		in.PatientID, in.StaffID, in.VisitDate.Time, in.VisitType, in.WeightKg, in.HeightCm,
		in.BPSystolic, in.BPDiastolic, in.TemperatureC, in.WHOStage, in.TBScreening, in.ClinicalNotes,
		in.Diagnosis, next,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert visit: %w", db.Classify(err, "Visit"))
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Visit, error) {
	sql, args, err := listquery.Builder.Select(visitCols...).From(visitFrom).
		Where(sq.Eq{"v.visit_id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	v, err := scanVisit(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "Visit")
	}
	return v, nil
}

func (r *repoPG) Update(ctx context.Context, id int64, p *Patch) (*Visit, error) {
	u := listquery.NewUpdate("visit")
	listquery.Field(u, "visit_date", p.VisitDate)
	listquery.Field(u, "visit_type", p.VisitType)
	listquery.Field(u, "staff_id", p.StaffID)
	listquery.Field(u, "weight_kg", p.WeightKg)
	listquery.Field(u, "height_cm", p.HeightCm)
	listquery.Field(u, "bp_systolic", p.BPSystolic)
	listquery.Field(u, "bp_diastolic", p.BPDiastolic)
	listquery.Field(u, "temperature_c", p.TemperatureC)
	listquery.Field(u, "who_stage", p.WHOStage)
	listquery.Field(u, "tb_screening", p.TBScreening)
	listquery.Field(u, "clinical_notes", p.ClinicalNotes)
	listquery.Field(u, "diagnosis", p.Diagnosis)
	listquery.Field(u, "next_appointment_date", p.NextAppointmentDate)

	ok, err := u.Exec(ctx, r.conn(ctx), sq.Eq{"visit_id": id})
	if err != nil {
		return nil, fmt.Errorf("update visit: %w", db.Classify(err, "Visit"))
	}
	if !ok {
		return nil, apperr.NotFound("Visit not found")
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Visit, int, error) {
	var where listquery.Filters
	where.EqID("v.patient_id", f.PatientID)
	where.EqID("v.staff_id", f.StaffID)
	where.Range("v.visit_date", f.Dates)

	return listquery.Run(ctx, r.pool, listquery.Query{
		Columns: visitCols,
		From:    visitFrom,
		Where:   where,
		OrderBy: []string{"v.visit_date DESC", "v.visit_id DESC"},
	}, pg, scanVisit)
}
