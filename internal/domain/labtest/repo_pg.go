package labtest

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
	labFrom = "lab_test lt " + person.PatientJoin("lt.patient_id") + " " + person.StaffJoin("s", "lt.ordered_by")
	labCols = person.Cols([]string{
		"lt.lab_test_id", "lt.patient_id", "lt.visit_id", "lt.ordered_by", "lt.test_type", "lt.test_date",
		"lt.sample_id", "lt.result_numeric", "lt.result_text", "lt.result_unit", "lt.result_date",
		"lt.status", "lt.notes", "lt.created_at",
	}, person.PatientColumns, person.StaffColumns("s"))
)

func scanLabTest(row pgx.Row) (*LabTest, error) {
	var (
		l     LabTest
		staff person.NullStaff
	)
	err := person.Scan(row, []any{
		&l.LabTestID, &l.PatientID, &l.VisitID, &l.OrderedBy, &l.TestType, &l.TestDate,
		&l.SampleID, &l.ResultNumeric, &l.ResultText, &l.ResultUnit, &l.ResultDate,
		&l.Status, &l.Notes, &l.CreatedAt,
	}, l.Patient.Targets(), staff.Targets())
	if err != nil {
		return nil, err
	}
	l.OrderedByStaff = staff.Ref()
	return &l, nil
}

func (r *repoPG) Create(ctx context.Context, in *CreateInput) (*LabTest, error) {
	var resultDate any
	if in.ResultDate != nil {
		resultDate = in.ResultDate.Time
	}
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO lab_test (patient_id, visit_id, ordered_by, test_type, test_date, sample_id,
			result_numeric, result_text, result_unit, result_date, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING lab_test_id`,
		in.PatientID, in.VisitID, in.OrderedBy, in.TestType, in.TestDate.Time, in.SampleID,
		in.ResultNumeric, in.ResultText, in.ResultUnit, resultDate, in.Status, in.Notes,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert lab test: %w", db.Classify(err, "Lab test"))
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*LabTest, error) {
	sql, args, err := listquery.Builder.Select(labCols...).From(labFrom).
		Where(sq.Eq{"lt.lab_test_id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	l, err := scanLabTest(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "Lab test")
	}
	return l, nil
}

func (r *repoPG) Update(ctx context.Context, id int64, p *Patch) (*LabTest, error) {
	u := listquery.NewUpdate("lab_test")
	listquery.Field(u, "test_type", p.TestType)
	listquery.Field(u, "test_date", p.TestDate)
	listquery.Field(u, "sample_id", p.SampleID)
	listquery.Field(u, "result_numeric", p.ResultNumeric)
	listquery.Field(u, "result_text", p.ResultText)
	listquery.Field(u, "result_unit", p.ResultUnit)
	listquery.Field(u, "result_date", p.ResultDate)
	listquery.Field(u, "status", p.Status)
	listquery.Field(u, "notes", p.Notes)

	ok, err := u.Exec(ctx, r.conn(ctx), sq.Eq{"lab_test_id": id})
	if err != nil {
		return nil, fmt.Errorf("update lab test: %w", db.Classify(err, "Lab test"))
	}
	if !ok {
		return nil, apperr.NotFound("Lab test not found")
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*LabTest, int, error) {
	var where listquery.Filters
	where.EqID("lt.patient_id", f.PatientID)
	where.EqString("lt.test_type", f.TestType)
	where.EqString("lt.status", f.Status)
	where.Range("lt.test_date", f.Dates)

	return listquery.Run(ctx, r.pool, listquery.Query{
		Columns: labCols,
		From:    labFrom,
		Where:   where,
		OrderBy: []string{"lt.test_date DESC", "lt.lab_test_id DESC"},
	}, pg, scanLabTest)
}

func (r *repoPG) ViralLoadHistory(ctx context.Context, patientID int64) ([]*LabTest, error) {
	b := listquery.Builder.Select(labCols...).From(labFrom).
		Where(sq.Eq{"lt.patient_id": patientID, "lt.test_type": TestTypeViralLoad, "lt.status": StatusCompleted}).
		OrderBy("lt.test_date DESC", "lt.lab_test_id DESC")
	return listquery.Select(ctx, r.pool, b, scanLabTest)
}
