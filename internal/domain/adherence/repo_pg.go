package adherence

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
	logFrom = "adherence_log al " + person.PatientJoin("al.patient_id")
	logCols = person.Cols([]string{
		"al.adherence_id", "al.patient_id", "al.log_date", "al.adherence_percent::float8",
		"al.method_used", "al.notes", "al.created_at",
	}, person.PatientColumns)
)

func scanLog(row pgx.Row) (*Log, error) {
	var l Log
	l.Patient = &person.PatientRef{}
	err := person.Scan(row, []any{
		&l.AdherenceID, &l.PatientID, &l.LogDate, &l.AdherencePercent,
		&l.MethodUsed, &l.Notes, &l.CreatedAt,
	}, l.Patient.Targets())
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repoPG) Create(ctx context.Context, in *CreateInput) (*Log, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO adherence_log (patient_id, log_date, adherence_percent, method_used, notes)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING adherence_id`,
		in.PatientID, in.LogDate.Time, *in.AdherencePercent, in.MethodUsed, in.Notes,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert adherence log: %w", db.Classify(err, "Adherence log"))
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Log, error) {
	sql, args, err := listquery.Builder.Select(logCols...).From(logFrom).
		Where(sq.Eq{"al.adherence_id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	l, err := scanLog(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "Adherence log")
	}
	return l, nil
}

func (r *repoPG) Update(ctx context.Context, id int64, p *Patch) (*Log, error) {
	u := listquery.NewUpdate("adherence_log")
	listquery.Field(u, "log_date", p.LogDate)
	listquery.Field(u, "adherence_percent", p.AdherencePercent)
	listquery.Field(u, "method_used", p.MethodUsed)
	listquery.Field(u, "notes", p.Notes)

	ok, err := u.Exec(ctx, r.conn(ctx), sq.Eq{"adherence_id": id})
	if err != nil {
		return nil, fmt.Errorf("update adherence log: %w", db.Classify(err, "Adherence log"))
	}
	if !ok {
		return nil, apperr.NotFound("Adherence log not found")
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Log, int, error) {
	var where listquery.Filters
	where.EqID("al.patient_id", f.PatientID)
	where.EqString("al.method_used", f.MethodUsed)
	where.Range("al.log_date", f.Dates)

	return listquery.Run(ctx, r.pool, listquery.Query{
		Columns: logCols,
		From:    logFrom,
		Where:   where,
		OrderBy: []string{"al.log_date DESC", "al.adherence_id DESC"},
	}, pg, scanLog)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID int64) ([]*Log, error) {
	b := listquery.Builder.Select(logCols...).From(logFrom).
		Where(sq.Eq{"al.patient_id": patientID}).
		OrderBy("al.log_date DESC", "al.adherence_id DESC")
	return listquery.Select(ctx, r.pool, b, scanLog)
}

func (r *repoPG) Compute(ctx context.Context, patientID int64, from, to *time.Time) (*Log, error) {
	if _, err := r.conn(ctx).Exec(ctx, "CALL sp_compute_adherence($1, $2::date, $3::date)", patientID, from, to); err != nil {
		return nil, fmt.Errorf("compute adherence: %w", db.Classify(err, "Patient"))
	}

	b := listquery.Builder.Select(logCols...).From(logFrom).
		Where(sq.Eq{"al.patient_id": patientID, "al.method_used": MethodComputed}).
		OrderBy("al.log_date DESC", "al.adherence_id DESC").
		Limit(1)
	logs, err := listquery.Select(ctx, r.conn(ctx), b, scanLog)
	if err != nil {
		return nil, fmt.Errorf("latest computed adherence: %w", err)
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return logs[0], nil
}
