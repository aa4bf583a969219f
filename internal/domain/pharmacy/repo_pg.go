package pharmacy

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
	dispenseFrom = "dispense d " + person.PatientJoin("d.patient_id") +
		" JOIN regimen rg ON rg.regimen_id = d.regimen_id " + person.StaffJoin("s", "d.dispensed_by")
	dispenseCols = person.Cols([]string{
		"d.dispense_id", "d.patient_id", "d.regimen_id", "d.dispensed_by", "d.dispense_date", "d.days_supply",
		"d.quantity_dispensed", "d.next_refill_date", "d.notes", "d.created_at",
		"rg.regimen_id", "rg.regimen_code", "rg.regimen_name", "rg.line",
	}, person.PatientColumns, person.StaffColumns("s"))
)

func scanDispense(row pgx.Row) (*Dispense, error) {
	var (
		d     Dispense
		staff person.NullStaff
	)
	err := person.Scan(row, []any{
		&d.DispenseID, &d.PatientID, &d.RegimenID, &d.DispensedBy, &d.DispenseDate, &d.DaysSupply,
		&d.QuantityDispensed, &d.NextRefillDate, &d.Notes, &d.CreatedAt,
		&d.Regimen.RegimenID, &d.Regimen.RegimenCode, &d.Regimen.RegimenName, &d.Regimen.Line,
	}, d.Patient.Targets(), staff.Targets())
	if err != nil {
		return nil, err
	}
	d.DispensedByStaff = staff.Ref()
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, in *CreateInput) (*Dispense, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO dispense (patient_id, regimen_id, dispensed_by, dispense_date, days_supply,
			quantity_dispensed, next_refill_date, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING dispense_id`,
		in.PatientID, in.RegimenID, in.DispensedBy, in.DispenseDate.Time, in.DaysSupply,
		in.QuantityDispensed, in.NextRefillDate, in.Notes,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert dispense: %w", db.Classify(err, "Dispense"))
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Dispense, error) {
	sql, args, err := listquery.Builder.Select(dispenseCols...).From(dispenseFrom).
		Where(sq.Eq{"d.dispense_id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	d, err := scanDispense(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "Dispense")
	}
	return d, nil
}

func (r *repoPG) Update(ctx context.Context, id int64, p *Patch) (*Dispense, error) {
	u := listquery.NewUpdate("dispense")
	listquery.Field(u, "regimen_id", p.RegimenID)
	listquery.Field(u, "dispense_date", p.DispenseDate)
	listquery.Field(u, "days_supply", p.DaysSupply)
	listquery.Field(u, "quantity_dispensed", p.QuantityDispensed)
	listquery.Field(u, "notes", p.Notes)
	if p.RecomputesRefill() {
		// SET expressions see the pre-update row, so new values are passed in.
		u.Set("next_refill_date", sq.Expr("COALESCE(?::date, dispense_date) + COALESCE(?::int, days_supply)",
			p.DispenseDate.SQLValue(), p.DaysSupply.SQLValue()))
	}

	ok, err := u.Exec(ctx, r.conn(ctx), sq.Eq{"dispense_id": id})
	if err != nil {
		return nil, fmt.Errorf("update dispense: %w", db.Classify(err, "Dispense"))
	}
	if !ok {
		return nil, apperr.NotFound("Dispense not found")
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Dispense, int, error) {
	var where listquery.Filters
	where.EqID("d.patient_id", f.PatientID)
	where.EqID("d.dispensed_by", f.StaffID)
	where.EqID("d.regimen_id", f.RegimenID)
	where.Range("d.dispense_date", f.Dates)

	return listquery.Run(ctx, r.pool, listquery.Query{
		Columns: dispenseCols,
		From:    dispenseFrom,
		Where:   where,
		OrderBy: []string{"d.dispense_date DESC", "d.dispense_id DESC"},
	}, pg, scanDispense)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID int64) ([]*Dispense, error) {
	b := listquery.Builder.Select(dispenseCols...).From(dispenseFrom).
		Where(sq.Eq{"d.patient_id": patientID}).
		OrderBy("d.dispense_date DESC", "d.dispense_id DESC")
	return listquery.Select(ctx, r.pool, b, scanDispense)
}

func (r *repoPG) Overdue(ctx context.Context, asOf time.Time) ([]*Dispense, error) {
	latest := listquery.Builder.
		Select("dispense_id").
		Options("DISTINCT ON (patient_id)").
		From("dispense").
		OrderBy("patient_id", "dispense_date DESC", "dispense_id DESC")
	latestSQL, _, err := latest.ToSql()
	if err != nil {
		return nil, err
	}

	b := listquery.Builder.Select(dispenseCols...).
		From(dispenseFrom).
		Join("("+latestSQL+") ld ON ld.dispense_id = d.dispense_id").
		Where(sq.Eq{"p.current_status": "Active"}).
		Where(sq.Lt{"d.next_refill_date": asOf}).
		OrderBy("d.next_refill_date ASC", "d.dispense_id ASC")
	return listquery.Select(ctx, r.pool, b, scanDispense)
}
