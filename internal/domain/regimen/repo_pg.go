package regimen

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

var regimenCols = []string{"regimen_id", "regimen_code", "regimen_name", "line", "description", "created_at"}

func scanRegimen(row pgx.Row) (*Regimen, error) {
	var g Regimen
	if err := row.Scan(&g.RegimenID, &g.RegimenCode, &g.RegimenName, &g.Line, &g.Description, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repoPG) Create(ctx context.Context, in *CreateInput) (*Regimen, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO regimen (regimen_code, regimen_name, line, description)
		VALUES ($1,$2,$3,$4)
		RETURNING regimen_id`,
		in.RegimenCode, in.RegimenName, in.Line, in.Description,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert regimen: %w", db.Classify(err, "Regimen code"))
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Regimen, error) {
	sql, args, err := listquery.Builder.Select(regimenCols...).From("regimen").
		Where(sq.Eq{"regimen_id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	g, err := scanRegimen(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "Regimen")
	}
	return g, nil
}

func (r *repoPG) Update(ctx context.Context, id int64, p *Patch) (*Regimen, error) {
	u := listquery.NewUpdate("regimen")
	listquery.Field(u, "regimen_code", p.RegimenCode)
	listquery.Field(u, "regimen_name", p.RegimenName)
	listquery.Field(u, "line", p.Line)
	listquery.Field(u, "description", p.Description)

	ok, err := u.Exec(ctx, r.conn(ctx), sq.Eq{"regimen_id": id})
	if err != nil {
		return nil, fmt.Errorf("update regimen: %w", db.Classify(err, "Regimen code"))
	}
	if !ok {
		return nil, apperr.NotFound("Regimen not found")
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Regimen, int, error) {
	var where listquery.Filters
	where.EqString("line", f.Line)
	where.Search(f.Search, "regimen_code", "regimen_name")

	return listquery.Run(ctx, r.pool, listquery.Query{
		Columns: regimenCols,
		From:    "regimen",
		Where:   where,
		OrderBy: []string{"regimen_name", "regimen_id"},
	}, pg, scanRegimen)
}

func (r *repoPG) ListByLine(ctx context.Context, line string) ([]*Regimen, error) {
	b := listquery.Builder.Select(regimenCols...).From("regimen").
		Where(sq.Eq{"line": line}).
		OrderBy("regimen_name", "regimen_id")
	return listquery.Select(ctx, r.pool, b, scanRegimen)
}
