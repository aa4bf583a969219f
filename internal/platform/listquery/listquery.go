// Package listquery builds the filtered, ordered, paginated SELECT and the
// matching COUNT used by every list endpoint.
package listquery

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/hivcare/hivcare/internal/platform/db"
	"github.com/hivcare/hivcare/internal/platform/params"
	"github.com/hivcare/hivcare/pkg/pagination"
)

// Builder is the squirrel statement builder with Postgres placeholders.
var Builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Filters is an AND of predicates. Helpers skip absent values so handlers
// can pass optional query parameters straight through.
type Filters []sq.Sqlizer

func (f *Filters) Where(pred sq.Sqlizer) {
	*f = append(*f, pred)
}

// Eq adds col = v unconditionally.
func (f *Filters) Eq(col string, v any) {
	f.Where(sq.Eq{col: v})
}

// EqString adds col = v when v is non-empty.
func (f *Filters) EqString(col, v string) {
	if v != "" {
		f.Eq(col, v)
	}
}

func (f *Filters) EqID(col string, v *int64) {
	if v != nil {
		f.Eq(col, *v)
	}
}

func (f *Filters) EqBool(col string, v *bool) {
	if v != nil {
		f.Eq(col, *v)
	}
}

// Search adds a case-insensitive substring match against any of cols.
func (f *Filters) Search(term string, cols ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(cols) == 0 {
		return
	}
	pattern := "%" + escapeLike(term) + "%"
	or := make(sq.Or, 0, len(cols))
	for _, col := range cols {
		or = append(or, sq.ILike{col: pattern})
	}
	f.Where(or)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Range restricts col to r. Both ends are inclusive; a date-only end
// covers that whole day.
func (f *Filters) Range(col string, r params.DateRange) {
	if r.From != nil {
		f.Where(sq.GtOrEq{col: *r.From})
	}
	if up, exclusive := r.Upper(); r.To != nil {
		if exclusive {
			f.Where(sq.Lt{col: up})
		} else {
			f.Where(sq.LtOrEq{col: up})
		}
	}
}

// Query describes one list endpoint. From may contain joins.
type Query struct {
	Columns []string
	From    string
	Where   Filters
	OrderBy []string
}

func (q Query) where(b sq.SelectBuilder) sq.SelectBuilder {
	if len(q.Where) > 0 {
		b = b.Where(sq.And(q.Where))
	}
	return b
}

// PageSQL renders the page-window SELECT.
func (q Query) PageSQL(p pagination.Params) (string, []any, error) {
	b := q.where(Builder.Select(q.Columns...).From(q.From)).
		OrderBy(q.OrderBy...).
		Limit(uint64(p.Limit)).
		Offset(uint64(p.Offset))
	return b.ToSql()
}

// CountSQL renders COUNT(*) under the same predicate.
func (q Query) CountSQL() (string, []any, error) {
	return q.where(Builder.Select("COUNT(*)").From(q.From)).ToSql()
}

// ScanFunc reads one row of the page query.
type ScanFunc[T any] func(row pgx.Row) (T, error)

// Run executes the page and count queries and returns the rows with the
// total match count. Outside a transaction both run concurrently on the pool.
func Run[T any](ctx context.Context, pool db.Querier, q Query, p pagination.Params, scan ScanFunc[T]) ([]T, int, error) {
	pageSQL, pageArgs, err := q.PageSQL(p)
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}
	countSQL, countArgs, err := q.CountSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	conn := db.Conn(ctx, pool)
	var (
		items []T
		total int
	)
	fetchPage := func(ctx context.Context) error {
		var err error
		items, err = Collect(ctx, conn, pageSQL, pageArgs, scan)
		return err
	}
	fetchCount := func(ctx context.Context) error {
		if err := conn.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
			return fmt.Errorf("count: %w", err)
		}
		return nil
	}

	// A pgx.Tx cannot run two statements at once.
	if db.TxFromContext(ctx) != nil {
		if err := fetchPage(ctx); err != nil {
			return nil, 0, err
		}
		if err := fetchCount(ctx); err != nil {
			return nil, 0, err
		}
		return items, total, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fetchPage(gctx) })
	g.Go(func() error { return fetchCount(gctx) })
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Collect runs sql and scans every row. The result is never nil.
func Collect[T any](ctx context.Context, conn db.Querier, sql string, args []any, scan ScanFunc[T]) ([]T, error) {
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Select runs a built squirrel query through Collect.
func Select[T any](ctx context.Context, conn db.Querier, b sq.SelectBuilder, scan ScanFunc[T]) ([]T, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return Collect(ctx, db.Conn(ctx, conn), sql, args, scan)
}
