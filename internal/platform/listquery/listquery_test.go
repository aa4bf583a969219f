package listquery

import (
	"context"
	"errors"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivcare/hivcare/internal/platform/params"
	"github.com/hivcare/hivcare/pkg/nullable"
	"github.com/hivcare/hivcare/pkg/pagination"
)

func day(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func TestQuery_PageAndCountShareFilters(t *testing.T) {
	patientID := int64(12)
	var f Filters
	f.EqID("v.patient_id", &patientID)
	f.EqID("v.staff_id", nil)
	f.EqString("v.visit_type", "")
	f.Range("v.visit_date", params.DateRange{From: day("2024-01-15"), To: day("2024-02-15"), ToDateOnly: true})

	q := Query{
		Columns: []string{"v.visit_id", "v.visit_date"},
		From:    "visit v",
		Where:   f,
		OrderBy: []string{"v.visit_date DESC"},
	}

	pageSQL, pageArgs, err := q.PageSQL(pagination.New("2", "10", pagination.DefaultLimit))
	require.NoError(t, err)
	assert.Contains(t, pageSQL, "FROM visit v WHERE (v.patient_id = $1 AND v.visit_date >= $2 AND v.visit_date < $3)")
	assert.Contains(t, pageSQL, "ORDER BY v.visit_date DESC LIMIT 10 OFFSET 10")
	require.Len(t, pageArgs, 3)
	assert.Equal(t, int64(12), pageArgs[0])
	assert.Equal(t, *day("2024-02-16"), pageArgs[2])

	countSQL, countArgs, err := q.CountSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM visit v WHERE (v.patient_id = $1 AND v.visit_date >= $2 AND v.visit_date < $3)", countSQL)
	assert.Equal(t, pageArgs, countArgs)
}

func TestQuery_NoFilters(t *testing.T) {
	q := Query{Columns: []string{"regimen_id"}, From: "regimen", OrderBy: []string{"line", "regimen_code"}}
	sql, args, err := q.CountSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM regimen", sql)
	assert.Empty(t, args)
}

func TestFilters_RangeTimestampEndIsInclusive(t *testing.T) {
	end := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)
	var f Filters
	f.Range("a.scheduled_date", params.DateRange{To: &end})

	sql, args, err := sq.And(f).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(a.scheduled_date <= ?)", sql)
	assert.Equal(t, []any{end}, args)
}

func TestFilters_Search(t *testing.T) {
	var f Filters
	f.Search("  ")
	assert.Empty(t, f)

	f.Search("50%_off", "per.first_name", "per.last_name")
	sql, args, err := sq.And(f).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "((per.first_name ILIKE ? OR per.last_name ILIKE ?))", sql)
	assert.Equal(t, []any{`%50\%\_off%`, `%50\%\_off%`}, args)
}

func TestFilters_Bool(t *testing.T) {
	resolved := false
	var f Filters
	f.EqBool("al.is_resolved", &resolved)
	f.EqBool("al.alert_level", nil)

	sql, args, err := sq.And(f).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(al.is_resolved = ?)", sql)
	assert.Equal(t, []any{false}, args)
}

func TestUpdate_OnlyPresentFields(t *testing.T) {
	type patch struct {
		Notes     nullable.Field[string]
		Diagnosis nullable.Field[string]
		Weight    nullable.Field[float64]
	}
	p := patch{
		Notes:  nullable.Of("follow up in 2 weeks"),
		Weight: nullable.Field[float64]{Set: true, Null: true},
	}

	u := NewUpdate("visit")
	Field(u, "notes", p.Notes)
	Field(u, "diagnosis", p.Diagnosis)
	Field(u, "weight", p.Weight)

	sql, args, err := u.SQL(sq.Eq{"visit_id": int64(5)})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE visit SET notes = $1, weight = $2 WHERE visit_id = $3", sql)
	assert.Equal(t, []any{"follow up in 2 weeks", nil, int64(5)}, args)
}

// rowQuerier answers every QueryRow with found and records the statement.
type rowQuerier struct {
	found bool
	sql   string
	args  []any
	execs int
}

func (q *rowQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	q.execs++
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (q *rowQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (q *rowQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql, q.args = sql, args
	return boolRow(q.found)
}

type boolRow bool

func (r boolRow) Scan(dest ...any) error {
	*dest[0].(*bool) = bool(r)
	return nil
}

func TestUpdate_EmptyChecksExistence(t *testing.T) {
	u := NewUpdate("visit")
	assert.True(t, u.Empty())

	sql, args, err := u.ExistsSQL(sq.Eq{"visit_id": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, "SELECT EXISTS ( SELECT 1 FROM visit WHERE visit_id = $1 )", sql)
	assert.Equal(t, []any{int64(1)}, args)

	q := &rowQuerier{found: true}
	ok, err := u.Exec(context.Background(), q, sq.Eq{"visit_id": int64(1)})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, q.execs, "empty update must not write")

	q = &rowQuerier{found: false}
	ok, err = u.Exec(context.Background(), q, sq.Eq{"visit_id": int64(999)})
	require.NoError(t, err)
	assert.False(t, ok, "absent row must report no match so callers answer 404")
}

func TestUpdate_ExecWrites(t *testing.T) {
	u := NewUpdate("visit").Set("clinical_notes", "stable")
	q := &rowQuerier{}
	ok, err := u.Exec(context.Background(), q, sq.Eq{"visit_id": int64(1)})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, q.execs)
	assert.Empty(t, q.sql)
}
