package listquery

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/hivcare/hivcare/internal/platform/db"
	"github.com/hivcare/hivcare/pkg/nullable"
)

// Update collects the columns of a partial update.
type Update struct {
	table string
	set   map[string]any
	order []string
}

func NewUpdate(table string) *Update {
	return &Update{table: table, set: make(map[string]any)}
}

// Set writes v unconditionally.
func (u *Update) Set(col string, v any) *Update {
	if _, ok := u.set[col]; !ok {
		u.order = append(u.order, col)
	}
	u.set[col] = v
	return u
}

// Empty reports whether no column was set.
func (u *Update) Empty() bool { return len(u.order) == 0 }

// Field writes f when it was present in the request body.
func Field[T any](u *Update, col string, f nullable.Field[T]) *Update {
	if f.Set {
		u.Set(col, f.SQLValue())
	}
	return u
}

// SQL renders the UPDATE restricted by where.
func (u *Update) SQL(where sq.Eq) (string, []any, error) {
	b := Builder.Update(u.table)
	for _, col := range u.order {
		b = b.Set(col, u.set[col])
	}
	return b.Where(where).ToSql()
}

// ExistsSQL renders the row check used when the update is empty.
func (u *Update) ExistsSQL(where sq.Eq) (string, []any, error) {
	return Builder.Select("1").From(u.table).Where(where).Prefix("SELECT EXISTS (").Suffix(")").ToSql()
}

// Exec applies the update and reports whether a row matched. An empty update
// writes nothing and only checks that the row exists.
func (u *Update) Exec(ctx context.Context, conn db.Querier, where sq.Eq) (bool, error) {
	if u.Empty() {
		sql, args, err := u.ExistsSQL(where)
		if err != nil {
			return false, fmt.Errorf("build exists: %w", err)
		}
		var found bool
		if err := db.Conn(ctx, conn).QueryRow(ctx, sql, args...).Scan(&found); err != nil {
			return false, err
		}
		return found, nil
	}
	sql, args, err := u.SQL(where)
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}
	tag, err := db.Conn(ctx, conn).Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
