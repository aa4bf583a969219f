package staff

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

const staffFrom = "staff s JOIN person per ON per.person_id = s.person_id"

var staffCols = person.Cols([]string{
	"s.staff_id", "s.staff_code", "s.cadre", "s.moh_registration_no", "s.hire_date", "s.active",
	"s.created_at", "s.updated_at",
}, person.Columns("per"))

func scanStaff(row pgx.Row) (*Staff, error) {
	var s Staff
	err := person.Scan(row, []any{
		&s.StaffID, &s.StaffCode, &s.Cadre, &s.MOHRegistrationNo, &s.HireDate, &s.Active,
		&s.CreatedAt, &s.UpdatedAt,
	}, s.Person.Targets())
	if err != nil {
		return nil, err
	}
	s.Roles = []Role{}
	return &s, nil
}

func scanRole(row pgx.Row) (Role, error) {
	var r Role
	err := row.Scan(&r.RoleID, &r.RoleName, &r.Description)
	return r, err
}

// attachRoles loads the roles of every staff member in one query.
func (r *repoPG) attachRoles(ctx context.Context, staff ...*Staff) error {
	if len(staff) == 0 {
		return nil
	}
	byID := make(map[int64]*Staff, len(staff))
	ids := make([]int64, 0, len(staff))
	for _, s := range staff {
		byID[s.StaffID] = s
		ids = append(ids, s.StaffID)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT sr.staff_id, ro.role_id, ro.role_name, ro.description
		FROM staff_role sr JOIN role ro ON ro.role_id = sr.role_id
		WHERE sr.staff_id = ANY($1)
		ORDER BY ro.role_name`, ids)
	if err != nil {
		return fmt.Errorf("load staff roles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			staffID int64
			role    Role
		)
		if err := rows.Scan(&staffID, &role.RoleID, &role.RoleName, &role.Description); err != nil {
			return fmt.Errorf("scan staff role: %w", err)
		}
		if s := byID[staffID]; s != nil {
			s.Roles = append(s.Roles, role)
		}
	}
	return rows.Err()
}

func insertRoles(ctx context.Context, q db.Querier, staffID int64, roleIDs []int) error {
	if len(roleIDs) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `
		INSERT INTO staff_role (staff_id, role_id)
		SELECT $1, unnest($2::int[])
		ON CONFLICT DO NOTHING`, staffID, roleIDs)
	if err != nil {
		return fmt.Errorf("insert staff roles: %w", db.Classify(err, "Role assignment"))
	}
	return nil
}

func (r *repoPG) Create(ctx context.Context, in *CreateInput) (*Staff, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		personID, err := person.Insert(ctx, r.conn(ctx), &in.Input)
		if err != nil {
			return err
		}

		var hireDate, hash any
		if in.HireDate != nil {
			hireDate = in.HireDate.Time
		}
		if in.PasswordHash != "" {
			hash = in.PasswordHash
		}
		err = r.conn(ctx).QueryRow(ctx, `
			INSERT INTO staff (person_id, staff_code, cadre, moh_registration_no, hire_date, active, password_hash)
			VALUES ($1,$2,$3,$4,$5,TRUE,$6)
			RETURNING staff_id`,
			personID, in.StaffCode, in.Cadre, in.MOHRegistrationNo, hireDate, hash,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert staff: %w", db.Classify(err, "Staff code"))
		}
		return insertRoles(ctx, r.conn(ctx), id, in.RoleIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) get(ctx context.Context, where sq.Sqlizer) (*Staff, error) {
	sql, args, err := listquery.Builder.Select(staffCols...).From(staffFrom).Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	s, err := scanStaff(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "Staff")
	}
	if err := r.attachRoles(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Staff, error) {
	return r.get(ctx, sq.Eq{"s.staff_id": id})
}

func (r *repoPG) Update(ctx context.Context, id int64, patch *Patch) (*Staff, error) {
	u := listquery.NewUpdate("staff")
	listquery.Field(u, "cadre", patch.Cadre)
	listquery.Field(u, "moh_registration_no", patch.MOHRegistrationNo)
	listquery.Field(u, "hire_date", patch.HireDate)
	listquery.Field(u, "active", patch.Active)
	changed := !u.Empty() || !patch.Patch.Empty()

	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		var personID int64
		err := r.conn(ctx).QueryRow(ctx,
			`SELECT person_id FROM staff WHERE staff_id = $1 FOR UPDATE`, id).Scan(&personID)
		if err != nil {
			return db.Classify(err, "Staff")
		}
		if err := person.Apply(ctx, r.conn(ctx), personID, &patch.Patch); err != nil {
			return err
		}
		if !changed {
			return nil
		}
		u.Set("updated_at", sq.Expr("NOW()"))
		if _, err := u.Exec(ctx, r.conn(ctx), sq.Eq{"staff_id": id}); err != nil {
			return fmt.Errorf("update staff: %w", db.Classify(err, "Staff"))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Staff, int, error) {
	var where listquery.Filters
	where.EqBool("s.active", f.Active)
	where.EqString("s.cadre", f.Cadre)
	where.Search(f.Search, "s.staff_code", "per.first_name", "per.last_name")

	items, total, err := listquery.Run(ctx, r.pool, listquery.Query{
		Columns: staffCols,
		From:    staffFrom,
		Where:   where,
		OrderBy: []string{"s.hire_date DESC NULLS LAST", "s.staff_id"},
	}, pg, scanStaff)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachRoles(ctx, items...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) Roles(ctx context.Context, staffID int64) ([]Role, error) {
	s, err := r.GetByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	return s.Roles, nil
}

func (r *repoPG) ReplaceRoles(ctx context.Context, staffID int64, roleIDs []int) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		var one int
		err := r.conn(ctx).QueryRow(ctx, `SELECT 1 FROM staff WHERE staff_id = $1 FOR UPDATE`, staffID).Scan(&one)
		if err != nil {
			return db.Classify(err, "Staff")
		}
		if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM staff_role WHERE staff_id = $1`, staffID); err != nil {
			return fmt.Errorf("clear staff roles: %w", err)
		}
		return insertRoles(ctx, r.conn(ctx), staffID, roleIDs)
	})
}

func (r *repoPG) AllRoles(ctx context.Context) ([]Role, error) {
	return listquery.Collect(ctx, r.pool,
		`SELECT role_id, role_name, description FROM role ORDER BY role_name`, nil, scanRole)
}

func (r *repoPG) CredentialsByCode(ctx context.Context, staffCode string) (*Credentials, error) {
	var hash *string
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT password_hash FROM staff WHERE staff_code = $1`, staffCode).Scan(&hash)
	if err != nil {
		return nil, db.Classify(err, "Staff")
	}
	s, err := r.get(ctx, sq.Eq{"s.staff_code": staffCode})
	if err != nil {
		return nil, err
	}
	c := &Credentials{Staff: s}
	if hash != nil {
		c.PasswordHash = *hash
	}
	return c, nil
}

func (r *repoPG) PasswordHash(ctx context.Context, staffID int64) (string, error) {
	var hash *string
	err := r.conn(ctx).QueryRow(ctx, `SELECT password_hash FROM staff WHERE staff_id = $1`, staffID).Scan(&hash)
	if err != nil {
		return "", db.Classify(err, "Staff")
	}
	if hash == nil {
		return "", nil
	}
	return *hash, nil
}

func (r *repoPG) SetPasswordHash(ctx context.Context, staffID int64, hash string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE staff SET password_hash = $2, updated_at = NOW() WHERE staff_id = $1`, staffID, hash)
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Staff not found")
	}
	return nil
}
