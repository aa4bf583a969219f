package person

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/hivcare/hivcare/internal/platform/db"
	"github.com/hivcare/hivcare/internal/platform/listquery"
)

// Columns selects a Person from alias.
func Columns(alias string) []string {
	cols := []string{"person_id", "nin", "first_name", "middle_name", "last_name", "sex", "date_of_birth",
		"phone_number", "email", "district", "subcounty", "parish", "village", "address_line"}
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

// Targets returns scan destinations matching Columns.
func (p *Person) Targets() []any {
	return []any{&p.PersonID, &p.NIN, &p.FirstName, &p.MiddleName, &p.LastName, &p.Sex, &p.DateOfBirth,
		&p.PhoneNumber, &p.Email, &p.District, &p.Subcounty, &p.Parish, &p.Village, &p.AddressLine}
}

// Insert creates the person row and returns its id. Run it inside the
// transaction that creates the owning patient or staff row.
func Insert(ctx context.Context, q db.Querier, in *Input) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO person (nin, first_name, middle_name, last_name, sex, date_of_birth,
			phone_number, email, district, subcounty, parish, village, address_line)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING person_id`,
		in.NIN, in.FirstName, in.MiddleName, in.LastName, in.Sex, in.DateOfBirth.Time,
		in.PhoneNumber, in.Email, in.District, in.Subcounty, in.Parish, in.Village, in.AddressLine,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert person: %w", db.Classify(err, "Person with this NIN"))
	}
	return id, nil
}

// Apply writes the fields present in p. It is a no-op when none are.
func Apply(ctx context.Context, q db.Querier, personID int64, p *Patch) error {
	u := listquery.NewUpdate("person")
	listquery.Field(u, "nin", p.NIN)
	listquery.Field(u, "first_name", p.FirstName)
	listquery.Field(u, "middle_name", p.MiddleName)
	listquery.Field(u, "last_name", p.LastName)
	listquery.Field(u, "sex", p.Sex)
	listquery.Field(u, "date_of_birth", p.DateOfBirth)
	listquery.Field(u, "phone_number", p.PhoneNumber)
	listquery.Field(u, "email", p.Email)
	listquery.Field(u, "district", p.District)
	listquery.Field(u, "subcounty", p.Subcounty)
	listquery.Field(u, "parish", p.Parish)
	listquery.Field(u, "village", p.Village)
	listquery.Field(u, "address_line", p.AddressLine)
	if u.Empty() {
		return nil
	}
	u.Set("updated_at", sq.Expr("NOW()"))
	if _, err := u.Exec(ctx, q, sq.Eq{"person_id": personID}); err != nil {
		return fmt.Errorf("update person: %w", db.Classify(err, "Person with this NIN"))
	}
	return nil
}

// PatientJoin joins patient p and its person pp on the given column.
func PatientJoin(on string) string {
	return "JOIN patient p ON p.patient_id = " + on + " JOIN person pp ON pp.person_id = p.person_id"
}

// PatientColumns selects a PatientRef from PatientJoin.
var PatientColumns = []string{"p.patient_id", "p.patient_number", "pp.first_name", "pp.last_name"}

func (r *PatientRef) Targets() []any {
	return []any{&r.PatientID, &r.PatientNumber, &r.FirstName, &r.LastName}
}

// StaffJoin left-joins staff alias and its person alias+"p" on the given column.
func StaffJoin(alias, on string) string {
	return fmt.Sprintf("LEFT JOIN staff %[1]s ON %[1]s.staff_id = %[2]s LEFT JOIN person %[1]sp ON %[1]sp.person_id = %[1]s.person_id", alias, on)
}

// StaffColumns selects a nullable StaffRef from StaffJoin.
func StaffColumns(alias string) []string {
	return []string{alias + ".staff_id", alias + ".staff_code", alias + "p.first_name", alias + "p.last_name"}
}

// NullStaff scans the optional side of StaffJoin.
type NullStaff struct {
	id                *int64
	code, first, last *string
}

func (n *NullStaff) Targets() []any { return []any{&n.id, &n.code, &n.first, &n.last} }

// Ref is nil when the join matched no staff row.
func (n *NullStaff) Ref() *StaffRef {
	if n.id == nil {
		return nil
	}
	r := &StaffRef{StaffID: *n.id}
	if n.code != nil {
		r.StaffCode = *n.code
	}
	if n.first != nil {
		r.FirstName = *n.first
	}
	if n.last != nil {
		r.LastName = *n.last
	}
	return r
}

// Cols concatenates column groups for a select list.
func Cols(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Scan reads one row into the concatenated targets.
func Scan(row pgx.Row, groups ...[]any) error {
	var dst []any
	for _, g := range groups {
		dst = append(dst, g...)
	}
	return row.Scan(dst...)
}
