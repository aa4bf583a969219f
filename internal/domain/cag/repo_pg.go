package cag

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hivcare/hivcare/internal/domain/labtest"
	"github.com/hivcare/hivcare/internal/domain/person"
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
	cagFrom = "cag c" +
		" LEFT JOIN patient cp ON cp.patient_id = c.coordinator_patient_id" +
		" LEFT JOIN person cpp ON cpp.person_id = cp.person_id " +
		person.StaffJoin("fs", "c.facility_staff_id")
	cagCols = person.Cols([]string{
		"c.cag_id", "c.cag_name", "c.district", "c.subcounty", "c.parish", "c.village", "c.formation_date",
		"c.status", "c.max_members", "c.coordinator_patient_id", "c.facility_staff_id", "c.created_at",
		"(SELECT COUNT(*) FROM patient_cag pc WHERE pc.cag_id = c.cag_id AND pc.is_active)",
		"NULLIF(CONCAT_WS(' ', cpp.first_name, cpp.last_name), '')",
	}, person.StaffColumns("fs"))
)

func scanCAG(row pgx.Row) (*CAG, error) {
	var (
		g     CAG
		staff person.NullStaff
	)
	err := person.Scan(row, []any{
		&g.CAGID, &g.CAGName, &g.District, &g.Subcounty, &g.Parish, &g.Village, &g.FormationDate,
		&g.Status, &g.MaxMembers, &g.CoordinatorPatientID, &g.FacilityStaffID, &g.CreatedAt,
		&g.CurrentMemberCount, &g.CoordinatorName,
	}, staff.Targets())
	if err != nil {
		return nil, err
	}
	g.FacilityStaff = staff.Ref()
	return &g, nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*CAG, error) {
	sql, args, err := listquery.Builder.Select(cagCols...).From(cagFrom).
		Where(sq.Eq{"c.cag_id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	g, err := scanCAG(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "CAG")
	}
	return g, nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*CAG, int, error) {
	var where listquery.Filters
	where.EqString("c.status", f.Status)
	where.EqString("c.district", f.District)
	where.EqString("c.village", f.Village)

	return listquery.Run(ctx, r.pool, listquery.Query{
		Columns: cagCols,
		From:    cagFrom,
		Where:   where,
		OrderBy: []string{"c.cag_name", "c.cag_id"},
	}, pg, scanCAG)
}

const memberQuery = `
	SELECT pc.patient_cag_id, pc.patient_id, p.patient_number, per.first_name, per.last_name, per.sex,
		DATE_PART('year', AGE(CURRENT_DATE, per.date_of_birth))::int,
		pc.join_date, pc.role_in_cag, p.current_status
	FROM patient_cag pc
	JOIN patient p ON p.patient_id = pc.patient_id
	JOIN person per ON per.person_id = p.person_id
	WHERE pc.cag_id = $1 AND pc.is_active
	ORDER BY pc.role_in_cag DESC, pc.join_date, pc.patient_cag_id`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(&m.PatientCAGID, &m.PatientID, &m.PatientNumber, &m.FirstName, &m.LastName, &m.Sex,
		&m.Age, &m.JoinDate, &m.RoleInCAG, &m.CurrentStatus)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repoPG) Members(ctx context.Context, cagID int64) ([]*Member, error) {
	if err := r.exists(ctx, cagID, false); err != nil {
		return nil, err
	}
	return listquery.Collect(ctx, r.conn(ctx), memberQuery, []any{cagID}, scanMember)
}

var (
	rotationFrom = "cag_rotation cr " + person.PatientJoin("cr.pickup_patient_id") +
		" LEFT JOIN dispense d ON d.dispense_id = cr.dispense_id" +
		" LEFT JOIN regimen rg ON rg.regimen_id = d.regimen_id"
	rotationCols = person.Cols([]string{
		"cr.rotation_id", "cr.rotation_date", "cr.patients_served", "cr.dispense_id",
		"d.dispense_date", "rg.regimen_name", "cr.notes",
	}, person.PatientColumns)
)

func scanRotation(row pgx.Row) (*Rotation, error) {
	var rt Rotation
	err := person.Scan(row, []any{
		&rt.RotationID, &rt.RotationDate, &rt.PatientsServed, &rt.DispenseID,
		&rt.DispenseDate, &rt.RegimenName, &rt.Notes,
	}, rt.PickupPatient.Targets())
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *repoPG) Rotations(ctx context.Context, cagID int64, pg pagination.Params) ([]*Rotation, int, error) {
	if err := r.exists(ctx, cagID, false); err != nil {
		return nil, 0, err
	}
	var where listquery.Filters
	where.Eq("cr.cag_id", cagID)
	return listquery.Run(ctx, r.pool, listquery.Query{
		Columns: rotationCols,
		From:    rotationFrom,
		Where:   where,
		OrderBy: []string{"cr.rotation_date DESC", "cr.rotation_id DESC"},
	}, pg, scanRotation)
}

var statisticsQuery = fmt.Sprintf(`
	WITH members AS (
		SELECT patient_id FROM patient_cag WHERE cag_id = $1 AND is_active
	), adherence AS (
		SELECT DISTINCT ON (al.patient_id) al.patient_id, al.adherence_percent
		FROM adherence_log al JOIN members m ON m.patient_id = al.patient_id
		ORDER BY al.patient_id, al.log_date DESC, al.adherence_id DESC
	), viral_load AS (
		SELECT DISTINCT ON (lt.patient_id) lt.patient_id, lt.result_numeric
		FROM lab_test lt JOIN members m ON m.patient_id = lt.patient_id
		WHERE lt.test_type = '%[1]s' AND lt.status = '%[2]s' AND lt.result_numeric IS NOT NULL
		ORDER BY lt.patient_id, lt.test_date DESC, lt.lab_test_id DESC
	)
	SELECT
		(SELECT COUNT(*) FROM members),
		(SELECT AVG(adherence_percent)::float8 FROM adherence),
		(SELECT COUNT(*) FROM adherence WHERE adherence_percent >= %[3]d),
		(SELECT COUNT(*) FROM viral_load WHERE result_numeric < %[4]d),
		(SELECT COUNT(*) FROM viral_load WHERE result_numeric >= %[4]d),
		COUNT(cr.rotation_id),
		MAX(cr.rotation_date),
		MIN(cr.rotation_date)
	FROM cag_rotation cr
	WHERE cr.cag_id = $1`,
	labtest.TestTypeViralLoad, labtest.StatusCompleted, excellentAdherence, suppressedBelow)

func (r *repoPG) Statistics(ctx context.Context, cagID int64) (*Statistics, error) {
	if err := r.exists(ctx, cagID, false); err != nil {
		return nil, err
	}
	s := &Statistics{CAGID: cagID}
	err := r.conn(ctx).QueryRow(ctx, statisticsQuery, cagID).Scan(
		&s.ActiveMembers, &s.AvgAdherence, &s.ExcellentAdherenceCount,
		&s.SuppressedVLCount, &s.UnsuppressedVLCount,
		&s.TotalRotations, &s.LastRotationDate, &s.FirstRotationDate,
	)
	if err != nil {
		return nil, fmt.Errorf("cag statistics: %w", err)
	}
	return s, nil
}

// exists fails with NotFound for an unknown group. With lock set it also
// holds the row until the surrounding transaction ends.
func (r *repoPG) exists(ctx context.Context, cagID int64, lock bool) error {
	q := `SELECT 1 FROM cag WHERE cag_id = $1`
	if lock {
		q += ` FOR UPDATE`
	}
	var one int
	if err := r.conn(ctx).QueryRow(ctx, q, cagID).Scan(&one); err != nil {
		return db.Classify(err, "CAG")
	}
	return nil
}

// call runs a membership procedure against a locked group.
func (r *repoPG) call(ctx context.Context, cagID int64, sql string, args ...any) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if err := r.exists(ctx, cagID, true); err != nil {
			return err
		}
		if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("%s: %w", sql, db.Classify(err, "CAG"))
		}
		return nil
	})
}

func (r *repoPG) AddMember(ctx context.Context, cagID int64, in *AddMemberInput) error {
	return r.call(ctx, cagID, "CALL sp_cag_add_patient($1, $2, $3)", cagID, in.PatientID, in.RoleInCAG)
}

func (r *repoPG) RemoveMember(ctx context.Context, cagID int64, in *RemoveMemberInput) error {
	return r.call(ctx, cagID, "CALL sp_cag_remove_patient($1, $2, $3)", cagID, in.PatientID, in.ExitReason)
}

func (r *repoPG) RecordRotation(ctx context.Context, cagID int64, in *RotationInput) error {
	return r.call(ctx, cagID, "CALL sp_cag_record_rotation($1, $2, $3::date, $4, $5, $6)",
		cagID, in.PickupPatientID, in.RotationDate.Time, in.DispenseID, in.PatientsServed, in.Notes)
}

func (r *repoPG) SetCoordinator(ctx context.Context, cagID, patientID int64) error {
	return r.call(ctx, cagID, "CALL sp_cag_set_coordinator($1, $2)", cagID, patientID)
}
