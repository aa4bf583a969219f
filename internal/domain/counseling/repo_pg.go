package counseling

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
	sessionFrom = "counseling_session cs " + person.PatientJoin("cs.patient_id") + " " + person.StaffJoin("c", "cs.counselor_id")
	sessionCols = person.Cols([]string{
		"cs.session_id", "cs.patient_id", "cs.counselor_id", "cs.session_date", "cs.session_type",
		"cs.topics_discussed", "cs.adherence_barriers", "cs.notes", "cs.next_session_date", "cs.created_at",
	}, person.PatientColumns, person.StaffColumns("c"))
)

func scanSession(row pgx.Row) (*Session, error) {
	var (
		s         Session
		counselor person.NullStaff
	)
	err := person.Scan(row, []any{
		&s.SessionID, &s.PatientID, &s.CounselorID, &s.SessionDate, &s.SessionType,
		&s.TopicsDiscussed, &s.AdherenceBarriers, &s.Notes, &s.NextSessionDate, &s.CreatedAt,
	}, s.Patient.Targets(), counselor.Targets())
	if err != nil {
		return nil, err
	}
	s.Counselor = counselor.Ref()
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, in *CreateInput) (*Session, error) {
	var next any
	if in.NextSessionDate != nil {
		next = in.NextSessionDate.Time
	}
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO counseling_session (patient_id, counselor_id, session_date, session_type,
			topics_discussed, adherence_barriers, notes, next_session_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING session_id`,
		in.PatientID, in.CounselorID, in.SessionDate.Time, in.SessionType,
		in.TopicsDiscussed, in.AdherenceBarriers, in.Notes, next,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert counseling session: %w", db.Classify(err, "Counseling session"))
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Session, error) {
	sql, args, err := listquery.Builder.Select(sessionCols...).From(sessionFrom).
		Where(sq.Eq{"cs.session_id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	s, err := scanSession(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, db.Classify(err, "Counseling session")
	}
	return s, nil
}

func (r *repoPG) Update(ctx context.Context, id int64, p *Patch) (*Session, error) {
	u := listquery.NewUpdate("counseling_session")
	listquery.Field(u, "session_date", p.SessionDate)
	listquery.Field(u, "session_type", p.SessionType)
	listquery.Field(u, "topics_discussed", p.TopicsDiscussed)
	listquery.Field(u, "adherence_barriers", p.AdherenceBarriers)
	listquery.Field(u, "notes", p.Notes)
	listquery.Field(u, "next_session_date", p.NextSessionDate)

	ok, err := u.Exec(ctx, r.conn(ctx), sq.Eq{"session_id": id})
	if err != nil {
		return nil, fmt.Errorf("update counseling session: %w", db.Classify(err, "Counseling session"))
	}
	if !ok {
		return nil, apperr.NotFound("Counseling session not found")
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Session, int, error) {
	var where listquery.Filters
	where.EqID("cs.patient_id", f.PatientID)
	where.EqID("cs.counselor_id", f.CounselorID)
	where.Range("cs.session_date", f.Dates)

	return listquery.Run(ctx, r.pool, listquery.Query{
		Columns: sessionCols,
		From:    sessionFrom,
		Where:   where,
		OrderBy: []string{"cs.session_date DESC", "cs.session_id DESC"},
	}, pg, scanSession)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID int64) ([]*Session, error) {
	b := listquery.Builder.Select(sessionCols...).From(sessionFrom).
		Where(sq.Eq{"cs.patient_id": patientID}).
		OrderBy("cs.session_date DESC", "cs.session_id DESC")
	return listquery.Select(ctx, r.pool, b, scanSession)
}
