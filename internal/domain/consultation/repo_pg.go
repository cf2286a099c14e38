package consultation

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/godwitcare/godwitcare/internal/platform/apperr"
	"github.com/godwitcare/godwitcare/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const consultationCols = `id, user_id, patient_id, current_location, contact_name,
	contact_phone, contact_address, dob, answers_json, details_json,
	status, version, created_at`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	var answersJSON, detailsJSON string
	err := row.Scan(&c.ID, &c.UserID, &c.PatientID, &c.CurrentLocation, &c.ContactName,
		&c.ContactPhone, &c.ContactAddress, &c.DOB, &answersJSON, &detailsJSON,
		&c.Status, &c.Version, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Statusf(apperr.ErrNotFound, "consultation: not found")
	}
	if err != nil {
		return nil, err
	}

	// Unparseable stored JSON degrades to an empty map rather than failing
	// the read.
	if err := json.Unmarshal([]byte(answersJSON), &c.Answers); err != nil || c.Answers == nil {
		c.Answers = map[string]string{}
	}
	if err := json.Unmarshal([]byte(detailsJSON), &c.DetailsByQuestion); err != nil || c.DetailsByQuestion == nil {
		c.DetailsByQuestion = map[string]string{}
	}
	return &c, nil
}

func marshalMap(m map[string]string) (string, error) {
	if m == nil {
		m = map[string]string{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	answersJSON, err := marshalMap(c.Answers)
	if err != nil {
		return err
	}
	detailsJSON, err := marshalMap(c.DetailsByQuestion)
	if err != nil {
		return err
	}

	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultations (user_id, patient_id, current_location, contact_name,
			contact_phone, contact_address, dob, answers_json, details_json, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, version, created_at`,
		c.UserID, c.PatientID, c.CurrentLocation, c.ContactName,
		c.ContactPhone, c.ContactAddress, c.DOB, answersJSON, detailsJSON, c.Status,
	).Scan(&c.ID, &c.Version, &c.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consultationCols+` FROM consultations WHERE id = $1`, id))
}

func (r *repoPG) LatestForUser(ctx context.Context, userID int64) (*Consultation, error) {
	c, err := scanConsultation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consultationCols+` FROM consultations WHERE user_id = $1 ORDER BY id DESC LIMIT 1`, userID))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

func (r *repoPG) ListForUser(ctx context.Context, userID int64) ([]*Consultation, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+consultationCols+` FROM consultations WHERE user_id = $1 ORDER BY id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repoPG) List(ctx context.Context, status string) ([]*Summary, error) {
	query := `
		SELECT c.id, u.email, c.contact_name, c.created_at, c.status
		FROM consultations c
		LEFT JOIN users u ON u.id = c.user_id`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE c.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY c.id DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.PatientEmail, &s.PatientName, &s.CreatedAt, &s.Status); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

func (r *repoPG) UpdateMutable(ctx context.Context, c *Consultation) (bool, error) {
	answersJSON, err := marshalMap(c.Answers)
	if err != nil {
		return false, err
	}
	detailsJSON, err := marshalMap(c.DetailsByQuestion)
	if err != nil {
		return false, err
	}

	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultations
		SET current_location = $3, contact_name = $4, contact_phone = $5,
			contact_address = $6, dob = $7, answers_json = $8, details_json = $9,
			version = version + 1
		WHERE id = $1 AND version = $2 AND status IN ($10, $11)`,
		c.ID, c.Version,
		c.CurrentLocation, c.ContactName, c.ContactPhone,
		c.ContactAddress, c.DOB, answersJSON, detailsJSON,
		StatusPending, StatusInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE consultations SET status = $2, version = version + 1 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Statusf(apperr.ErrNotFound, "consultation %d: not found", id)
	}
	return nil
}

func (r *repoPG) AdvanceToInProgress(ctx context.Context, id int64) (bool, error) {
	// The status guard keeps the advance from overwriting a COMPLETED row
	// that a concurrent prescription issuance committed.
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE consultations SET status = $2, version = version + 1
		 WHERE id = $1 AND status = $3`,
		id, StatusInProgress, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) ExistsPatientID(ctx context.Context, patientID string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM consultations WHERE patient_id = $1)`, patientID).Scan(&exists)
	return exists, err
}
