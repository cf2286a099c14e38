package artifact

import (
	"context"
	"errors"
	"fmt"

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

func tableFor(kind string) (string, error) {
	switch kind {
	case KindPrescription:
		return "prescriptions", nil
	case KindReferral:
		return "referral_letters", nil
	}
	return "", fmt.Errorf("artifact: unknown kind %q", kind)
}

const artifactCols = `id, consultation_id, patient_id, patient_name, patient_dob, patient_phone, patient_address,
	clinician_name, clinician_reg, clinician_address, clinician_phone, clinician_email,
	history, diagnosis, medicines, recommendations, body,
	pdf_bytes, size_bytes, file_name, content_type, created_at`

func scanArtifact(row pgx.Row, kind string) (*Artifact, error) {
	a := Artifact{Kind: kind}
	err := row.Scan(&a.ID, &a.ConsultationID, &a.PatientID, &a.PatientName, &a.PatientDOB, &a.PatientPhone,
		&a.PatientAddress,
		&a.ClinicianName, &a.ClinicianReg, &a.ClinicianAddress, &a.ClinicianPhone, &a.ClinicianEmail,
		&a.History, &a.Diagnosis, &a.Medicines, &a.Recommendations, &a.Body,
		&a.PDFBytes, &a.SizeBytes, &a.FileName, &a.ContentType, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Statusf(apperr.ErrNotFound, "artifact: not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Artifact) error {
	table, err := tableFor(a.Kind)
	if err != nil {
		return err
	}
	// The legacy size column mirrors size_bytes on every write. Old readers
	// still select it.
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO `+table+` (consultation_id, patient_id, patient_name, patient_dob, patient_phone,
			patient_address,
			clinician_name, clinician_reg, clinician_address, clinician_phone, clinician_email,
			history, diagnosis, medicines, recommendations, body,
			pdf_bytes, size_bytes, size, file_name, content_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $18, $19, $20)
		RETURNING id, created_at`,
		a.ConsultationID, a.PatientID, a.PatientName, a.PatientDOB, a.PatientPhone,
		a.PatientAddress,
		a.ClinicianName, a.ClinicianReg, a.ClinicianAddress, a.ClinicianPhone, a.ClinicianEmail,
		a.History, a.Diagnosis, a.Medicines, a.Recommendations, a.Body,
		a.PDFBytes, a.SizeBytes, a.FileName, a.ContentType,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, kind string, id int64) (*Artifact, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return scanArtifact(r.conn(ctx).QueryRow(ctx,
		`SELECT `+artifactCols+` FROM `+table+` WHERE id = $1`, id), kind)
}

func (r *repoPG) LatestForConsultation(ctx context.Context, kind string, consultationID int64) (*Artifact, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	a, err := scanArtifact(r.conn(ctx).QueryRow(ctx,
		`SELECT `+artifactCols+` FROM `+table+` WHERE consultation_id = $1 ORDER BY id DESC LIMIT 1`,
		consultationID), kind)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

func (r *repoPG) ListForConsultation(ctx context.Context, kind string, consultationID int64) ([]*Artifact, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+artifactCols+` FROM `+table+` WHERE consultation_id = $1 ORDER BY id DESC`,
		consultationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Artifact{}
	for rows.Next() {
		a, err := scanArtifact(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repoPG) LatestForUser(ctx context.Context, kind string, userID int64) (*Artifact, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	a, err := scanArtifact(r.conn(ctx).QueryRow(ctx, `
		SELECT `+prefixCols("a")+`
		FROM `+table+` a
		JOIN consultations c ON c.id = a.consultation_id
		WHERE c.user_id = $1
		ORDER BY a.id DESC
		LIMIT 1`, userID), kind)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// prefixCols qualifies the shared column list with a table alias.
func prefixCols(alias string) string {
	return alias + `.id, ` + alias + `.consultation_id, ` + alias + `.patient_id, ` +
		alias + `.patient_name, ` + alias + `.patient_dob, ` + alias + `.patient_phone, ` +
		alias + `.patient_address, ` +
		alias + `.clinician_name, ` + alias + `.clinician_reg, ` + alias + `.clinician_address, ` +
		alias + `.clinician_phone, ` + alias + `.clinician_email, ` +
		alias + `.history, ` + alias + `.diagnosis, ` + alias + `.medicines, ` +
		alias + `.recommendations, ` + alias + `.body, ` +
		alias + `.pdf_bytes, ` + alias + `.size_bytes, ` + alias + `.file_name, ` +
		alias + `.content_type, ` + alias + `.created_at`
}
