package registration

import (
	"context"
	"errors"
	"time"

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

type repoPG struct {
	pool *pgxpool.Pool
	tx   *db.TxManager
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool, tx: db.NewTxManager(pool)}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func dateArg(d *Date) interface{} {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.Time
}

func dateOf(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

const registrationCols = `id, first_name, middle_name, last_name, date_of_birth, gender,
	primary_whatsapp, carer_whatsapp, email_address,
	long_term_medication, health_condition, allergies, fit_to_fly_certificate,
	travelling_from, travelling_to, travel_start_date, travel_end_date,
	package_days, document_file_name, created_at`

func scanRegistration(row pgx.Row) (*Registration, error) {
	var reg Registration
	var dob, start, end *time.Time
	err := row.Scan(&reg.ID, &reg.FirstName, &reg.MiddleName, &reg.LastName, &dob, &reg.Gender,
		&reg.PrimaryWhatsAppNumber, &reg.CarerSecondaryWhatsAppNumber, &reg.EmailAddress,
		&reg.LongTermMedication, &reg.HealthCondition, &reg.Allergies, &reg.FitToFlyCertificate,
		&reg.TravellingFrom, &reg.TravellingTo, &start, &end,
		&reg.PackageDays, &reg.DocumentFileName, &reg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Statusf(apperr.ErrNotFound, "registration: not found")
	}
	if err != nil {
		return nil, err
	}
	reg.DateOfBirth = dateOf(dob)
	reg.TravelStartDate = dateOf(start)
	reg.TravelEndDate = dateOf(end)
	return &reg, nil
}

func (r *repoPG) Create(ctx context.Context, reg *Registration) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO registrations (first_name, middle_name, last_name, date_of_birth, gender,
				primary_whatsapp, carer_whatsapp, email_address,
				long_term_medication, health_condition, allergies, fit_to_fly_certificate,
				travelling_from, travelling_to, travel_start_date, travel_end_date,
				package_days, document_file_name)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			RETURNING id, created_at`,
			reg.FirstName, reg.MiddleName, reg.LastName, dateArg(reg.DateOfBirth), reg.Gender,
			reg.PrimaryWhatsAppNumber, reg.CarerSecondaryWhatsAppNumber, reg.EmailAddress,
			reg.LongTermMedication, reg.HealthCondition, reg.Allergies, reg.FitToFlyCertificate,
			reg.TravellingFrom, reg.TravellingTo, dateArg(reg.TravelStartDate), dateArg(reg.TravelEndDate),
			reg.PackageDays, reg.DocumentFileName,
		).Scan(&reg.ID, &reg.CreatedAt)
		if err != nil {
			return err
		}
		return r.insertTravelers(ctx, reg)
	})
}

func (r *repoPG) Update(ctx context.Context, reg *Registration) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		tag, err := r.conn(ctx).Exec(ctx, `
			UPDATE registrations
			SET first_name = $2, middle_name = $3, last_name = $4, date_of_birth = $5, gender = $6,
				primary_whatsapp = $7, carer_whatsapp = $8, email_address = $9,
				long_term_medication = $10, health_condition = $11, allergies = $12,
				fit_to_fly_certificate = $13, travelling_from = $14, travelling_to = $15,
				travel_start_date = $16, travel_end_date = $17, package_days = $18,
				document_file_name = $19
			WHERE id = $1`,
			reg.ID,
			reg.FirstName, reg.MiddleName, reg.LastName, dateArg(reg.DateOfBirth), reg.Gender,
			reg.PrimaryWhatsAppNumber, reg.CarerSecondaryWhatsAppNumber, reg.EmailAddress,
			reg.LongTermMedication, reg.HealthCondition, reg.Allergies, reg.FitToFlyCertificate,
			reg.TravellingFrom, reg.TravellingTo, dateArg(reg.TravelStartDate), dateArg(reg.TravelEndDate),
			reg.PackageDays, reg.DocumentFileName)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.Statusf(apperr.ErrNotFound, "registration %d: not found", reg.ID)
		}

		if _, err := r.conn(ctx).Exec(ctx,
			`DELETE FROM travelers WHERE registration_id = $1`, reg.ID); err != nil {
			return err
		}
		return r.insertTravelers(ctx, reg)
	})
}

func (r *repoPG) insertTravelers(ctx context.Context, reg *Registration) error {
	for i := range reg.Travelers {
		t := &reg.Travelers[i]
		err := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO travelers (registration_id, full_name, date_of_birth)
			VALUES ($1, $2, $3)
			RETURNING id`,
			reg.ID, t.FullName, dateArg(t.DateOfBirth),
		).Scan(&t.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Registration, error) {
	reg, err := scanRegistration(r.conn(ctx).QueryRow(ctx,
		`SELECT `+registrationCols+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadTravelers(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *repoPG) LatestByEmail(ctx context.Context, email string) (*Registration, error) {
	reg, err := scanRegistration(r.conn(ctx).QueryRow(ctx,
		`SELECT `+registrationCols+` FROM registrations WHERE email_address = $1 ORDER BY id DESC LIMIT 1`,
		email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadTravelers(ctx, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *repoPG) loadTravelers(ctx context.Context, reg *Registration) error {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, full_name, date_of_birth FROM travelers WHERE registration_id = $1 ORDER BY id`,
		reg.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	reg.Travelers = []Traveler{}
	for rows.Next() {
		var t Traveler
		var dob *time.Time
		if err := rows.Scan(&t.ID, &t.FullName, &dob); err != nil {
			return err
		}
		t.DateOfBirth = dateOf(dob)
		reg.Travelers = append(reg.Travelers, t)
	}
	return rows.Err()
}

func (r *repoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM registrations WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repoPG) AddDocument(ctx context.Context, d *Document) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO registration_documents (registration_id, original_file_name, content_type, size_bytes, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		d.RegistrationID, d.OriginalFileName, d.ContentType, d.SizeBytes, d.Data,
	).Scan(&d.ID, &d.CreatedAt)
}

func (r *repoPG) ListDocuments(ctx context.Context, registrationID int64) ([]*DocumentMeta, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, original_file_name, size_bytes, created_at
		FROM registration_documents
		WHERE registration_id = $1
		ORDER BY created_at DESC`, registrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*DocumentMeta
	for rows.Next() {
		var m DocumentMeta
		if err := rows.Scan(&m.ID, &m.FileName, &m.SizeBytes, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *repoPG) GetDocument(ctx context.Context, registrationID, docID int64) (*Document, error) {
	var d Document
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, registration_id, original_file_name, content_type, size_bytes, data, created_at
		FROM registration_documents
		WHERE id = $1 AND registration_id = $2`, docID, registrationID,
	).Scan(&d.ID, &d.RegistrationID, &d.OriginalFileName, &d.ContentType, &d.SizeBytes, &d.Data, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Statusf(apperr.ErrNotFound, "document %d: not found", docID)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
