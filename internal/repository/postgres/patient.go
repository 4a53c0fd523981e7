package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/internal/repository"
)

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

const patientColumns = `
	mrn, name, gender, age, diagnosis, payer, ward_class, priority_scale,
	physician, scheduled_at, approval_status, approved_at, access_token,
	signature_data, consent_data, officer_name, officer_sign_data,
	physician_note, created_at
`

func (r *patientRepository) Get(ctx context.Context, mrn string) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE mrn = $1`

	var p model.Patient
	if err := r.db.GetContext(ctx, &p, query, mrn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return &p, nil
}

func (r *patientRepository) Exists(ctx context.Context, mrn string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM patients WHERE mrn = $1)`
	if err := r.db.GetContext(ctx, &exists, query, mrn); err != nil {
		return false, fmt.Errorf("failed to check patient existence: %w", err)
	}
	return exists, nil
}

func (r *patientRepository) Insert(ctx context.Context, p *model.Patient) error {
	query := `
		INSERT INTO patients (
			mrn, name, gender, age, diagnosis, payer, ward_class,
			priority_scale, physician, scheduled_at, approval_status,
			access_token, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	p.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		p.MRN,
		p.Name,
		p.Gender,
		p.Age,
		p.Diagnosis,
		p.Payer,
		p.WardClass,
		p.PriorityScale,
		p.Physician,
		p.ScheduledAt,
		p.Status,
		p.AccessToken,
		p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "patients_access_token_key") {
			return repository.ErrTokenConflict
		}
		if isUniqueViolation(err, "") {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to insert patient: %w", err)
	}

	return nil
}

func (r *patientRepository) Update(ctx context.Context, p *model.Patient) error {
	query := `
		UPDATE patients
		SET name = $1, gender = $2, age = $3, diagnosis = $4, payer = $5,
			ward_class = $6, priority_scale = $7, physician = $8,
			scheduled_at = $9, access_token = $10
		WHERE mrn = $11
	`

	result, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.Gender,
		p.Age,
		p.Diagnosis,
		p.Payer,
		p.WardClass,
		p.PriorityScale,
		p.Physician,
		p.ScheduledAt,
		p.AccessToken,
		p.MRN,
	)
	if err != nil {
		if isUniqueViolation(err, "patients_access_token_key") {
			return repository.ErrTokenConflict
		}
		return fmt.Errorf("failed to update patient: %w", err)
	}

	return rowsAffectedOrNotFound(result)
}

func (r *patientRepository) UpdateDetails(ctx context.Context, p *model.Patient) error {
	query := `
		UPDATE patients
		SET name = $1, gender = $2, age = $3, diagnosis = $4, payer = $5,
			ward_class = $6, priority_scale = $7, physician = $8,
			scheduled_at = $9
		WHERE mrn = $10
	`

	result, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.Gender,
		p.Age,
		p.Diagnosis,
		p.Payer,
		p.WardClass,
		p.PriorityScale,
		p.Physician,
		p.ScheduledAt,
		p.MRN,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient details: %w", err)
	}

	return rowsAffectedOrNotFound(result)
}

func (r *patientRepository) List(ctx context.Context, limit, offset int) ([]*model.Patient, int, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		ORDER BY
			CASE WHEN scheduled_at IS NULL THEN 1 ELSE 0 END,
			scheduled_at DESC,
			created_at DESC
		LIMIT $1 OFFSET $2
	`

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM patients`); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	return patients, total, nil
}

func (r *patientRepository) ListAll(ctx context.Context) ([]*model.Patient, error) {
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		ORDER BY
			CASE WHEN scheduled_at IS NULL THEN 1 ELSE 0 END,
			scheduled_at DESC,
			created_at DESC
	`

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, fmt.Errorf("failed to list patients for export: %w", err)
	}

	return patients, nil
}

func (r *patientRepository) Delete(ctx context.Context, mrn string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE mrn = $1`, mrn)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	return rowsAffectedOrNotFound(result)
}

// Approve is the single concurrency-control point for the consent
// transition: a conditional update keyed on mrn, token, and pending status.
func (r *patientRepository) Approve(ctx context.Context, sub *model.SubmitApprovalRequest) (*model.Patient, error) {
	query := `
		UPDATE patients
		SET approval_status = $1,
			signature_data = $2,
			consent_data = $3,
			officer_name = $4,
			officer_sign_data = $5,
			physician_note = $6,
			approved_at = NOW()
		WHERE mrn = $7 AND access_token = $8 AND approval_status = $9
		RETURNING ` + patientColumns

	var p model.Patient
	err := r.db.GetContext(ctx, &p, query,
		model.ApprovalApproved,
		sub.SignatureData,
		sub.ConsentData,
		sub.OfficerName,
		sub.OfficerSignData,
		sub.PhysicianNote,
		sub.MRN,
		sub.Token,
		model.ApprovalPending,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to submit approval: %w", err)
	}

	return &p, nil
}

func (r *patientRepository) ApprovedWithToken(ctx context.Context, mrn, token string) (bool, error) {
	var approved bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM patients
			WHERE mrn = $1 AND access_token = $2 AND approval_status = $3
		)
	`
	if err := r.db.GetContext(ctx, &approved, query, mrn, token, model.ApprovalApproved); err != nil {
		return false, fmt.Errorf("failed to check approval state: %w", err)
	}
	return approved, nil
}

func rowsAffectedOrNotFound(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
